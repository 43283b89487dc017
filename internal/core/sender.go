package core

import "strings"

// UserServer is the WhatsApp server part of a personal chat JID.
const UserServer = "s.whatsapp.net"

// NormalizeSender maps a sender to the owner key its ledger is stored under.
// A bare phone number, with or without a leading "+", becomes the full JID
// "<phone>@s.whatsapp.net"; a device suffix ("5511999:3@...") is dropped.
// Blank input stays blank.
func NormalizeSender(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	user, server, found := strings.Cut(s, "@")
	if !found {
		server = UserServer
	}
	user = strings.TrimPrefix(user, "+")
	if i := strings.IndexByte(user, ':'); i >= 0 {
		user = user[:i]
	}
	if user == "" {
		return ""
	}
	return user + "@" + strings.ToLower(server)
}

// SenderAllowed reports whether sender matches the allow-list entry once
// both are normalized. An empty entry allows nobody.
func SenderAllowed(sender, allowed string) bool {
	allowed = NormalizeSender(allowed)
	if allowed == "" {
		return false
	}
	return NormalizeSender(sender) == allowed
}
