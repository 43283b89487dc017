package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"carteira/internal/core"
	"carteira/internal/log"
	"carteira/internal/reply"
)

const maxMessageLength = 4096

type messageRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// messageResponse is a flattened reply.Reply.
type messageResponse struct {
	Type   string        `json:"type"`
	Body   string        `json:"body,omitempty"`
	Images []reply.Image `json:"images,omitempty"`
}

func toResponse(r reply.Reply) messageResponse {
	switch r := r.(type) {
	case reply.Images:
		return messageResponse{Type: "images", Images: r.Items}
	case reply.Text:
		return messageResponse{Type: "text", Body: r.Body}
	}
	return messageResponse{Type: "text", Body: reply.Plain(r)}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	if s.assistant == nil {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": map[string]any{
			"rate_limiter": map[string]any{"active_clients": s.rateLimiter.activeClients()},
		},
	})
}

// handleMetrics writes counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP messages_total Messages answered through the API\n")
	fmt.Fprintf(w, "# TYPE messages_total counter\n")
	fmt.Fprintf(w, "messages_total %d\n\n", atomic.LoadInt64(&s.appMetrics.messages))

	fmt.Fprintf(w, "# HELP messages_rejected_total Messages refused (bad request or sender)\n")
	fmt.Fprintf(w, "# TYPE messages_rejected_total counter\n")
	fmt.Fprintf(w, "messages_rejected_total %d\n\n", atomic.LoadInt64(&s.appMetrics.rejected))

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", atomic.LoadInt64(&s.metrics.rateLimitHits))

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", atomic.LoadInt64(&s.metrics.suspiciousRequests))

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.countMessage(false)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Sender = sanitizeInput(req.Sender)
	req.Text = sanitizeInput(req.Text)

	switch {
	case req.Sender == "" || req.Text == "":
		s.countMessage(false)
		writeError(w, http.StatusUnprocessableEntity, "sender and text are required")
		return
	case len(req.Text) > maxMessageLength:
		s.countMessage(false)
		writeError(w, http.StatusRequestEntityTooLarge, "text too long")
		return
	case !s.senderAllowed(ctx, req.Sender):
		s.countMessage(false)
		writeError(w, http.StatusForbidden, "sender not allowed")
		return
	}

	owner := core.NormalizeSender(req.Sender)
	out := s.assistant.Reply(ctx, owner, req.Text)
	s.countMessage(true)
	logger.DebugContext(ctx, "Message answered", log.FieldSender, owner, log.FieldOperation, log.OpReply)
	writeJSON(w, http.StatusOK, toResponse(out))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if !s.senderAllowed(r.Context(), r.URL.Query().Get("sender")) {
		writeError(w, http.StatusForbidden, "sender not allowed")
		return
	}
	if s.categories == nil {
		writeJSON(w, http.StatusOK, core.DefaultCategories())
		return
	}
	writeJSON(w, http.StatusOK, s.categories.Categories(r.Context()))
}

type categoryRequest struct {
	Sender string `json:"sender"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.senderAllowed(ctx, req.Sender) {
		writeError(w, http.StatusForbidden, "sender not allowed")
		return
	}
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	name := sanitizeInput(req.Name)

	if err := s.assistant.AddCategory(ctx, typ, name); err != nil {
		if errors.Is(err, core.ErrEmptyCategory) || errors.Is(err, core.ErrInvalidType) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.LogError(ctx, "Failed to add category", err, log.OpRecord, log.FieldCategory, name)
		writeError(w, http.StatusInternalServerError, "could not add category")
		return
	}
	log.FromContext(ctx).InfoContext(ctx, "Category added", log.FieldTxType, string(typ), log.FieldCategory, name)
	writeJSON(w, http.StatusCreated, map[string]string{"type": string(typ), "name": name})
}

// senderAllowed applies the allow-list. With no ALLOWED_SENDER configured
// every sender is rejected.
func (s *Server) senderAllowed(ctx context.Context, sender string) bool {
	if core.SenderAllowed(sender, s.allowedSender) {
		return true
	}
	log.FromContext(ctx).WarnContext(ctx, "Request from sender not allowed", log.FieldSender, sanitizeInput(sender))
	return false
}
