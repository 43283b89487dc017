// Package reply builds the messages the bot sends back: plain text, or a
// bundle of rendered images with captions.
package reply

import "strings"

// Reply is either Text or Images.
type Reply interface {
	isReply()
}

type Text struct {
	Body string `json:"body"`
}

// Image points at a rendered file on disk.
type Image struct {
	Path    string `json:"path"`
	Caption string `json:"caption"`
}

type Images struct {
	Items []Image `json:"items"`
}

func (Text) isReply()   {}
func (Images) isReply() {}

// Plain flattens r for transports that cannot send images: one caption and
// path per line.
func Plain(r Reply) string {
	switch r := r.(type) {
	case Text:
		return r.Body
	case Images:
		lines := make([]string, 0, len(r.Items))
		for _, img := range r.Items {
			lines = append(lines, img.Caption+": "+img.Path)
		}
		return strings.Join(lines, "\n")
	}
	return ""
}
