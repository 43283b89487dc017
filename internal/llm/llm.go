// Package llm is the remote classification collaborator: a text-in/text-out
// completion call backed by Anthropic or Gemini.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderNone      = "none"
)

var ErrDisabled = errors.New("remote classification disabled")

// Completer sends one prompt and returns the raw model text.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config selects and tunes a provider.
type Config struct {
	Provider        string
	AnthropicAPIKey string
	GeminiAPIKey    string
	Model           string
	Timeout         time.Duration
}

// New builds the configured Completer, wrapped with the per-call timeout.
func New(ctx context.Context, cfg Config) (Completer, error) {
	var (
		c   Completer
		err error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		c, err = NewAnthropic(cfg.AnthropicAPIKey, cfg.Model)
	case ProviderGemini:
		c, err = NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
	case ProviderNone, "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithTimeout(c, cfg.Timeout), nil
}

// Disabled fails every call so that callers take their fallback path.
type Disabled struct{}

func (Disabled) Complete(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}

type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

// WithTimeout bounds each Complete call; d <= 0 leaves c unchanged.
func WithTimeout(c Completer, d time.Duration) Completer {
	if d <= 0 {
		return c
	}
	return timeoutCompleter{next: c, timeout: d}
}

func (t timeoutCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, system, prompt)
}

// ExtractJSON returns the outermost {...} of a model reply, dropping markdown
// fences and chatter around it. The second result is false when there is none.
func ExtractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}
