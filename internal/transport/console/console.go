// Package console reads messages from a terminal and prints the replies,
// standing in for the chat transport during development.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"carteira/internal/log"
	"carteira/internal/reply"
)

// Replier answers one message.
type Replier interface {
	Reply(ctx context.Context, sender, text string) reply.Reply
}

type Console struct {
	in     io.Reader
	out    io.Writer
	sender string
	logger *log.Logger

	prompt  *color.Color
	text    *color.Color
	caption *color.Color
}

// New reads lines from in as messages from sender and writes replies to out.
func New(in io.Reader, out io.Writer, sender string, logger *log.Logger) *Console {
	if logger == nil {
		logger = log.Discard()
	}
	return &Console{
		in:      in,
		out:     out,
		sender:  sender,
		logger:  logger.WithComponent(log.ComponentConsole),
		prompt:  color.New(color.BgBlue, color.FgWhite),
		text:    color.New(color.FgGreen),
		caption: color.New(color.BgMagenta, color.FgWhite),
	}
}

// Run handles lines until in is exhausted, ctx is done or the user types
// "sair".
func (c *Console) Run(ctx context.Context, r Replier) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
		close(lines)
	}()

	c.logger.InfoContext(ctx, "Console transport ready", log.FieldSender, c.sender)
	for {
		c.prompt.Fprintf(c.out, " %s ", c.sender)
		fmt.Fprint(c.out, " ")

		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out)
				if err := <-errc; err != nil {
					return fmt.Errorf("read console input: %w", err)
				}
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.EqualFold(line, "sair") {
				return nil
			}
			c.print(r.Reply(ctx, c.sender, line))
		}
	}
}

func (c *Console) print(r reply.Reply) {
	switch r := r.(type) {
	case reply.Images:
		for _, img := range r.Items {
			c.caption.Fprintf(c.out, " %s ", img.Caption)
			fmt.Fprintf(c.out, " %s\n", img.Path)
		}
	default:
		c.text.Fprintln(c.out, reply.Plain(r))
	}
	fmt.Fprintln(c.out)
}
