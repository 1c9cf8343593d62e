package reco

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ConsoleHandler is a slog handler that prints single-line records as
// "[date] [attr]... message" without the default key=value noise.
// Writes are serialized with a mutex shared across derived handlers.
type ConsoleHandler struct {
	h   slog.Handler
	mu  *sync.Mutex
	out io.Writer
}

func NewConsoleHandler(o io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &ConsoleHandler{
		out: o,
		h: slog.NewTextHandler(o, &slog.HandlerOptions{
			Level:     opts.Level,
			AddSource: opts.AddSource,
		}),
		mu: &sync.Mutex{},
	}
}

func (h *ConsoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ConsoleHandler{h: h.h.WithAttrs(attrs), out: h.out, mu: h.mu}
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	return &ConsoleHandler{h: h.h.WithGroup(name), out: h.out, mu: h.mu}
}

func (h *ConsoleHandler) Handle(ctx context.Context, r slog.Record) error {
	parts := []string{r.Time.Format("[2006/01/02 15:04:05]")}

	if r.NumAttrs() != 0 {
		r.Attrs(func(a slog.Attr) bool {
			parts = append(parts, fmt.Sprintf("[%s]", a.Value.String()))
			return true
		})
	}
	parts = append(parts, r.Message, "\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.out.Write([]byte(strings.Join(parts, " ")))
	return err
}
