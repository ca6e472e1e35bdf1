// Package logger provides structured logging setup for ProposalForge.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Strob0t/ProposalForge/internal/config"
)

const (
	asyncBuffer  = 4096
	asyncWorkers = 2
)

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stdout with a "service" attribute on every record plus the
// request, location and caller ids of the record's context, when present. The returned Closer must
// be closed on shutdown to flush buffered records in async mode.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	return newWithWriter(cfg, os.Stdout)
}

func newWithWriter(cfg config.Logging, w io.Writer) (*slog.Logger, Closer) {
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	var closer Closer = nopCloser{}
	if cfg.Async {
		ah := NewAsyncHandler(handler, asyncBuffer, asyncWorkers)
		handler, closer = ah, ah
	}

	// Request fields are read before records cross the async queue.
	handler = &contextHandler{inner: handler}

	return slog.New(handler).With("service", cfg.Service), closer
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler stamps the request fields of the record's context.
type contextHandler struct {
	inner slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	f := fieldsFrom(ctx)
	if f.requestID != "" {
		rec.AddAttrs(slog.String("request_id", f.requestID))
	}
	if f.locationID != "" {
		rec.AddAttrs(slog.String("location_id", f.locationID))
	}
	if f.callerID != "" {
		rec.AddAttrs(slog.String("caller_id", f.callerID))
	}
	return h.inner.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name)}
}
