package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Closer flushes buffered records and stops background writers.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// asyncQueue is shared by an AsyncHandler and every handler derived from it
// through WithAttrs or WithGroup.
type asyncQueue struct {
	ch      chan queuedRecord
	wg      sync.WaitGroup
	dropped atomic.Int64
	once    sync.Once
}

type queuedRecord struct {
	handler slog.Handler
	rec     slog.Record
}

// AsyncHandler hands records to a fixed pool of writers so request
// goroutines never block on stdout. When the buffer is full the record is
// dropped and counted.
type AsyncHandler struct {
	inner slog.Handler
	q     *asyncQueue
}

// NewAsyncHandler starts workers writers draining a buffer of size records.
func NewAsyncHandler(inner slog.Handler, size, workers int) *AsyncHandler {
	q := &asyncQueue{ch: make(chan queuedRecord, size)}
	for range workers {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for qr := range q.ch {
				_ = qr.handler.Handle(context.Background(), qr.rec)
			}
		}()
	}
	return &AsyncHandler{inner: inner, q: q}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues a clone of rec. Attributes taken from the context must be
// added before this point; the context does not cross the queue.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.q.ch <- queuedRecord{handler: h.inner, rec: rec.Clone()}:
	default:
		h.q.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), q: h.q}
}

// DroppedCount returns how many records were discarded on a full buffer.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.q.dropped.Load()
}

// Close drains the buffer and waits for the writers. A final warning is
// written synchronously when records were dropped. Close is safe to call
// more than once.
func (h *AsyncHandler) Close() {
	h.q.once.Do(func() {
		close(h.q.ch)
		h.q.wg.Wait()
		if n := h.q.dropped.Load(); n > 0 {
			rec := slog.NewRecord(time.Now(), slog.LevelWarn, "async logger dropped records", 0)
			rec.AddAttrs(slog.Int64("dropped", n))
			_ = h.inner.Handle(context.Background(), rec)
		}
	})
}
