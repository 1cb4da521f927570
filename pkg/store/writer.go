package store

import (
	"context"
	"log/slog"
	"time"

	"terrainwatch/pkg/notify"
)

// HistoryWriter is a notify.Sink that persists events off the alerting path.
type HistoryWriter struct {
	store  AlertStore
	ch     chan notify.Event
	logger *slog.Logger
}

// NewHistoryWriter creates a writer with a bounded queue.
func NewHistoryWriter(s AlertStore, queue int) *HistoryWriter {
	if queue < 1 {
		queue = 1
	}
	return &HistoryWriter{
		store:  s,
		ch:     make(chan notify.Event, queue),
		logger: slog.With("component", "history"),
	}
}

// Publish implements notify.Sink. It never blocks; events are dropped when the queue is full.
func (w *HistoryWriter) Publish(ev notify.Event) {
	select {
	case w.ch <- ev:
	default:
		w.logger.Warn("Alert history queue full, dropping event", "id", ev.ID, "class", ev.Class)
	}
}

// Run writes queued events until ctx is done, then flushes what is left.
func (w *HistoryWriter) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-w.ch:
			w.save(ctx, ev)
		case <-ctx.Done():
			w.flush()
			return nil
		}
	}
}

func (w *HistoryWriter) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-w.ch:
			w.save(ctx, ev)
		default:
			return
		}
	}
}

func (w *HistoryWriter) save(ctx context.Context, ev notify.Event) {
	if err := w.store.SaveAlert(ctx, ev); err != nil {
		w.logger.Error("Failed to persist alert", "id", ev.ID, "error", err)
	}
}
