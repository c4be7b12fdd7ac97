// ABOUTME: Location sampling subscription with clean start and cancel
// ABOUTME: Forwards samples from a Source to a callback on a background goroutine
package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sample is one reading from a location source.
type Sample struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Source produces samples until ctx is cancelled or it runs dry. Watch
// blocks; errors passed to onError are recoverable, a returned error ends
// the subscription.
type Source interface {
	Watch(ctx context.Context, onSample func(Sample), onError func(error)) error
}

// Watcher owns at most one running subscription. Starting a new one cancels
// the previous subscription and waits for it to exit, so no stale callback
// fires after Start or Stop returns.
type Watcher struct {
	mu     sync.Mutex
	source Source
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWatcher(source Source, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{source: source, logger: logger}
}

// Start subscribes to the source. Callbacks must not call Start or Stop.
func (w *Watcher) Start(ctx context.Context, onSample func(Sample), onError func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()
	if w.source == nil {
		return
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done

	deliver := func(s Sample) {
		if subCtx.Err() != nil {
			return
		}
		onSample(s)
	}
	report := func(err error) {
		if subCtx.Err() != nil {
			return
		}
		w.logger.Warn("location source error", zap.Error(err))
		if onError != nil {
			onError(err)
		}
	}

	go func() {
		defer close(done)
		err := w.source.Watch(subCtx, deliver, report)
		if err != nil && !errors.Is(err, context.Canceled) {
			report(err)
		}
		w.logger.Debug("location subscription ended")
	}()
	w.logger.Debug("location subscription started")
}

// Stop cancels the running subscription, if any, and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *Watcher) stopLocked() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
	w.done = nil
}

// Done is closed when the current subscription ends. It is nil, and so
// blocks forever, when nothing was started.
func (w *Watcher) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done == nil {
		return nil
	}
	return w.done
}

// Running reports whether a subscription is active and its source has not
// finished.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done == nil {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}
