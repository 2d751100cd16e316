package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/amqp"
)

// Consumer delivers events to a handler until its context ends.
// *amqp.Client implements it.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.Event) error) error
}

// Runner owns the consume loop of the mirror worker.
type Runner struct {
	consumer Consumer
	handler  func(context.Context, *amqp.Event) error

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
	err     error
}

func NewRunner(consumer Consumer, handler func(context.Context, *amqp.Event) error) *Runner {
	return &Runner{consumer: consumer, handler: handler}
}

// Start begins consuming in the background. Returns an error if already running.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("runner is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.doneCh = make(chan struct{})
	r.err = nil

	go r.run(ctx, r.doneCh)

	slog.InfoContext(ctx, "Mirror worker started")
	return nil
}

func (r *Runner) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	err := r.consumer.Consume(ctx, r.handler)
	if err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Consumer exited", "error", err)
	}
	r.mu.Lock()
	r.err = err
	r.running = false
	r.mu.Unlock()
}

// Stop cancels consumption and waits for the loop to exit or ctx to end.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return nil
	}
	cancel, done := r.cancel, r.doneCh
	r.cancel = nil
	r.mu.Unlock()

	cancel()

	select {
	case <-done:
		slog.InfoContext(ctx, "Mirror worker stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}
}

// Done is closed when the consume loop exits. Nil before Start.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doneCh
}

func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Err is the error the last consume loop ended with.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
