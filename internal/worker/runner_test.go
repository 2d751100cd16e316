package worker

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/amqp"
)

type blockingConsumer struct {
	events []*amqp.Event
}

func (c *blockingConsumer) Consume(ctx context.Context, handler func(context.Context, *amqp.Event) error) error {
	for _, e := range c.events {
		if err := handler(ctx, e); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunner_Lifecycle(t *testing.T) {
	handled := make(chan string, 2)
	consumer := &blockingConsumer{events: []*amqp.Event{
		amqp.NewDeleted(amqp.EventRecordDeleted, "u1", "r1"),
		amqp.NewDeleted(amqp.EventBudgetDeleted, "u1", "b1"),
	}}
	r := NewRunner(consumer, func(_ context.Context, e *amqp.Event) error {
		handled <- e.ID
		return nil
	})

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := r.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}

	for _, want := range []string{"r1", "b1"} {
		select {
		case got := <-handled:
			if got != want {
				t.Errorf("handled %q, want %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatal("event not handled")
		}
	}

	if !r.IsRunning() {
		t.Error("runner should be running")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if r.IsRunning() {
		t.Error("runner should be stopped")
	}
	if err := r.Stop(stopCtx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
