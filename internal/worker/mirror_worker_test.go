package worker

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

type fakeMirror struct {
	calls []string
	err   error
}

func (f *fakeMirror) AppendRecord(_ context.Context, r core.Record) error {
	f.calls = append(f.calls, "append:"+r.ID+":"+r.Amount.String())
	return f.err
}

func (f *fakeMirror) RemoveRecord(_ context.Context, userID, id string) error {
	f.calls = append(f.calls, "remove-record:"+userID+":"+id)
	return f.err
}

func (f *fakeMirror) PutBudget(_ context.Context, b core.Budget) error {
	f.calls = append(f.calls, "put-budget:"+b.ID+":"+b.Category)
	return f.err
}

func (f *fakeMirror) RemoveBudget(_ context.Context, userID, id string) error {
	f.calls = append(f.calls, "remove-budget:"+userID+":"+id)
	return f.err
}

func TestMirrorWorker_Handle(t *testing.T) {
	record := core.Record{
		ID:          "r1",
		UserID:      "u1",
		Description: "Lunch",
		Amount:      core.Money{Cents: -1200},
		Category:    "Food",
		Date:        core.NewDate(2024, 3, 4),
	}
	budget := core.Budget{ID: "b1", UserID: "u1", Category: "Food", Limit: core.Money{Cents: 20000}, Month: 3, Year: 2024}

	tests := []struct {
		name  string
		event *amqp.Event
		want  string
	}{
		{"record created", amqp.NewRecordCreated(record), "append:r1:-12.00"},
		{"record deleted", amqp.NewDeleted(amqp.EventRecordDeleted, "u1", "r1"), "remove-record:u1:r1"},
		{"budget set", amqp.NewBudgetSet(budget), "put-budget:b1:Food"},
		{"budget deleted", amqp.NewDeleted(amqp.EventBudgetDeleted, "u1", "b1"), "remove-budget:u1:b1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMirror{}
			if err := NewMirrorWorker(m).Handle(context.Background(), tt.event); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if len(m.calls) != 1 || m.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", m.calls, tt.want)
			}
		})
	}
}

func TestMirrorWorker_MirrorFailureRequeues(t *testing.T) {
	m := &fakeMirror{err: errors.New("quota exceeded")}
	err := NewMirrorWorker(m).Handle(context.Background(), amqp.NewDeleted(amqp.EventRecordDeleted, "u1", "r1"))
	if err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}

func TestMirrorWorker_BadPayloadDropped(t *testing.T) {
	m := &fakeMirror{}
	e := &amqp.Event{
		Type:   amqp.EventRecordCreated,
		UserID: "u1",
		ID:     "r1",
		Record: &amqp.RecordPayload{ID: "r1", Date: "not-a-date"},
	}
	if err := NewMirrorWorker(m).Handle(context.Background(), e); err != nil {
		t.Errorf("Handle() error = %v, want nil", err)
	}
	if len(m.calls) != 0 {
		t.Errorf("calls = %v", m.calls)
	}
}
