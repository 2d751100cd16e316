package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

type EventType string

const (
	EventRecordCreated EventType = "record.created"
	EventRecordDeleted EventType = "record.deleted"
	EventBudgetSet     EventType = "budget.set"
	EventBudgetDeleted EventType = "budget.deleted"
)

// RecordPayload is the record snapshot carried by record.created.
type RecordPayload struct {
	ID           string    `json:"id"`
	Description  string    `json:"description"`
	AmountCents  int64     `json:"amount_cents"`
	Category     string    `json:"category"`
	Date         string    `json:"date"`
	AICategory   string    `json:"ai_category,omitempty"`
	AIConfidence float64   `json:"ai_confidence,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type BudgetPayload struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	LimitCents int64  `json:"limit_cents"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

// Event is published after a write has been committed. Deletions carry only
// the entity ID.
type Event struct {
	Type      EventType      `json:"type"`
	UserID    string         `json:"user_id"`
	ID        string         `json:"id"`
	Record    *RecordPayload `json:"record,omitempty"`
	Budget    *BudgetPayload `json:"budget,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewRecordCreated(r core.Record) *Event {
	return &Event{
		Type:   EventRecordCreated,
		UserID: r.UserID,
		ID:     r.ID,
		Record: &RecordPayload{
			ID:           r.ID,
			Description:  r.Description,
			AmountCents:  r.Amount.Cents,
			Category:     r.Category,
			Date:         r.Date.String(),
			AICategory:   r.AICategory,
			AIConfidence: r.AIConfidence,
			CreatedAt:    r.CreatedAt,
		},
		Timestamp: time.Now(),
	}
}

func NewBudgetSet(b core.Budget) *Event {
	return &Event{
		Type:   EventBudgetSet,
		UserID: b.UserID,
		ID:     b.ID,
		Budget: &BudgetPayload{
			ID:         b.ID,
			Category:   b.Category,
			LimitCents: b.Limit.Cents,
			Month:      b.Month,
			Year:       b.Year,
		},
		Timestamp: time.Now(),
	}
}

// RecordValue rebuilds the committed record carried by a record.created event.
func (e *Event) RecordValue() (core.Record, error) {
	if e.Record == nil {
		return core.Record{}, errors.New("event has no record")
	}
	date, err := core.ParseDate(e.Record.Date)
	if err != nil {
		return core.Record{}, err
	}
	return core.Record{
		ID:           e.Record.ID,
		UserID:       e.UserID,
		Description:  e.Record.Description,
		Amount:       core.Money{Cents: e.Record.AmountCents},
		Category:     e.Record.Category,
		Date:         date,
		CreatedAt:    e.Record.CreatedAt,
		AICategory:   e.Record.AICategory,
		AIConfidence: e.Record.AIConfidence,
	}, nil
}

// BudgetValue rebuilds the budget carried by a budget.set event.
func (e *Event) BudgetValue() (core.Budget, error) {
	if e.Budget == nil {
		return core.Budget{}, errors.New("event has no budget")
	}
	return core.Budget{
		ID:        e.Budget.ID,
		UserID:    e.UserID,
		Category:  e.Budget.Category,
		Limit:     core.Money{Cents: e.Budget.LimitCents},
		Month:     e.Budget.Month,
		Year:      e.Budget.Year,
		UpdatedAt: e.Timestamp,
	}, nil
}

// NewDeleted builds a record.deleted or budget.deleted event.
func NewDeleted(t EventType, userID, id string) *Event {
	return &Event{Type: t, UserID: userID, ID: id, Timestamp: time.Now()}
}

// Validate rejects events a consumer cannot act on.
func (e *Event) Validate() error {
	if e.UserID == "" || e.ID == "" {
		return errors.New("event without user or entity id")
	}
	switch e.Type {
	case EventRecordCreated:
		if e.Record == nil {
			return errors.New("record.created without record")
		}
	case EventBudgetSet:
		if e.Budget == nil {
			return errors.New("budget.set without budget")
		}
	case EventRecordDeleted, EventBudgetDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes and validates an event.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
