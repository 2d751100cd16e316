// Package memory is an in-process store used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu      sync.Mutex
	records map[string]core.Record
	budgets map[string]core.Budget // by store.BudgetKey
	users   map[string]core.User
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		records: map[string]core.Record{},
		budgets: map[string]core.Budget{},
		users:   map[string]core.User{},
		now:     time.Now,
	}
}

// NewWithRecords returns a store pre-populated with records, mostly for tests.
func NewWithRecords(rs ...core.Record) *Store {
	s := New()
	for _, r := range rs {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		s.records[r.ID] = r
	}
	return s
}

func (s *Store) CreateRecord(_ context.Context, r core.Record) (core.Record, error) {
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.records[r.ID] = r
	return r, nil
}

func (s *Store) GetRecord(_ context.Context, userID, id string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok || r.UserID != userID {
		return core.Record{}, core.ErrNotFound
	}
	return r, nil
}

func (s *Store) DeleteRecord(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok || r.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *Store) ListRecords(_ context.Context, userID string, f store.RecordFilter) ([]core.Record, error) {
	s.mu.Lock()
	out := make([]core.Record, 0, len(s.records))
	for _, r := range s.records {
		if r.UserID == userID && f.Match(r) {
			out = append(out, r)
		}
	}
	s.mu.Unlock()

	store.SortRecords(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	key := store.BudgetKey(b)
	if existing, ok := s.budgets[key]; ok {
		existing.Limit = b.Limit
		existing.UpdatedAt = now
		s.budgets[key] = existing
		return existing, nil
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt, b.UpdatedAt = now, now
	s.budgets[key] = b
	return b, nil
}

// ListBudgets returns budgets in creation order.
func (s *Store) ListBudgets(_ context.Context, userID string, month, year int) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID && b.Month == month && b.Year == year {
			out = append(out, b)
		}
	}
	sortBudgets(out)
	return out, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, b := range s.budgets {
		if b.ID == id && b.UserID == userID {
			delete(s.budgets, key)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) UpsertUser(_ context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		return core.User{}, core.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[u.ID]; ok {
		u.CreatedAt = existing.CreatedAt
	} else {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) Close() error { return nil }

func sortBudgets(bs []core.Budget) {
	sort.Slice(bs, func(i, j int) bool {
		if !bs[i].CreatedAt.Equal(bs[j].CreatedAt) {
			return bs[i].CreatedAt.Before(bs[j].CreatedAt)
		}
		return bs[i].Category < bs[j].Category
	})
}
