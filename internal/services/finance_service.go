package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/ai"
	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

const (
	// HistorySize is how many recent records are shown to the classifier.
	HistorySize = 20

	insightsTTL   = 10 * time.Minute
	chartsTTL     = 5 * time.Minute
	cacheCapacity = 500
)

// EventPublisher announces committed writes. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, e *amqp.Event) error
}

// Narrow views of the AI components so tests can substitute them.
type (
	Categorizer interface {
		Classify(ctx context.Context, description string, amount core.Money, history []ai.HistoryEntry) ai.Prediction
	}
	TransactionParser interface {
		Parse(ctx context.Context, text string) (*ai.ParsedTransaction, bool)
	}
	InsightGenerator interface {
		Generate(ctx context.Context, in ai.InsightInput) []string
	}
	BudgetAdvisor interface {
		Recommend(ctx context.Context, history []ai.CategorySpend) []ai.Recommendation
	}
)

// Options wires a FinanceService. Store is required; a nil Events disables
// publishing and nil AI components disable the features that need them.
type Options struct {
	Store       store.Store
	Events      EventPublisher
	Classifier  Categorizer
	Parser      TransactionParser
	Insights    InsightGenerator
	Recommender BudgetAdvisor
	Now         func() time.Time
}

// FinanceService implements every user-facing operation on top of the store.
// All methods reject a nil user with core.ErrUnauthorized before touching
// the store.
type FinanceService struct {
	store       store.Store
	events      EventPublisher
	classifier  Categorizer
	parser      TransactionParser
	insights    InsightGenerator
	recommender BudgetAdvisor
	now         func() time.Time

	insightCache *cache.UserCache[[]string]
	chartCache   *cache.UserCache[[]byte]
}

func NewFinanceService(opts Options) *FinanceService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &FinanceService{
		store:        opts.Store,
		events:       opts.Events,
		classifier:   opts.Classifier,
		parser:       opts.Parser,
		insights:     opts.Insights,
		recommender:  opts.Recommender,
		now:          now,
		insightCache: cache.NewUserCache[[]string](cacheCapacity, insightsTTL),
		chartCache:   cache.NewUserCache[[]byte](cacheCapacity, chartsTTL),
	}
}

// Caches exposes the service caches so the caller can register them for
// periodic cleanup.
func (s *FinanceService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.insightCache, s.chartCache}
}

// Ping reports whether the store is reachable, when it can tell.
func (s *FinanceService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the store.
func (s *FinanceService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *FinanceService) today() core.Date {
	return core.DateOf(s.now())
}

func requireUser(user *core.User) error {
	if user == nil || user.ID == "" {
		return core.ErrUnauthorized
	}
	return nil
}

// storeError passes through not-found and validation errors and wraps
// anything else as a backend failure.
func storeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrValidation) {
		return err
	}
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogError(ctx, "Store operation failed", err, applog.ComponentStorage, op, applog.NewFields())
	return fmt.Errorf("%s: %w: %w", op, core.ErrBackend, err)
}

// publish never fails the request: the write is already committed.
func (s *FinanceService) publish(ctx context.Context, e *amqp.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"type", e.Type,
			"id", e.ID,
			"error", err)
	}
}

// invalidate drops cached insights and charts after a write by userID.
func (s *FinanceService) invalidate(userID string) {
	s.insightCache.InvalidateUser(userID)
	s.chartCache.InvalidateUser(userID)
}
