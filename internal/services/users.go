package services

import (
	"context"
	"log/slog"
	"strings"

	"fintrack/internal/core"
)

// SyncUser records the authenticated identity, creating the user on first
// sight and refreshing profile fields afterwards.
func (s *FinanceService) SyncUser(ctx context.Context, identity *core.User) (*core.User, error) {
	if err := requireUser(identity); err != nil {
		return nil, err
	}

	u := *identity
	u.Email = strings.TrimSpace(u.Email)
	saved, err := s.store.UpsertUser(ctx, u)
	if err != nil {
		return nil, storeError(ctx, "sync user", err)
	}

	slog.DebugContext(ctx, "User synced", "user_id", saved.ID)
	return &saved, nil
}
