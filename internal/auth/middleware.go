package auth

import (
	"context"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

type contextKey struct{}

// Syncer records an identity as a user. *services.FinanceService implements it.
type Syncer interface {
	SyncUser(ctx context.Context, identity *core.User) (*core.User, error)
}

// Middleware identifies the caller and syncs the user before the handler
// runs. Anonymous requests pass through without a user; the service layer
// rejects them where a user is required.
func Middleware(provider Provider, syncer Syncer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := provider.Identify(r)
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			user, err := syncer.SyncUser(ctx, identity)
			if err != nil {
				applog.FromContext(ctx).WithComponent(applog.ComponentAuth).
					ErrorContext(ctx, "Failed to sync user", applog.FieldUserID, identity.ID, applog.FieldError, err)
				http.Error(w, "Failed to load user", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *core.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *core.User {
	u, _ := ctx.Value(contextKey{}).(*core.User)
	return u
}
