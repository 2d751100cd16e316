package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/middleware/security"
)

func TestProxyProvider(t *testing.T) {
	p := NewProxyProvider(security.NewDetector())

	tests := []struct {
		name       string
		remoteAddr string
		user       string
		wantID     string
	}{
		{"trusted proxy", "127.0.0.1:4000", "alice", "alice"},
		{"untrusted peer", "203.0.113.5:4000", "alice", ""},
		{"no header", "127.0.0.1:4000", "", ""},
		{"blank header", "10.1.2.3:4000", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.user != "" {
				r.Header.Set(HeaderUser, tt.user)
				r.Header.Set(HeaderEmail, " alice@example.com ")
			}
			u := p.Identify(r)
			if tt.wantID == "" {
				if u != nil {
					t.Fatalf("Identify() = %+v, want nil", u)
				}
				return
			}
			if u == nil || u.ID != tt.wantID || u.Email != "alice@example.com" {
				t.Fatalf("Identify() = %+v", u)
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	cfg := &config.Config{AuthMode: config.AuthModeDev, DevUserID: "dev", DevUserEmail: "dev@localhost"}
	u := NewProvider(cfg, security.NewDetector()).Identify(httptest.NewRequest(http.MethodGet, "/", nil))
	if u == nil || u.ID != "dev" {
		t.Fatalf("dev provider user = %+v", u)
	}
	u.ID = "mutated"
	if again := NewDevProvider("dev", "").Identify(nil); again.ID != "dev" {
		t.Error("dev provider must hand out copies")
	}

	cfg.AuthMode = config.AuthModeProxy
	if _, ok := NewProvider(cfg, security.NewDetector()).(*ProxyProvider); !ok {
		t.Error("proxy mode should build a ProxyProvider")
	}
}

type fakeSyncer struct {
	calls int
	err   error
}

func (f *fakeSyncer) SyncUser(_ context.Context, identity *core.User) (*core.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u := *identity
	u.FirstName = "Synced"
	return &u, nil
}

func TestMiddleware(t *testing.T) {
	var got *core.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserFromContext(r.Context())
	})

	syncer := &fakeSyncer{}
	h := Middleware(NewDevProvider("u1", "u1@example.com"), syncer)(next)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got == nil || got.ID != "u1" || got.FirstName != "Synced" {
		t.Fatalf("user in context = %+v", got)
	}
	if syncer.calls != 1 {
		t.Errorf("SyncUser calls = %d", syncer.calls)
	}

	got = nil
	anon := Middleware(NewProxyProvider(security.NewDetector()), syncer)(next)
	anon.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != nil {
		t.Errorf("anonymous request got user %+v", got)
	}
	if syncer.calls != 1 {
		t.Error("anonymous requests must not be synced")
	}
}

func TestMiddlewareSyncFailure(t *testing.T) {
	called := false
	h := Middleware(NewDevProvider("u1", ""), &fakeSyncer{err: errors.New("db down")})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError || called {
		t.Errorf("status = %d, handler called = %v", rec.Code, called)
	}
}
