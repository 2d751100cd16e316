// Package auth turns an incoming request into the application user.
//
// fintrack does not handle credentials itself. In production it sits behind
// an authenticating reverse proxy (oauth2-proxy, Cloudflare Access, ...)
// that forwards the user's identity in headers; in development a fixed user
// is used.
package auth

import (
	"net/http"
	"strings"

	"fintrack/internal/config"
	"fintrack/internal/core"
)

// Identity headers set by the authenticating proxy.
const (
	HeaderUser      = "X-Forwarded-User"
	HeaderEmail     = "X-Forwarded-Email"
	HeaderFirstName = "X-Forwarded-Given-Name"
	HeaderLastName  = "X-Forwarded-Family-Name"
	HeaderPicture   = "X-Forwarded-Picture"
)

// Provider identifies the caller of a request. It returns nil when the
// request is anonymous.
type Provider interface {
	Identify(r *http.Request) *core.User
}

// ProxyChecker reports whether a request came through a trusted proxy.
// *security.Detector implements it.
type ProxyChecker interface {
	FromTrustedProxy(r *http.Request) bool
}

// ProxyProvider reads identity headers, but only from trusted proxies;
// anyone else could set them.
type ProxyProvider struct {
	proxies ProxyChecker
}

func NewProxyProvider(proxies ProxyChecker) *ProxyProvider {
	return &ProxyProvider{proxies: proxies}
}

func (p *ProxyProvider) Identify(r *http.Request) *core.User {
	id := strings.TrimSpace(r.Header.Get(HeaderUser))
	if id == "" || !p.proxies.FromTrustedProxy(r) {
		return nil
	}
	return &core.User{
		ID:        id,
		Email:     strings.TrimSpace(r.Header.Get(HeaderEmail)),
		FirstName: strings.TrimSpace(r.Header.Get(HeaderFirstName)),
		LastName:  strings.TrimSpace(r.Header.Get(HeaderLastName)),
		ImageURL:  strings.TrimSpace(r.Header.Get(HeaderPicture)),
	}
}

// DevProvider authenticates every request as one fixed user.
type DevProvider struct {
	user core.User
}

func NewDevProvider(id, email string) *DevProvider {
	return &DevProvider{user: core.User{ID: id, Email: email, FirstName: "Dev"}}
}

func (p *DevProvider) Identify(*http.Request) *core.User {
	u := p.user
	return &u
}

// NewProvider selects the provider for AUTH_MODE.
func NewProvider(cfg *config.Config, proxies ProxyChecker) Provider {
	if cfg.AuthMode == config.AuthModeDev {
		return NewDevProvider(cfg.DevUserID, cfg.DevUserEmail)
	}
	return NewProxyProvider(proxies)
}
