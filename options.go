package openauth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/openauth/pkg/cookie"
	"github.com/dmitrymomot/openauth/pkg/oauth"
)

// Option configures the Manager.
type Option func(*Manager)

// SuccessHandler writes the response for a completed login.
// returnTo is the validated local path passed as "return_url" at login, or "".
type SuccessHandler func(w http.ResponseWriter, r *http.Request, res oauth.Result, returnTo string)

// FailureHandler writes the response for a failed login.
// err is a diagnostic; do not show it to the user.
type FailureHandler func(w http.ResponseWriter, r *http.Request, res oauth.Result, err error)

// WithProviders registers providers. Names must be unique.
func WithProviders(providers ...oauth.Provider) Option {
	return func(m *Manager) {
		for _, p := range providers {
			if p != nil {
				m.pending = append(m.pending, p)
			}
		}
	}
}

// WithCookieManager sets the cookie manager used for the correlation cookie.
// It must be configured with a secret.
func WithCookieManager(c *cookie.Manager) Option {
	return func(m *Manager) {
		if c != nil {
			m.cookies = c
		}
	}
}

// WithSecret builds a cookie manager with default attributes and the given
// signing secret.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		m.cookies = cookie.New(cookie.WithSecret(secret))
	}
}

// WithCookieName overrides the correlation cookie name.
// Defaults to DefaultCookieName.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithLogger sets the logger.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRegisterer sets the Prometheus registerer for login metrics.
// Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registerer = reg
		}
	}
}

// WithCorrelationTTL sets how long a started login stays valid.
// Defaults to 10 minutes.
func WithCorrelationTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithBasePath sets the path the routes are mounted under. It is used to
// build the callback URL from the incoming request.
// Defaults to "/auth".
func WithBasePath(path string) Option {
	return func(m *Manager) {
		if path != "" {
			m.basePath = "/" + strings.Trim(path, "/")
		}
	}
}

// WithBaseURL fixes the scheme and host of the callback URL instead of
// deriving them from the request. The path of u, if any, replaces the base
// path.
func WithBaseURL(u *url.URL) Option {
	return func(m *Manager) {
		if u == nil || u.Host == "" {
			return
		}
		m.baseURL = &url.URL{Scheme: u.Scheme, Host: u.Host}
		if p := strings.Trim(u.Path, "/"); p != "" {
			m.basePath = "/" + p
		}
	}
}

// WithSuccessHandler sets the handler called after a successful login.
func WithSuccessHandler(h SuccessHandler) Option {
	return func(m *Manager) {
		if h != nil {
			m.onSuccess = h
		}
	}
}

// WithFailureHandler sets the handler called after a failed login.
func WithFailureHandler(h FailureHandler) Option {
	return func(m *Manager) {
		if h != nil {
			m.onFailure = h
		}
	}
}
