package openauth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/openauth/pkg/oauth"
	"github.com/dmitrymomot/openauth/pkg/uri"
)

// ReturnURLQueryKey is the login query argument naming the local path to go
// to after the callback.
const ReturnURLQueryKey = "return_url"

// CallbackPath is the callback route relative to the base path.
const CallbackPath = "/callback"

// Routes registers the login and callback routes on r:
//
//	GET /callback    completes a login
//	GET /{provider}  starts a login, optional ?return_url=/local/path
func (m *Manager) Routes(r chi.Router) {
	r.Get(CallbackPath, m.handleCallback)
	r.Get("/{provider}", m.handleLogin)
}

// Handler returns a router serving Routes, ready to be mounted under the base
// path.
func (m *Manager) Handler() http.Handler {
	r := chi.NewRouter()
	m.Routes(r)
	return r
}

func (m *Manager) handleLogin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	returnTo := safeReturnPath(r.URL.Query().Get(ReturnURLQueryKey))

	err := m.RequestAuthentication(w, r, provider, m.callbackURL(r, returnTo))
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownProvider):
		http.NotFound(w, r)
	default:
		m.logger.ErrorContext(r.Context(), "login start failed",
			slog.String("provider", provider),
			slog.Any("error", err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (m *Manager) handleCallback(w http.ResponseWriter, r *http.Request) {
	var returnTo string
	res, err := m.verify(w, r, func(query url.Values) *url.URL {
		returnTo = safeReturnPath(query.Get(ReturnURLQueryKey))
		return m.callbackURL(r, returnTo)
	})
	if err != nil {
		m.onFailure(w, r, res, err)
		return
	}
	m.onSuccess(w, r, res, returnTo)
}

// callbackURL builds the absolute callback URL for r. Scheme and host come
// from WithBaseURL when set, otherwise from the request.
func (m *Manager) callbackURL(r *http.Request, returnTo string) *url.URL {
	u := &url.URL{Scheme: "http", Host: r.Host, Path: m.basePath + CallbackPath}
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		u.Scheme = "https"
	}
	if m.baseURL != nil {
		u.Scheme = m.baseURL.Scheme
		u.Host = m.baseURL.Host
	}
	if returnTo != "" {
		u.RawQuery = uri.BuildQueryString(uri.Pair{Key: ReturnURLQueryKey, Value: returnTo})
	}
	return u
}

// safeReturnPath returns p if it is a local absolute path, "" otherwise.
func safeReturnPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return ""
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return p
}

type loginResponse struct {
	Provider string `json:"provider"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	ReturnTo string `json:"return_to,omitempty"`
}

func defaultSuccessHandler(w http.ResponseWriter, _ *http.Request, res oauth.Result, returnTo string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(loginResponse{
		Provider: res.Provider,
		UserID:   res.ProviderUserID,
		UserName: res.UserName,
		ReturnTo: returnTo,
	})
}

func defaultFailureHandler(w http.ResponseWriter, _ *http.Request, _ oauth.Result, _ error) {
	w.Header().Set("Cache-Control", "no-store")
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}
