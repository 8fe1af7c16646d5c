package openauth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/openauth/pkg/cookie"
	"github.com/dmitrymomot/openauth/pkg/logger"
	"github.com/dmitrymomot/openauth/pkg/oauth"
	"github.com/dmitrymomot/openauth/pkg/uri"
)

// Query arguments the Manager adds to the return URL. Every argument starting
// with ReservedPrefix is owned by the Manager and stripped from caller URLs.
const (
	ReservedPrefix   = "__"
	ProviderQueryKey = oauth.ProviderQueryKey
	SessionQueryKey  = "__sid__"
)

// DefaultCookieName is the name of the correlation cookie.
const DefaultCookieName = "__oa_sid"

const (
	defaultCorrelationTTL = 10 * time.Minute
	defaultBasePath       = "/auth"
)

// Manager drives logins against a set of registered providers.
type Manager struct {
	providers  map[string]oauth.Provider
	names      []string
	pending    []oauth.Provider
	cookies    *cookie.Manager
	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    *metrics
	onSuccess  SuccessHandler
	onFailure  FailureHandler
	baseURL    *url.URL
	newID      func() string
	now        func() time.Time
	cookieName string
	basePath   string
	ttl        time.Duration
}

// New creates a Manager.
// At least one provider and a signing secret (WithSecret or WithCookieManager)
// are required.
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		providers:  make(map[string]oauth.Provider),
		logger:     logger.NewNope(),
		registerer: prometheus.DefaultRegisterer,
		onSuccess:  defaultSuccessHandler,
		onFailure:  defaultFailureHandler,
		newID:      uuid.NewString,
		now:        time.Now,
		cookieName: DefaultCookieName,
		basePath:   defaultBasePath,
		ttl:        defaultCorrelationTTL,
	}
	for _, opt := range opts {
		opt(m)
	}

	if len(m.pending) == 0 {
		return nil, ErrNoProviders
	}
	for _, p := range m.pending {
		name := p.Name()
		if _, exists := m.providers[name]; exists {
			return nil, errors.Join(ErrDuplicateProvider, fmt.Errorf("provider %q", name))
		}
		m.providers[name] = p
		m.names = append(m.names, name)
	}
	m.pending = nil
	slices.Sort(m.names)

	if m.cookies == nil || !m.cookies.CanSign() {
		return nil, ErrNoCookieSecret
	}

	met, err := newMetrics(m.registerer)
	if err != nil {
		return nil, fmt.Errorf("openauth: register metrics: %w", err)
	}
	m.metrics = met

	return m, nil
}

// Providers returns the registered provider names in sorted order.
func (m *Manager) Providers() []string {
	return slices.Clone(m.names)
}

// Provider returns the provider registered under name.
func (m *Manager) Provider(name string) (oauth.Provider, bool) {
	p, ok := m.providers[name]
	return p, ok
}

// RequestAuthentication starts a login with the named provider and redirects
// the user agent to it.
//
// returnURL is the absolute URL the provider sends the user back to; it must
// be the URL later passed to VerifyAuthentication. Query arguments starting
// with ReservedPrefix are replaced by the provider name and a fresh login
// attempt id, which is also stored in a signed cookie.
//
// Nothing is written to w when an error is returned.
func (m *Manager) RequestAuthentication(w http.ResponseWriter, r *http.Request, provider string, returnURL *url.URL) error {
	p, ok := m.providers[provider]
	if !ok {
		return errors.Join(ErrUnknownProvider, fmt.Errorf("provider %q", provider))
	}
	if returnURL == nil || !returnURL.IsAbs() {
		return oauth.ErrInvalidReturnURL
	}

	sid := m.newID()
	target, err := oauth.BeginLogin(p, m.correlatedURL(returnURL, provider, sid))
	if err != nil {
		return err
	}

	if err := m.cookies.SetSigned(w, m.cookieName, correlationValue(provider, sid, m.now()), m.cookieMaxAge()); err != nil {
		return err
	}

	ctx := logger.WithProvider(logger.WithLoginAttempt(r.Context(), sid), provider)
	m.logger.InfoContext(ctx, "login started", slog.String("provider", provider))

	http.Redirect(w, r, target, http.StatusFound)
	return nil
}

// VerifyAuthentication completes the login the current request is the
// callback of. returnURL must be the URL passed to RequestAuthentication.
//
// The correlation cookie is consumed. Every failure yields a Result with
// Succeeded == false; the error is a diagnostic for logs.
func (m *Manager) VerifyAuthentication(w http.ResponseWriter, r *http.Request, returnURL *url.URL) (oauth.Result, error) {
	return m.verify(w, r, func(url.Values) *url.URL { return returnURL })
}

// verify runs the callback. returnURLFor receives the callback query after
// every CallbackRewriter ran and returns the URL used at login.
func (m *Manager) verify(w http.ResponseWriter, r *http.Request, returnURLFor func(url.Values) *url.URL) (oauth.Result, error) {
	start := m.now()
	query := m.rewriteCallback(r.URL.Query())

	name := query.Get(ProviderQueryKey)
	sid := query.Get(SessionQueryKey)
	ctx := logger.WithProvider(logger.WithLoginAttempt(r.Context(), sid), name)

	res, err := func() (oauth.Result, error) {
		// The cookie is single use whatever the outcome.
		stored, popErr := m.cookies.PopSigned(w, r, m.cookieName)

		p, ok := m.providers[name]
		if !ok {
			return oauth.Failed(name), errors.Join(ErrUnknownProvider, fmt.Errorf("provider %q", name))
		}
		if popErr != nil {
			return oauth.Failed(name), errors.Join(ErrCorrelationMismatch, popErr)
		}
		if err := m.checkCorrelation(stored, name, sid); err != nil {
			return oauth.Failed(name), err
		}

		returnURL := returnURLFor(query)
		if returnURL == nil || !returnURL.IsAbs() {
			return oauth.Failed(name), oauth.ErrInvalidReturnURL
		}
		return oauth.CompleteLogin(ctx, p, query, m.correlatedURL(returnURL, name, sid))
	}()

	label := name
	if _, ok := m.providers[name]; !ok {
		label = unknownProviderLabel
	}
	m.metrics.observe(label, outcomeOf(err), m.now().Sub(start))

	if err != nil {
		m.logger.WarnContext(ctx, "login failed",
			slog.String("provider", name),
			slog.String("outcome", outcomeOf(err)),
			slog.Any("error", err),
		)
		return res, err
	}

	m.logger.InfoContext(ctx, "login succeeded",
		slog.String("provider", res.Provider),
		slog.String("user_id", res.ProviderUserID),
	)
	return res, nil
}

// rewriteCallback gives every registered CallbackRewriter a chance to restore
// the callback query. The first one that changes it wins.
func (m *Manager) rewriteCallback(query url.Values) url.Values {
	for _, name := range m.names {
		rw, ok := m.providers[name].(oauth.CallbackRewriter)
		if !ok {
			continue
		}
		if rewritten, changed := rw.RewriteCallback(query); changed {
			return rewritten
		}
	}
	return query
}

// correlatedURL returns returnURL with its reserved arguments replaced by the
// provider name and the login attempt id.
func (m *Manager) correlatedURL(returnURL *url.URL, provider, sid string) *url.URL {
	clean := uri.StripQueryArgsWithPrefix(returnURL, ReservedPrefix)
	return uri.AppendQueryArgs(clean,
		uri.Pair{Key: ProviderQueryKey, Value: provider},
		uri.Pair{Key: SessionQueryKey, Value: sid},
	)
}

// correlationValue is the signed cookie payload: provider|sid|issued-at in
// Unix milliseconds.
func correlationValue(provider, sid string, issued time.Time) string {
	return provider + "|" + sid + "|" + strconv.FormatInt(issued.UnixMilli(), 10)
}

// checkCorrelation verifies that stored was issued for provider and sid and
// is not older than the correlation TTL.
func (m *Manager) checkCorrelation(stored, provider, sid string) error {
	i := strings.LastIndexByte(stored, '|')
	if sid == "" || i < 0 || stored[:i] != provider+"|"+sid {
		return ErrCorrelationMismatch
	}

	ms, err := strconv.ParseInt(stored[i+1:], 10, 64)
	if err != nil {
		return errors.Join(ErrCorrelationMismatch, fmt.Errorf("issued-at %q", stored[i+1:]))
	}
	if age := m.now().Sub(time.UnixMilli(ms)); age > m.ttl {
		return errors.Join(ErrCorrelationMismatch, fmt.Errorf("login expired %s ago", (age - m.ttl).Round(time.Second)))
	}
	return nil
}

// cookieMaxAge is the TTL in whole seconds, rounded up and at least 1.
// A zero Max-Age would turn the cookie into a session cookie.
func (m *Manager) cookieMaxAge() int {
	return max(1, int((m.ttl+time.Second-1)/time.Second))
}
