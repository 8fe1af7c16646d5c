package openauth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/openauth"
	"github.com/dmitrymomot/openauth/pkg/oauth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// providerServer fakes the GitHub and Google token and profile endpoints.
type providerServer struct {
	*httptest.Server

	mu           sync.Mutex
	redirectURIs []string
}

func newProviderServer(t *testing.T) *providerServer {
	t.Helper()

	ps := &providerServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/github/token", func(w http.ResponseWriter, r *http.Request) {
		ps.record(r.URL.Query().Get("redirect_uri"))
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte("access_token=gh-token&token_type=bearer"))
	})
	mux.HandleFunc("/github/user", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "gh-token" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"login":"octocat","name":"The Octocat"}`))
	})
	mux.HandleFunc("/google/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		ps.record(r.PostForm.Get("redirect_uri"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"g-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/google/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1089","name":"Jane Doe","email":"jane@example.com","verified_email":true}`))
	})

	ps.Server = httptest.NewServer(mux)
	t.Cleanup(ps.Close)
	return ps
}

func (ps *providerServer) record(redirectURI string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.redirectURIs = append(ps.redirectURIs, redirectURI)
}

func (ps *providerServer) lastRedirectURI() string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if len(ps.redirectURIs) == 0 {
		return ""
	}
	return ps.redirectURIs[len(ps.redirectURIs)-1]
}

func (ps *providerServer) github(t *testing.T) *oauth.GitHubProvider {
	t.Helper()
	p, err := oauth.NewGitHubProvider(oauth.GitHubConfig{
		ClientID:     "gh-id",
		ClientSecret: "gh-secret",
		AuthURL:      ps.URL + "/github/authorize",
		TokenURL:     ps.URL + "/github/token",
		UserURL:      ps.URL + "/github/user",
	}, oauth.WithHTTPClient(ps.Client()))
	require.NoError(t, err)
	return p
}

func (ps *providerServer) google(t *testing.T) *oauth.GoogleProvider {
	t.Helper()
	p, err := oauth.NewGoogleProvider(oauth.GoogleConfig{
		ClientID:     "g-id",
		ClientSecret: "g-secret",
		AuthURL:      ps.URL + "/google/auth",
		TokenURL:     ps.URL + "/google/token",
		UserInfoURL:  ps.URL + "/google/userinfo",
	}, oauth.WithHTTPClient(ps.Client()))
	require.NoError(t, err)
	return p
}

func newManager(t *testing.T, ps *providerServer, opts ...openauth.Option) (*openauth.Manager, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	base := []openauth.Option{
		openauth.WithProviders(ps.github(t), ps.google(t)),
		openauth.WithSecret(testSecret),
		openauth.WithRegisterer(reg),
	}
	m, err := openauth.New(append(base, opts...)...)
	require.NoError(t, err)
	return m, reg
}

func correlationCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == openauth.DefaultCookieName {
			return c
		}
	}
	t.Fatalf("cookie %q not set", openauth.DefaultCookieName)
	return nil
}

func loginsMetric(provider, outcome string) string {
	return `
# HELP openauth_logins_total Completed login callbacks by provider and outcome.
# TYPE openauth_logins_total counter
openauth_logins_total{outcome="` + outcome + `",provider="` + provider + `"} 1
`
}

func TestNew(t *testing.T) {
	t.Parallel()

	ps := newProviderServer(t)

	t.Run("no providers", func(t *testing.T) {
		t.Parallel()
		m, err := openauth.New(openauth.WithSecret(testSecret))
		require.ErrorIs(t, err, openauth.ErrNoProviders)
		require.Nil(t, m)
	})

	t.Run("duplicate provider", func(t *testing.T) {
		t.Parallel()
		m, err := openauth.New(
			openauth.WithProviders(ps.github(t), ps.github(t)),
			openauth.WithSecret(testSecret),
			openauth.WithRegisterer(prometheus.NewRegistry()),
		)
		require.ErrorIs(t, err, openauth.ErrDuplicateProvider)
		require.Nil(t, m)
	})

	t.Run("short secret", func(t *testing.T) {
		t.Parallel()
		m, err := openauth.New(
			openauth.WithProviders(ps.github(t)),
			openauth.WithSecret("short"),
		)
		require.ErrorIs(t, err, openauth.ErrNoCookieSecret)
		require.Nil(t, m)
	})

	t.Run("shared registerer", func(t *testing.T) {
		t.Parallel()
		reg := prometheus.NewRegistry()
		for range 2 {
			_, err := openauth.New(
				openauth.WithProviders(ps.github(t)),
				openauth.WithSecret(testSecret),
				openauth.WithRegisterer(reg),
			)
			require.NoError(t, err)
		}
	})

	t.Run("providers sorted", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, ps)
		require.Equal(t, []string{"github", "google"}, m.Providers())

		p, ok := m.Provider("google")
		require.True(t, ok)
		require.Equal(t, "google", p.Name())

		_, ok = m.Provider("facebook")
		require.False(t, ok)
	})
}

func TestManager_RequestAuthentication(t *testing.T) {
	t.Parallel()

	ps := newProviderServer(t)

	t.Run("replaces reserved arguments", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, ps)

		returnURL, _ := url.Parse("https://app.example.com/done?next=%2Fhome&__provider__=facebook&__SID__=old")
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/login", nil)

		require.NoError(t, m.RequestAuthentication(rec, req, "github", returnURL))
		require.Equal(t, http.StatusFound, rec.Code)

		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "/github/authorize", loc.Path)

		redirect, err := url.Parse(loc.Query().Get("redirect_uri"))
		require.NoError(t, err)
		q := redirect.Query()
		require.Equal(t, "/home", q.Get("next"))
		require.Equal(t, "github", q.Get("__provider__"))
		require.NotEmpty(t, q.Get("__sid__"))
		require.NotEqual(t, "old", q.Get("__sid__"))
		require.Empty(t, q.Get("__SID__"))

		c := correlationCookie(t, rec)
		require.True(t, c.HttpOnly)
		require.Equal(t, 600, c.MaxAge)
	})

	t.Run("unknown provider writes nothing", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, ps)

		returnURL, _ := url.Parse("https://app.example.com/done")
		rec := httptest.NewRecorder()
		err := m.RequestAuthentication(rec, httptest.NewRequest(http.MethodGet, "/", nil), "myspace", returnURL)
		require.ErrorIs(t, err, openauth.ErrUnknownProvider)
		require.Empty(t, rec.Header().Get("Location"))
		require.Empty(t, rec.Result().Cookies())
	})

	t.Run("relative return url", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, ps)

		returnURL, _ := url.Parse("/done")
		rec := httptest.NewRecorder()
		err := m.RequestAuthentication(rec, httptest.NewRequest(http.MethodGet, "/", nil), "github", returnURL)
		require.ErrorIs(t, err, oauth.ErrInvalidReturnURL)
		require.Empty(t, rec.Result().Cookies())
	})
}

func TestManager_VerifyAuthentication_Google(t *testing.T) {
	t.Parallel()

	ps := newProviderServer(t)
	m, reg := newManager(t, ps)

	returnURL, _ := url.Parse("https://app.example.com/login/done?next=1")
	rec := httptest.NewRecorder()
	require.NoError(t, m.RequestAuthentication(rec, httptest.NewRequest(http.MethodGet, "/", nil), "google", returnURL))

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "https://app.example.com/login/done", loc.Query().Get("redirect_uri"))
	state := loc.Query().Get("state")
	require.Contains(t, state, "__provider__=google")

	callback := "https://app.example.com/login/done?" + url.Values{"state": {state}, "code": {"g-code"}}.Encode()
	req := httptest.NewRequest(http.MethodGet, callback, nil)
	req.AddCookie(correlationCookie(t, rec))
	rec = httptest.NewRecorder()

	res, err := m.VerifyAuthentication(rec, req, returnURL)
	require.NoError(t, err)
	require.True(t, res.Succeeded)
	require.Equal(t, "google", res.Provider)
	require.Equal(t, "1089", res.ProviderUserID)
	require.Equal(t, "Jane Doe", res.UserName)
	require.Equal(t, "g-token", res.ExtraData[oauth.ProfileKeyAccessToken])
	require.Equal(t, "true", res.ExtraData["verified_email"])
	require.Equal(t, "https://app.example.com/login/done", ps.lastRedirectURI())

	require.Negative(t, correlationCookie(t, rec).MaxAge)
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(loginsMetric("google", openauth.OutcomeSuccess)), "openauth_logins_total"))
}

func TestManager_VerifyAuthentication_Failures(t *testing.T) {
	t.Parallel()

	ps := newProviderServer(t)

	start := func(t *testing.T, m *openauth.Manager) (*url.URL, *http.Cookie) {
		t.Helper()
		returnURL, _ := url.Parse("https://app.example.com/done")
		rec := httptest.NewRecorder()
		require.NoError(t, m.RequestAuthentication(rec, httptest.NewRequest(http.MethodGet, "/", nil), "github", returnURL))
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		redirect, err := url.Parse(loc.Query().Get("redirect_uri"))
		require.NoError(t, err)
		return redirect, correlationCookie(t, rec)
	}
	returnURL, _ := url.Parse("https://app.example.com/done")

	t.Run("missing cookie", func(t *testing.T) {
		t.Parallel()
		m, reg := newManager(t, ps)
		redirect, _ := start(t, m)

		req := httptest.NewRequest(http.MethodGet, redirect.String()+"&code=c", nil)
		res, err := m.VerifyAuthentication(httptest.NewRecorder(), req, returnURL)
		require.ErrorIs(t, err, openauth.ErrCorrelationMismatch)
		require.Equal(t, oauth.Result{Provider: "github"}, res)
		require.NoError(t, testutil.GatherAndCompare(reg,
			strings.NewReader(loginsMetric("github", openauth.OutcomeCorrelationMismatch)), "openauth_logins_total"))
	})

	t.Run("cookie from another login", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, ps)
		redirect, _ := start(t, m)
		_, other := start(t, m)

		req := httptest.NewRequest(http.MethodGet, redirect.String()+"&code=c", nil)
		req.AddCookie(other)
		rec := httptest.NewRecorder()
		res, err := m.VerifyAuthentication(rec, req, returnURL)
		require.ErrorIs(t, err, openauth.ErrCorrelationMismatch)
		require.False(t, res.Succeeded)
		require.Negative(t, correlationCookie(t, rec).MaxAge)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		m, reg := newManager(t, ps)

		req := httptest.NewRequest(http.MethodGet, "https://app.example.com/done?__provider__=myspace&__sid__=x&code=c", nil)
		res, err := m.VerifyAuthentication(httptest.NewRecorder(), req, returnURL)
		require.ErrorIs(t, err, openauth.ErrUnknownProvider)
		require.Equal(t, oauth.Result{Provider: "myspace"}, res)
		require.NoError(t, testutil.GatherAndCompare(reg,
			strings.NewReader(loginsMetric("unknown", openauth.OutcomeUnknownProvider)), "openauth_logins_total"))
	})

	t.Run("consent denied", func(t *testing.T) {
		t.Parallel()
		m, reg := newManager(t, ps)
		redirect, c := start(t, m)

		req := httptest.NewRequest(http.MethodGet, redirect.String()+"&error=access_denied", nil)
		req.AddCookie(c)
		res, err := m.VerifyAuthentication(httptest.NewRecorder(), req, returnURL)
		require.ErrorIs(t, err, oauth.ErrMissingCode)
		require.False(t, res.Succeeded)
		require.NoError(t, testutil.GatherAndCompare(reg,
			strings.NewReader(loginsMetric("github", openauth.OutcomeMissingCode)), "openauth_logins_total"))
	})

	t.Run("cookie signed with another secret", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, ps)
		redirect, c := start(t, m)

		other, _ := newManager(t, ps, openauth.WithSecret(strings.Repeat("x", 32)))
		req := httptest.NewRequest(http.MethodGet, redirect.String()+"&code=c", nil)
		req.AddCookie(c)
		_, err := other.VerifyAuthentication(httptest.NewRecorder(), req, returnURL)
		require.ErrorIs(t, err, openauth.ErrCorrelationMismatch)
	})
}

func TestManager_Routes(t *testing.T) {
	t.Parallel()

	newRouter := func(t *testing.T, ps *providerServer, opts ...openauth.Option) (http.Handler, *openauth.Manager) {
		t.Helper()
		m, _ := newManager(t, ps, opts...)
		r := chi.NewRouter()
		r.Mount("/auth", m.Handler())
		return r, m
	}

	login := func(t *testing.T, h http.Handler, target string) (*url.URL, *http.Cookie) {
		t.Helper()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusFound, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		redirect, err := url.Parse(loc.Query().Get("redirect_uri"))
		require.NoError(t, err)
		return redirect, correlationCookie(t, rec)
	}

	t.Run("github round trip", func(t *testing.T) {
		t.Parallel()
		ps := newProviderServer(t)
		h, _ := newRouter(t, ps)

		redirect, c := login(t, h, "http://app.test/auth/github?return_url=%2Fdashboard%3Ftab%3D1")
		require.Equal(t, "http", redirect.Scheme)
		require.Equal(t, "app.test", redirect.Host)
		require.Equal(t, "/auth/callback", redirect.Path)
		require.Equal(t, "/dashboard?tab=1", redirect.Query().Get("return_url"))

		req := httptest.NewRequest(http.MethodGet, redirect.String()+"&code=gh-code", nil)
		req.AddCookie(c)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Equal(t, map[string]string{
			"provider":  "github",
			"user_id":   "42",
			"user_name": "The Octocat",
			"return_to": "/dashboard?tab=1",
		}, body)
		require.NotContains(t, rec.Body.String(), "gh-token")
		require.Equal(t, redirect.String(), ps.lastRedirectURI())
	})

	t.Run("google round trip", func(t *testing.T) {
		t.Parallel()
		ps := newProviderServer(t)
		h, _ := newRouter(t, ps)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://app.test/auth/google?return_url=/me", nil))
		require.Equal(t, http.StatusFound, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "http://app.test/auth/callback", loc.Query().Get("redirect_uri"))

		callback := "http://app.test/auth/callback?" + url.Values{
			"state": {loc.Query().Get("state")},
			"code":  {"g-code"},
		}.Encode()
		req := httptest.NewRequest(http.MethodGet, callback, nil)
		req.AddCookie(correlationCookie(t, rec))
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"return_to":"/me"`)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		ps := newProviderServer(t)
		h, _ := newRouter(t, ps)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://app.test/auth/myspace", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("foreign return url dropped", func(t *testing.T) {
		t.Parallel()
		ps := newProviderServer(t)
		h, _ := newRouter(t, ps)

		for _, target := range []string{"//evil.example.com/x", "https://evil.example.com", "/\\evil.example.com"} {
			redirect, _ := login(t, h, "http://app.test/auth/github?return_url="+url.QueryEscape(target))
			require.False(t, redirect.Query().Has("return_url"), target)
		}
	})

	t.Run("failure handler", func(t *testing.T) {
		t.Parallel()
		ps := newProviderServer(t)
		h, _ := newRouter(t, ps)

		redirect, _ := login(t, h, "http://app.test/auth/github")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, redirect.String()+"&code=c", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("custom handlers and base url", func(t *testing.T) {
		t.Parallel()
		base, _ := url.Parse("https://login.example.com/auth")
		var got oauth.Result
		h, _ := newRouter(t, newProviderServer(t),
			openauth.WithBaseURL(base),
			openauth.WithSuccessHandler(func(w http.ResponseWriter, r *http.Request, res oauth.Result, returnTo string) {
				got = res
				http.Redirect(w, r, returnTo, http.StatusSeeOther)
			}),
		)

		redirect, c := login(t, h, "http://app.test/auth/github?return_url=/home")
		require.Equal(t, "https://login.example.com/auth/callback?return_url=%2Fhome&__provider__=github&__sid__="+redirect.Query().Get("__sid__"), redirect.String())

		req := httptest.NewRequest(http.MethodGet, "http://app.test/auth/callback?"+redirect.RawQuery+"&code=c", nil)
		req.AddCookie(c)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/home", rec.Header().Get("Location"))
		require.True(t, got.Succeeded)
		require.Equal(t, "42", got.ProviderUserID)
	})
}

func TestManager_CorrelationTTL(t *testing.T) {
	t.Parallel()

	ps := newProviderServer(t)
	returnURL, _ := url.Parse("https://app.example.com/done")

	// start begins a GitHub login at now and returns the callback request.
	start := func(t *testing.T, m *openauth.Manager) (*http.Request, *http.Cookie) {
		t.Helper()
		rec := httptest.NewRecorder()
		require.NoError(t, m.RequestAuthentication(rec, httptest.NewRequest(http.MethodGet, "/", nil), "github", returnURL))
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		c := correlationCookie(t, rec)
		req := httptest.NewRequest(http.MethodGet, loc.Query().Get("redirect_uri")+"&code=c", nil)
		req.AddCookie(c)
		return req, c
	}

	t.Run("expired login rejected", func(t *testing.T) {
		t.Parallel()
		ps := newProviderServer(t)
		m, reg := newManager(t, ps, openauth.WithCorrelationTTL(5*time.Minute))
		now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		openauth.SetClock(m, func() time.Time { return now })

		req, _ := start(t, m)
		now = now.Add(5*time.Minute + time.Second)

		res, err := m.VerifyAuthentication(httptest.NewRecorder(), req, returnURL)
		require.ErrorIs(t, err, openauth.ErrCorrelationMismatch)
		require.False(t, res.Succeeded)
		require.Empty(t, ps.lastRedirectURI())
		require.NoError(t, testutil.GatherAndCompare(reg,
			strings.NewReader(loginsMetric("github", openauth.OutcomeCorrelationMismatch)), "openauth_logins_total"))
	})

	t.Run("login within ttl accepted", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, ps, openauth.WithCorrelationTTL(5*time.Minute))
		now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		openauth.SetClock(m, func() time.Time { return now })

		req, _ := start(t, m)
		now = now.Add(5 * time.Minute)

		res, err := m.VerifyAuthentication(httptest.NewRecorder(), req, returnURL)
		require.NoError(t, err)
		require.True(t, res.Succeeded)
	})

	t.Run("sub-second ttl keeps max-age", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, ps, openauth.WithCorrelationTTL(time.Nanosecond))

		_, c := start(t, m)
		require.Equal(t, 1, c.MaxAge)
	})

	t.Run("ttl rounded up to whole seconds", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, ps, openauth.WithCorrelationTTL(90*time.Second+time.Millisecond))

		_, c := start(t, m)
		require.Equal(t, 91, c.MaxAge)
	})

	t.Run("unknown provider consumes cookie", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, ps)
		_, c := start(t, m)

		req := httptest.NewRequest(http.MethodGet, "https://app.example.com/done?__provider__=myspace&__sid__=x&code=c", nil)
		req.AddCookie(c)
		rec := httptest.NewRecorder()
		_, err := m.VerifyAuthentication(rec, req, returnURL)
		require.ErrorIs(t, err, openauth.ErrUnknownProvider)
		require.Negative(t, correlationCookie(t, rec).MaxAge)
	})
}
