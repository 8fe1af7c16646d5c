// Package openauth adds "login with Facebook, GitHub or Google" to a Go web
// application.
//
// A Manager holds the registered providers and ties the two halves of an
// OAuth2 authorization code login to the browser that started it. The
// provider protocols live in pkg/oauth; this package handles redirects, the
// correlation cookie, routing, logging and metrics.
//
// # Quick Start
//
//	github, err := oauth.NewGitHubProvider(cfg.GitHub)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	auth, err := openauth.New(
//	    openauth.WithProviders(github),
//	    openauth.WithSecret(cfg.CookieSecret),
//	    openauth.WithLogger(log),
//	    openauth.WithSuccessHandler(func(w http.ResponseWriter, r *http.Request, res oauth.Result, returnTo string) {
//	        // create the local session for res.Provider / res.ProviderUserID
//	        http.Redirect(w, r, cmp.Or(returnTo, "/"), http.StatusSeeOther)
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/auth", auth.Handler())
//
// A link to /auth/github?return_url=/dashboard starts the login; the provider
// sends the user back to /auth/callback.
//
// # Without the routes
//
// RequestAuthentication and VerifyAuthentication can be called from any
// handler. Both must receive the same absolute return URL:
//
//	returnURL, _ := url.Parse("https://example.com/login/done")
//
//	// start
//	if err := auth.RequestAuthentication(w, r, "google", returnURL); err != nil {
//	    // unknown provider, invalid URL
//	}
//
//	// https://example.com/login/done
//	res, err := auth.VerifyAuthentication(w, r, returnURL)
//	if !res.Succeeded {
//	    // err says why
//	}
//
// # Correlation
//
// At login the Manager strips every "__"-prefixed query argument from the
// return URL and appends __provider__ and __sid__, a random login attempt id.
// The same pair and the issue time are stored in a signed, HttpOnly cookie.
// The callback is accepted only when the cookie verifies, matches the query
// and is younger than the correlation TTL (10 minutes by default); the
// cookie is deleted in the callback response whatever the outcome.
//
// # Metrics
//
// Two collectors are registered on the configured Registerer:
//
//   - openauth_logins_total{provider, outcome}
//   - openauth_login_duration_seconds{provider}
//
// Outcomes are OutcomeSuccess or the failure kind (OutcomeMissingCode,
// OutcomeTokenExchange, ...). Callbacks naming an unregistered provider are
// counted under provider "unknown".
package openauth
