// Package oauth implements "login with X" over the OAuth2 authorization code
// grant for Facebook, GitHub and Google.
//
// A login has two halves. BeginLogin returns the provider URL the user agent
// is redirected to; CompleteLogin runs on the callback: it reads the
// authorization code, exchanges it for an access token and fetches the user's
// profile. Provider payloads are normalized into a Profile (a flat
// map[string]string) carried by a Result.
//
// # Features
//
//   - Provider interface with Facebook, GitHub and Google implementations
//   - Shared callback flow with a single failure shape and a diagnostic error
//   - Profile normalization: "id" is required, display name falls back from
//     "username" to "name" to "id", the access token is added as "accesstoken"
//   - Functional options for custom HTTP clients (testing, custom transports)
//   - Configuration structs with env tags for environment-based setup
//   - Sentinel errors with "oauth:" prefix for consistent error handling
//
// # Usage
//
//	provider, err := oauth.NewGitHubProvider(oauth.GitHubConfig{
//		ClientID:     os.Getenv("GITHUB_OAUTH_CLIENT_ID"),
//		ClientSecret: os.Getenv("GITHUB_OAUTH_CLIENT_SECRET"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	returnURL, _ := url.Parse("https://example.com/auth/callback")
//
//	// Login handler
//	target, err := oauth.BeginLogin(provider, returnURL)
//	if err != nil {
//		// handle error
//	}
//	http.Redirect(w, r, target, http.StatusFound)
//
//	// Callback handler
//	res, err := oauth.CompleteLogin(r.Context(), provider, r.URL.Query(), returnURL)
//	if !res.Succeeded {
//		logger.Warn("login failed", "provider", res.Provider, "error", err)
//		return
//	}
//	// res.ProviderUserID, res.UserName, res.ExtraData["accesstoken"]
//
// The returnURL passed to CompleteLogin must be the one used for BeginLogin;
// providers compare the redirect URI of both requests.
//
// # Provider quirks
//
// Facebook expects the redirect_uri of the token request with uppercase
// percent-escapes. Google only receives the path of the return URL; its query
// travels in "state" and is merged back into the callback query by
// GoogleProvider.RewriteCallback (CompleteLogin calls it automatically for any
// provider implementing CallbackRewriter). The merge only happens when state
// contains the "__provider__=google" marker.
//
// # Testing
//
// Use WithHTTPClient to route provider traffic to a test server, or point the
// endpoint fields of the config structs at httptest servers:
//
//	ts := httptest.NewServer(handler)
//	defer ts.Close()
//
//	provider, err := oauth.NewGitHubProvider(oauth.GitHubConfig{
//		ClientID:     "id",
//		ClientSecret: "secret",
//		TokenURL:     ts.URL + "/token",
//		UserURL:      ts.URL + "/user",
//	}, oauth.WithHTTPClient(ts.Client()))
//
// # Error Handling
//
// CompleteLogin collapses every failure into Result{Succeeded: false}. The
// accompanying error wraps one of:
//
//   - ErrMissingCode: Callback without an authorization code (e.g. consent denied)
//   - ErrTokenExchange: Token request failed (transport, status, decoding, provider error)
//   - ErrEmptyToken: Token endpoint answered without an access token
//   - ErrProfileFetch: Profile request failed
//   - ErrMissingUserID: Profile has no "id"
//
// Transport-level causes are wrapped as ErrFetchFailed, ErrNilResponse,
// ErrRequestFailed, ErrDecodeFailed or ErrProviderError. Use errors.Is:
//
//	if errors.Is(err, oauth.ErrMissingCode) {
//		// user cancelled at the provider
//	}
//
// # Security
//
//   - Correlate callbacks with the login that started them (the root openauth
//     package does this with a signed cookie)
//   - Use HTTPS return URLs in production
//   - The access token is returned inside the profile; never log ExtraData
//   - Keep client secrets out of source control (use environment variables)
package oauth
