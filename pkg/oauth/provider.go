package oauth

import (
	"context"
	"net/url"
)

// Provider names.
const (
	FacebookProviderName = "facebook"
	GitHubProviderName   = "github"
	GoogleProviderName   = "google"
)

// ProviderQueryKey is the callback query argument naming the provider that
// started the login. Google round-trips it inside "state".
const ProviderQueryKey = "__provider__"

// Provider abstracts the three provider-specific steps of a login.
// Each provider (Facebook, GitHub, Google) implements this interface;
// BeginLogin and CompleteLogin run the shared flow on top of it.
type Provider interface {
	// Name returns the provider identifier (e.g., "google", "github").
	Name() string

	// LoginURL returns the provider authorization URL the user agent is
	// redirected to. returnURL is where the provider sends the user back.
	LoginURL(returnURL *url.URL) (*url.URL, error)

	// ExchangeCode trades an authorization code for an access token.
	// returnURL must match the one passed to LoginURL.
	ExchangeCode(ctx context.Context, returnURL *url.URL, code string) (string, error)

	// FetchProfile retrieves the user's profile with the access token.
	FetchProfile(ctx context.Context, accessToken string) (Profile, error)
}

// CallbackRewriter is implemented by providers that relocate callback query
// arguments during login and need them restored before the callback is
// processed. RewriteCallback reports whether it changed anything.
type CallbackRewriter interface {
	RewriteCallback(query url.Values) (url.Values, bool)
}
