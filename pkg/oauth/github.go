package oauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	githubOAuth "golang.org/x/oauth2/github"

	"github.com/dmitrymomot/openauth/pkg/uri"
)

const githubUserURL = "https://api.github.com/user"

// GitHubProvider implements Provider for GitHub OAuth apps.
type GitHubProvider struct {
	authURL      *url.URL
	tokenURL     *url.URL
	userURL      *url.URL
	httpClient   *http.Client
	clientID     string
	clientSecret string
	scope        string
}

// NewGitHubProvider creates a new GitHub OAuth provider.
// Returns an error if ClientID or ClientSecret is empty.
// Without Scopes GitHub grants read-only access to public information.
func NewGitHubProvider(cfg GitHubConfig, opts ...Option) (*GitHubProvider, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}

	authURL, err := parseEndpoint(cfg.AuthURL, githubOAuth.Endpoint.AuthURL)
	if err != nil {
		return nil, err
	}
	tokenURL, err := parseEndpoint(cfg.TokenURL, githubOAuth.Endpoint.TokenURL)
	if err != nil {
		return nil, err
	}
	userURL, err := parseEndpoint(cfg.UserURL, githubUserURL)
	if err != nil {
		return nil, err
	}

	o := newOptions(opts)

	return &GitHubProvider{
		authURL:      authURL,
		tokenURL:     tokenURL,
		userURL:      userURL,
		httpClient:   o.httpClient,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		scope:        strings.Join(cfg.Scopes, " "),
	}, nil
}

// Name returns the provider identifier.
func (p *GitHubProvider) Name() string {
	return GitHubProviderName
}

// LoginURL builds the GitHub authorization URL.
func (p *GitHubProvider) LoginURL(returnURL *url.URL) (*url.URL, error) {
	pairs := []uri.Pair{
		{Key: "client_id", Value: p.clientID},
		{Key: "redirect_uri", Value: returnURL.String()},
	}
	if p.scope != "" {
		pairs = append(pairs, uri.Pair{Key: "scope", Value: p.scope})
	}
	return uri.AppendQueryArgs(p.authURL, pairs...), nil
}

// ExchangeCode trades an authorization code for an access token.
func (p *GitHubProvider) ExchangeCode(ctx context.Context, returnURL *url.URL, code string) (string, error) {
	endpoint := uri.AppendQueryArgs(p.tokenURL,
		uri.Pair{Key: "client_id", Value: p.clientID},
		uri.Pair{Key: "redirect_uri", Value: returnURL.String()},
		uri.Pair{Key: "client_secret", Value: p.clientSecret},
		uri.Pair{Key: "code", Value: code},
	)

	resp, err := get(ctx, p.httpClient, endpoint)
	if err != nil {
		return "", err
	}
	return resp.accessToken()
}

// FetchProfile retrieves the authenticated user. Every scalar field of the
// response is copied into the profile; the numeric id becomes a decimal string.
func (p *GitHubProvider) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	endpoint := uri.AppendQueryArgs(p.userURL, uri.Pair{Key: "access_token", Value: accessToken})

	resp, err := get(ctx, p.httpClient, endpoint)
	if err != nil {
		return nil, err
	}
	return decodeFlat(resp.body)
}
