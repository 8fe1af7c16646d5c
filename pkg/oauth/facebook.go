package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/openauth/pkg/uri"
)

const (
	facebookAuthURL  = "https://www.facebook.com/dialog/oauth"
	facebookTokenURL = "https://graph.facebook.com/oauth/access_token"
	facebookGraphURL = "https://graph.facebook.com"
	facebookFields   = "id,name,email,link,gender,birthday"

	// FacebookDefaultScope is requested when FacebookConfig.Scope is empty.
	FacebookDefaultScope = "email"
)

// FacebookProvider implements Provider for Facebook Login.
type FacebookProvider struct {
	authURL      *url.URL
	tokenURL     *url.URL
	meURL        *url.URL
	httpClient   *http.Client
	clientID     string
	clientSecret string
	scope        string
}

// NewFacebookProvider creates a new Facebook OAuth provider.
// Returns an error if ClientID or ClientSecret is empty.
func NewFacebookProvider(cfg FacebookConfig, opts ...Option) (*FacebookProvider, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}

	authURL, err := parseEndpoint(cfg.AuthURL, facebookAuthURL)
	if err != nil {
		return nil, err
	}
	tokenURL, err := parseEndpoint(cfg.TokenURL, facebookTokenURL)
	if err != nil {
		return nil, err
	}
	graphURL, err := parseEndpoint(cfg.GraphURL, facebookGraphURL)
	if err != nil {
		return nil, err
	}

	scope := cfg.Scope
	if scope == "" {
		scope = FacebookDefaultScope
	}

	o := newOptions(opts)

	return &FacebookProvider{
		authURL:      authURL,
		tokenURL:     tokenURL,
		meURL:        graphURL.JoinPath("me"),
		httpClient:   o.httpClient,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		scope:        scope,
	}, nil
}

// Name returns the provider identifier.
func (p *FacebookProvider) Name() string {
	return FacebookProviderName
}

// LoginURL builds the Facebook login dialog URL.
func (p *FacebookProvider) LoginURL(returnURL *url.URL) (*url.URL, error) {
	return uri.AppendQueryArgs(p.authURL,
		uri.Pair{Key: "client_id", Value: p.clientID},
		uri.Pair{Key: "redirect_uri", Value: returnURL.String()},
		uri.Pair{Key: "scope", Value: p.scope},
	), nil
}

// ExchangeCode trades an authorization code for an access token.
//
// Facebook rejects a redirect_uri whose percent-escapes differ in case from
// what it saw at login, so the return URL is sent with its escapes kept
// verbatim and their hex digits uppercased.
func (p *FacebookProvider) ExchangeCode(ctx context.Context, returnURL *url.URL, code string) (string, error) {
	endpoint := uri.AppendQueryArgs(p.tokenURL,
		uri.Pair{Key: "client_id", Value: p.clientID},
		// Escaped as a value like every pair: sent raw, the "&" of the return
		// URL's own query would split this request.
		uri.Pair{Key: "redirect_uri", Value: uri.NormalizeHexEncoding(returnURL.String())},
		uri.Pair{Key: "client_secret", Value: p.clientSecret},
		uri.Pair{Key: "code", Value: code},
		uri.Pair{Key: "scope", Value: p.scope},
	)

	resp, err := get(ctx, p.httpClient, endpoint)
	if err != nil {
		return "", err
	}
	return resp.accessToken()
}

// FetchProfile retrieves the user from the Graph API "me" endpoint.
// The email address doubles as "username" since Facebook has none.
func (p *FacebookProvider) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	endpoint := uri.AppendQueryArgs(p.meURL,
		uri.Pair{Key: "access_token", Value: accessToken},
		uri.Pair{Key: "fields", Value: facebookFields},
	)

	resp, err := get(ctx, p.httpClient, endpoint)
	if err != nil {
		return nil, err
	}

	var me facebookMe
	if err := json.Unmarshal(resp.body, &me); err != nil {
		return nil, errors.Join(ErrDecodeFailed, fmt.Errorf("decode me: %w", err))
	}

	profile := make(Profile, 6)
	profile.setIfNotEmpty(ProfileKeyID, me.ID)
	profile.setIfNotEmpty(ProfileKeyUsername, me.Email)
	profile.setIfNotEmpty(ProfileKeyName, me.Name)
	profile.setIfNotEmpty("link", me.Link)
	profile.setIfNotEmpty("gender", me.Gender)
	profile.setIfNotEmpty("birthday", me.Birthday)
	return profile, nil
}

// facebookMe represents the response from the Graph API "me" endpoint.
type facebookMe struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Link     string `json:"link"`
	Gender   string `json:"gender"`
	Birthday string `json:"birthday"`
}
