package oauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"

	"github.com/dmitrymomot/openauth/pkg/uri"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"

	// GoogleScopeBaseURL is prepended to scopes that are not absolute URLs.
	GoogleScopeBaseURL = "https://www.googleapis.com/auth/"

	googleStateMarker = ProviderQueryKey + "=" + GoogleProviderName
)

// GoogleDefaultScopes returns the default scopes for Google OAuth.
func GoogleDefaultScopes() []string {
	return []string{"userinfo.profile", "userinfo.email"}
}

// GoogleProvider implements Provider for Google OAuth.
//
// Google does not preserve arbitrary query arguments of the redirect URI, so
// the login sends the return URL's path as redirect_uri and packs its query
// into "state". RewriteCallback restores it when the user comes back.
type GoogleProvider struct {
	authURL     *url.URL
	userInfoURL *url.URL
	config      *oauth2.Config
	httpClient  *http.Client
	scope       string
}

// NewGoogleProvider creates a new Google OAuth provider.
// Returns an error if ClientID or ClientSecret is empty.
func NewGoogleProvider(cfg GoogleConfig, opts ...Option) (*GoogleProvider, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}

	authURL, err := parseEndpoint(cfg.AuthURL, googleOAuth.Endpoint.AuthURL)
	if err != nil {
		return nil, err
	}
	tokenURL, err := parseEndpoint(cfg.TokenURL, googleOAuth.Endpoint.TokenURL)
	if err != nil {
		return nil, err
	}
	userInfoURL, err := parseEndpoint(cfg.UserInfoURL, googleUserInfoURL)
	if err != nil {
		return nil, err
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = GoogleDefaultScopes()
	}
	scopes = expandGoogleScopes(scopes)

	o := newOptions(opts)

	return &GoogleProvider{
		authURL:     authURL,
		userInfoURL: userInfoURL,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL.String(),
				TokenURL:  tokenURL.String(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: o.httpClient,
		scope:      strings.Join(scopes, " "),
	}, nil
}

// Name returns the provider identifier.
func (p *GoogleProvider) Name() string {
	return GoogleProviderName
}

// LoginURL builds the Google authorization URL. The return URL's query is
// carried in "state" and only its path is sent as redirect_uri.
func (p *GoogleProvider) LoginURL(returnURL *url.URL) (*url.URL, error) {
	pairs := []uri.Pair{
		{Key: "response_type", Value: "code"},
		{Key: "client_id", Value: p.config.ClientID},
		{Key: "scope", Value: p.scope},
		{Key: "redirect_uri", Value: pathOnly(returnURL)},
	}
	if returnURL.RawQuery != "" {
		pairs = append(pairs, uri.Pair{Key: "state", Value: returnURL.RawQuery})
	}
	return uri.AppendQueryArgs(p.authURL, pairs...), nil
}

// RewriteCallback merges the arguments packed into "state" at login back into
// the callback query and drops "state". Queries whose state lacks the
// __provider__=google marker are returned untouched.
func (p *GoogleProvider) RewriteCallback(query url.Values) (url.Values, bool) {
	state := query.Get("state")
	if !strings.Contains(state, googleStateMarker) {
		return query, false
	}

	// ParseQuery keeps every well-formed argument even when it reports an error.
	restored, _ := url.ParseQuery(state)
	for key, values := range query {
		for _, v := range values {
			restored.Add(key, v)
		}
	}
	restored.Del("state")
	return restored, true
}

// ExchangeCode trades an authorization code for an access token with a
// form-encoded POST. The redirect_uri is the path-only URL sent at login.
func (p *GoogleProvider) ExchangeCode(ctx context.Context, returnURL *url.URL, code string) (string, error) {
	cfg := &oauth2.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: p.config.ClientSecret,
		RedirectURL:  pathOnly(returnURL),
		Scopes:       p.config.Scopes,
		Endpoint:     p.config.Endpoint,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// FetchProfile retrieves the userinfo document. Every scalar field is copied
// into the profile.
func (p *GoogleProvider) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	endpoint := uri.AppendQueryArgs(p.userInfoURL, uri.Pair{Key: "access_token", Value: accessToken})

	resp, err := get(ctx, p.httpClient, endpoint)
	if err != nil {
		return nil, err
	}
	return decodeFlat(resp.body)
}

// expandGoogleScopes prefixes short scope names with GoogleScopeBaseURL.
func expandGoogleScopes(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if len(s) < 4 || !strings.EqualFold(s[:4], "http") {
			s = GoogleScopeBaseURL + s
		}
		out = append(out, s)
	}
	return out
}

// pathOnly returns u without query and fragment.
func pathOnly(u *url.URL) string {
	out := *u
	out.RawQuery = ""
	out.ForceQuery = false
	out.Fragment = ""
	out.RawFragment = ""
	return out.String()
}
