package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// BeginLogin returns the URL the user agent must be redirected to in order to
// authenticate with p. It does not write any HTTP response.
func BeginLogin(p Provider, returnURL *url.URL) (string, error) {
	if returnURL == nil || !returnURL.IsAbs() {
		return "", ErrInvalidReturnURL
	}

	u, err := p.LoginURL(returnURL)
	if err != nil {
		return "", fmt.Errorf("%s login url: %w", p.Name(), err)
	}
	return u.String(), nil
}

// CompleteLogin processes the provider callback: it reads the authorization
// code from query, exchanges it for an access token and fetches the profile.
//
// Every failure yields the same Result (Succeeded == false). The returned
// error tells why and is meant for logs; it wraps one of ErrMissingCode,
// ErrInvalidReturnURL, ErrTokenExchange, ErrEmptyToken, ErrProfileFetch or
// ErrMissingUserID.
//
// On success the access token is added to the profile under "accesstoken".
func CompleteLogin(ctx context.Context, p Provider, query url.Values, returnURL *url.URL) (Result, error) {
	name := p.Name()

	if rw, ok := p.(CallbackRewriter); ok {
		if rewritten, changed := rw.RewriteCallback(query); changed {
			query = rewritten
		}
	}

	code := query.Get("code")
	if code == "" {
		return Failed(name), ErrMissingCode
	}
	if returnURL == nil || !returnURL.IsAbs() {
		return Failed(name), ErrInvalidReturnURL
	}

	token, err := p.ExchangeCode(ctx, returnURL, code)
	if err != nil {
		return Failed(name), errors.Join(ErrTokenExchange, err)
	}
	if token == "" {
		return Failed(name), ErrEmptyToken
	}

	profile, err := p.FetchProfile(ctx, token)
	if err != nil {
		return Failed(name), errors.Join(ErrProfileFetch, err)
	}

	id := profile.ID()
	if id == "" {
		return Failed(name), ErrMissingUserID
	}

	userName := profile.DisplayName()
	profile[ProfileKeyAccessToken] = token

	return Result{
		Succeeded:      true,
		Provider:       name,
		ProviderUserID: id,
		UserName:       userName,
		ExtraData:      profile,
	}, nil
}
