package oauth

import "errors"

var (
	// ErrMissingClientID is returned when the OAuth client ID is not provided.
	ErrMissingClientID = errors.New("oauth: missing client ID")

	// ErrMissingClientSecret is returned when the OAuth client secret is not provided.
	ErrMissingClientSecret = errors.New("oauth: missing client secret")

	// ErrInvalidEndpoint is returned when a configured endpoint is not an absolute URL.
	ErrInvalidEndpoint = errors.New("oauth: invalid endpoint URL")

	// ErrInvalidReturnURL is returned when the return URL is nil or not absolute.
	ErrInvalidReturnURL = errors.New("oauth: return URL must be absolute")

	// ErrMissingCode is returned when the callback carries no authorization code,
	// typically because the user denied consent.
	ErrMissingCode = errors.New("oauth: missing authorization code")

	// ErrTokenExchange is returned when trading the authorization code for an
	// access token fails.
	ErrTokenExchange = errors.New("oauth: token exchange failed")

	// ErrEmptyToken is returned when the token endpoint answers without an access token.
	ErrEmptyToken = errors.New("oauth: empty access token")

	// ErrProfileFetch is returned when fetching the user profile fails.
	ErrProfileFetch = errors.New("oauth: profile fetch failed")

	// ErrMissingUserID is returned when the profile has no "id" field.
	ErrMissingUserID = errors.New("oauth: profile has no user id")

	// ErrNilResponse is returned when the OAuth provider returns a nil response.
	ErrNilResponse = errors.New("oauth: nil response from provider")

	// ErrFetchFailed is returned when fetching data from the OAuth provider fails.
	ErrFetchFailed = errors.New("oauth: failed to fetch from provider")

	// ErrRequestFailed is returned when the OAuth provider returns a non-OK status.
	ErrRequestFailed = errors.New("oauth: request returned non-OK status")

	// ErrDecodeFailed is returned when decoding the OAuth provider response fails.
	ErrDecodeFailed = errors.New("oauth: failed to decode response")

	// ErrProviderError is returned when the token endpoint reports an OAuth
	// error (e.g. invalid_grant) in its response body.
	ErrProviderError = errors.New("oauth: provider returned an error")
)
