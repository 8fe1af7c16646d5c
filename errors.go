package openauth

import "errors"

var (
	// ErrNoProviders is returned by New when no provider is registered.
	ErrNoProviders = errors.New("openauth: no providers registered")

	// ErrDuplicateProvider is returned by New when two providers share a name.
	ErrDuplicateProvider = errors.New("openauth: duplicate provider name")

	// ErrNoCookieSecret is returned by New when the cookie manager cannot sign
	// the correlation cookie.
	ErrNoCookieSecret = errors.New("openauth: cookie secret of at least 32 bytes required")

	// ErrUnknownProvider is returned when a login or callback names a provider
	// that is not registered.
	ErrUnknownProvider = errors.New("openauth: unknown provider")

	// ErrCorrelationMismatch is returned when the callback cannot be tied to a
	// login started by the same browser (missing, expired or forged cookie).
	ErrCorrelationMismatch = errors.New("openauth: callback does not match login")
)
