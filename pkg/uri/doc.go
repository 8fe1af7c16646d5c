// Package uri provides the URL and query-string helpers used by the OAuth
// providers.
//
// The standard library query encoder sorts keys and follows the
// application/x-www-form-urlencoded rules (space becomes "+"). Several OAuth
// providers compare redirect URLs byte for byte, so this package keeps
// arguments in the order they were given and escapes strictly per RFC 3986.
//
// # Escaping
//
//	uri.EscapeRFC3986("a b!")               // "a%20b%21"
//	uri.BuildQueryString(
//		uri.Pair{Key: "client_id", Value: "123"},
//		uri.Pair{Key: "scope", Value: "email"},
//	)                                       // "client_id=123&scope=email"
//
// # URL manipulation
//
// AppendQueryArgs and StripQueryArgsWithPrefix never mutate their input.
// StripQueryArgsWithPrefix returns the very same *url.URL when nothing has to
// be removed, so callers can compare pointers to detect a no-op:
//
//	clean := uri.StripQueryArgsWithPrefix(u, "__")
//	if clean == u {
//		// nothing stripped
//	}
//
// NormalizeHexEncoding uppercases percent-escapes ("%2f" becomes "%2F"),
// which Facebook requires for the redirect_uri of the token request.
package uri
