// Package cookie manages the short-lived cookies that tie an OAuth callback
// to the browser that started the login.
//
// Cookies carry an HMAC-SHA256 signature bound to the cookie name and need a
// secret of at least MinSecretLength bytes:
//
//	m := cookie.New(
//		cookie.WithSecret(os.Getenv("COOKIE_SECRET")),
//		cookie.WithSecure(true),
//	)
//
// Config carries env tags for the same settings:
//
//	cfg, err := env.ParseAs[cookie.Config]()
//	if err != nil {
//		return err
//	}
//	m := cookie.New(cookie.WithConfig(cfg))
//
//	// login: remember the correlation id for ten minutes
//	err := m.SetSigned(w, "__oa_sid", sid, 600)
//
//	// callback: read it once
//	sid, err := m.PopSigned(w, r, "__oa_sid")
//
// Cookies are always HttpOnly. Defaults: Path "/", SameSite=Lax.
//
// # Errors
//
//   - [ErrNotFound]: Cookie does not exist
//   - [ErrNoSecret]: Secret required for signed operations
//   - [ErrBadSig]: Signature verification failed (tampering detected)
package cookie
