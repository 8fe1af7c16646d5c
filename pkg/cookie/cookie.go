package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// Errors.
var (
	ErrNotFound = errors.New("cookie: not found")
	ErrNoSecret = errors.New("cookie: secret required")
	ErrBadSig   = errors.New("cookie: invalid signature")
)

// MinSecretLength is the minimum accepted secret size in bytes.
const MinSecretLength = 32

// Config holds cookie attributes and the signing secret; apply it with
// WithConfig.
type Config struct {
	Secret string `env:"COOKIE_SECRET"`
	Domain string `env:"COOKIE_DOMAIN"`
	Path   string `env:"COOKIE_PATH" envDefault:"/"`
	// SameSite is "lax", "strict" or "none". Strict drops the cookie on the
	// cross-site redirect back from the provider.
	SameSite string `env:"COOKIE_SAMESITE" envDefault:"lax"`
	Secure   bool   `env:"COOKIE_SECURE"`
}

// Manager reads and writes signed, HttpOnly cookies.
type Manager struct {
	secret   []byte // nil = signing disabled
	domain   string
	path     string
	sameSite http.SameSite
	secure   bool
}

// Option configures the Manager.
type Option func(*Manager)

// New creates a cookie Manager with the given options.
// Defaults: Path "/", SameSite=Lax, signing disabled until a secret is set.
func New(opts ...Option) *Manager {
	m := &Manager{
		path:     "/",
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithConfig applies every field of cfg. Later options override it.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		WithSecret(cfg.Secret)(m)
		m.domain = cfg.Domain
		if cfg.Path != "" {
			m.path = cfg.Path
		}
		m.sameSite = parseSameSite(cfg.SameSite)
		m.secure = cfg.Secure
	}
}

// WithSecret sets the signing secret.
// Secrets shorter than MinSecretLength are ignored.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		if len(secret) >= MinSecretLength {
			m.secret = []byte(secret)
		}
	}
}

// WithDomain sets the cookie domain.
func WithDomain(domain string) Option {
	return func(m *Manager) {
		m.domain = domain
	}
}

// WithPath sets the cookie path. Empty keeps "/".
func WithPath(path string) Option {
	return func(m *Manager) {
		if path != "" {
			m.path = path
		}
	}
}

// WithSecure sets the Secure flag.
func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithSameSite sets the SameSite attribute. Strict drops the cookie on the
// cross-site redirect back from the provider.
func WithSameSite(ss http.SameSite) Option {
	return func(m *Manager) {
		m.sameSite = ss
	}
}

// CanSign reports whether a usable secret is configured.
func (m *Manager) CanSign() bool {
	return m.secret != nil
}

// SetSigned writes a cookie holding value and its HMAC-SHA256 signature.
// The signature covers the cookie name, so a value cannot be replayed
// under another name.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, maxAge int) error {
	if m.secret == nil {
		return ErrNoSecret
	}

	enc := base64.RawURLEncoding
	http.SetCookie(w, m.cookie(name,
		enc.EncodeToString([]byte(value))+"."+enc.EncodeToString(m.sign(name, []byte(value))),
		maxAge,
	))
	return nil
}

// GetSigned returns the verified value of a signed cookie.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	if m.secret == nil {
		return "", ErrNoSecret
	}

	c, err := r.Cookie(name)
	if err != nil {
		return "", ErrNotFound
	}

	encValue, encSig, ok := strings.Cut(c.Value, ".")
	if !ok {
		return "", ErrBadSig
	}
	value, err := base64.RawURLEncoding.DecodeString(encValue)
	if err != nil {
		return "", ErrBadSig
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil || !hmac.Equal(sig, m.sign(name, value)) {
		return "", ErrBadSig
	}
	return string(value), nil
}

// PopSigned reads a signed cookie and deletes it in the same response, so
// the value can be consumed only once. The cookie is deleted even when
// verification fails.
func (m *Manager) PopSigned(w http.ResponseWriter, r *http.Request, name string) (string, error) {
	value, err := m.GetSigned(r, name)
	if !errors.Is(err, ErrNotFound) {
		m.Delete(w, name)
	}
	return value, err
}

// Delete expires the cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.cookie(name, "", -1))
}

func (m *Manager) sign(name string, value []byte) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(name))
	mac.Write([]byte{0})
	mac.Write(value)
	return mac.Sum(nil)
}

func (m *Manager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: m.sameSite,
	}
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
