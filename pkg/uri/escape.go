package uri

import (
	"net/url"
	"strings"
)

// EscapeRFC3986 percent-encodes value per RFC 3986.
// Only ALPHA, DIGIT and "-._~" are left literal; space is encoded as %20.
func EscapeRFC3986(value string) string {
	if value == "" {
		return value
	}

	// QueryEscape already escapes the RFC 2396 marks "!*'()" and encodes a
	// literal "+" as %2B, so every remaining "+" stands for a space.
	escaped := url.QueryEscape(value)
	if !strings.Contains(escaped, "+") {
		return escaped
	}
	return strings.ReplaceAll(escaped, "+", "%20")
}

// NormalizeHexEncoding uppercases the two characters that follow every '%'
// in s, e.g. "Login.aspx?ReturnUrl=%2fAccount" becomes
// "Login.aspx?ReturnUrl=%2FAccount".
func NormalizeHexEncoding(s string) string {
	if strings.IndexByte(s, '%') < 0 {
		return s
	}

	b := []byte(s)
	for i := 0; i < len(b)-2; i++ {
		if b[i] != '%' {
			continue
		}
		b[i+1] = upper(b[i+1])
		b[i+2] = upper(b[i+2])
		i += 2
	}
	return string(b)
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
