package uri

import (
	"net/url"
	"strings"
)

// Pair is a single query argument. Order of pairs is significant.
type Pair struct {
	Key   string
	Value string
}

// BuildQueryString joins pairs as key=value with '&', escaping keys and values
// with EscapeRFC3986. Pairs with an empty key are skipped.
// Returns "" for no pairs.
func BuildQueryString(pairs ...Pair) string {
	if len(pairs) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(pairs) * 16)
	for _, p := range pairs {
		if p.Key == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(EscapeRFC3986(p.Key))
		sb.WriteByte('=')
		sb.WriteString(EscapeRFC3986(p.Value))
	}
	return sb.String()
}

// ParseQuery splits a raw query string into pairs, keeping their order.
// A leading '?' is ignored. Segments that fail to unescape are kept as is.
func ParseQuery(raw string) []Pair {
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return nil
	}

	pairs := make([]Pair, 0, strings.Count(raw, "&")+1)
	for part := range strings.SplitSeq(raw, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		pairs = append(pairs, Pair{Key: unescape(key), Value: unescape(value)})
	}
	return pairs
}

// AppendQueryArgs returns a copy of u with pairs appended after its existing
// query. Returns u itself when there is nothing to append.
func AppendQueryArgs(u *url.URL, pairs ...Pair) *url.URL {
	extra := BuildQueryString(pairs...)
	if extra == "" {
		return u
	}

	out := *u
	if out.RawQuery != "" {
		out.RawQuery += "&" + extra
	} else {
		out.RawQuery = extra
	}
	out.ForceQuery = false
	return &out
}

// StripQueryArgsWithPrefix returns a copy of u without the query arguments
// whose key starts with prefix, compared case-insensitively.
// If no key matches, u itself is returned.
func StripQueryArgsWithPrefix(u *url.URL, prefix string) *url.URL {
	if prefix == "" || u.RawQuery == "" {
		return u
	}

	pairs := ParseQuery(u.RawQuery)
	kept := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if !hasPrefixFold(p.Key, prefix) {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(pairs) {
		return u
	}

	out := *u
	out.RawQuery = BuildQueryString(kept...)
	return &out
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func unescape(s string) string {
	v, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return v
}
