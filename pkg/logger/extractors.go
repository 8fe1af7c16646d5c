package logger

import (
	"context"
	"log/slog"
)

type (
	loginAttemptKey struct{}
	providerKey     struct{}
)

// WithLoginAttempt returns a context carrying the login attempt identifier.
func WithLoginAttempt(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, loginAttemptKey{}, id)
}

// WithProvider returns a context carrying the OAuth provider name.
func WithProvider(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, providerKey{}, name)
}

// LoginAttemptExtractor adds "login_attempt" to records logged with a context
// prepared by WithLoginAttempt.
func LoginAttemptExtractor() ContextExtractor {
	return stringExtractor(loginAttemptKey{}, "login_attempt")
}

// ProviderExtractor adds "provider" to records logged with a context prepared
// by WithProvider.
func ProviderExtractor() ContextExtractor {
	return stringExtractor(providerKey{}, "provider")
}

func stringExtractor(key any, attr string) ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			return slog.String(attr, v), true
		}
		return slog.Attr{}, false
	}
}
