// Package logger provides structured logging for login flows, with context
// extraction and optional Sentry integration.
//
// It extends log/slog with attributes pulled from the context on every call
// (login attempt, provider), redaction of OAuth secrets and error reporting
// to Sentry with graceful fallback when Sentry is not configured.
//
// # Basic Usage
//
//	log := logger.New(logger.LoginAttemptExtractor(), logger.ProviderExtractor())
//
//	ctx := logger.WithProvider(r.Context(), "github")
//	ctx = logger.WithLoginAttempt(ctx, attemptID)
//	log.WarnContext(ctx, "login failed", slog.String("error", err.Error()))
//	// {"level":"WARN","msg":"login failed","error":"...","login_attempt":"...","provider":"github"}
//
// # Sentry Integration
//
//	log := logger.NewWithSentry(logger.SentryConfig{
//		DSN:         os.Getenv("SENTRY_DSN"),
//		Environment: "production",
//		MinLevel:    slog.LevelWarn,
//	}, logger.ProviderExtractor())
//
// Errors create Sentry issues; warnings are stored as logs. With an empty
// DSN the logger writes to stdout only, so development and production share
// one code path.
//
// # Context Extractors
//
// A ContextExtractor returns the attribute to add, or false to skip it.
// Extractors run on each record, so request-scoped values are always fresh.
// NewHandler wraps any slog.Handler with a set of extractors.
//
// # Redaction
//
// Attributes named accesstoken, access_token, client_secret, code or token
// (any case, also inside groups) are written as "[REDACTED]":
//
//	log.Info("profile", slog.Any("extra", res.ExtraData))
//	// ..."extra":{"accesstoken":"[REDACTED]","id":"42",...}
//
// Values nested in maps or structs are not inspected.
//
// NewNope returns a logger that discards everything; it is the default when
// no logger is configured.
package logger
