package openauth

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/openauth/pkg/oauth"
)

// Login outcomes used as the "outcome" label.
const (
	OutcomeSuccess             = "success"
	OutcomeMissingCode         = "missing_code"
	OutcomeTokenExchange       = "token_exchange"
	OutcomeEmptyToken          = "empty_token"
	OutcomeProfileFetch        = "profile_fetch"
	OutcomeMissingUserID       = "missing_user_id"
	OutcomeUnknownProvider     = "unknown_provider"
	OutcomeCorrelationMismatch = "correlation_mismatch"
	OutcomeError               = "error"
)

// unknownProviderLabel keeps arbitrary callback input out of label values.
const unknownProviderLabel = "unknown"

type metrics struct {
	logins   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openauth_logins_total",
			Help: "Completed login callbacks by provider and outcome.",
		}, []string{"provider", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "openauth_login_duration_seconds",
			Help:    "Time spent verifying a login callback, including provider calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
	}

	var err error
	if m.logins, err = register(reg, m.logins); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing the collector already registered under the
// same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) observe(provider, outcome string, elapsed time.Duration) {
	m.logins.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// outcomeOf maps a CompleteLogin or Manager error to its outcome label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrUnknownProvider):
		return OutcomeUnknownProvider
	case errors.Is(err, ErrCorrelationMismatch):
		return OutcomeCorrelationMismatch
	case errors.Is(err, oauth.ErrMissingCode):
		return OutcomeMissingCode
	case errors.Is(err, oauth.ErrEmptyToken):
		return OutcomeEmptyToken
	case errors.Is(err, oauth.ErrTokenExchange):
		return OutcomeTokenExchange
	case errors.Is(err, oauth.ErrMissingUserID):
		return OutcomeMissingUserID
	case errors.Is(err, oauth.ErrProfileFetch):
		return OutcomeProfileFetch
	default:
		return OutcomeError
	}
}
