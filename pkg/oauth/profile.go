package oauth

// Well-known profile keys.
const (
	ProfileKeyID          = "id"
	ProfileKeyUsername    = "username"
	ProfileKeyName        = "name"
	ProfileKeyAccessToken = "accesstoken"
)

// Profile is the normalized user data returned by a provider.
// A successful login always carries at least "id" and "accesstoken".
type Profile map[string]string

// ID returns the provider's user identifier.
func (p Profile) ID() string {
	return p[ProfileKeyID]
}

// DisplayName returns "username", falling back to "name", then "id".
func (p Profile) DisplayName() string {
	if v := p[ProfileKeyUsername]; v != "" {
		return v
	}
	if v := p[ProfileKeyName]; v != "" {
		return v
	}
	return p.ID()
}

// setIfNotEmpty stores value under key unless value is empty.
func (p Profile) setIfNotEmpty(key, value string) {
	if value != "" {
		p[key] = value
	}
}

// Result is the outcome of a completed login.
// A failed login carries only the provider name; the cause is returned
// separately by CompleteLogin for logging.
type Result struct {
	ExtraData      Profile
	Provider       string
	ProviderUserID string
	UserName       string
	Succeeded      bool
}

// Failed returns the failure result for provider.
func Failed(provider string) Result {
	return Result{Provider: provider}
}
