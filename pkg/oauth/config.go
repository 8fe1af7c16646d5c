package oauth

// FacebookConfig holds Facebook OAuth configuration.
// Empty endpoint fields fall back to the public Facebook endpoints.
type FacebookConfig struct {
	ClientID     string `env:"FACEBOOK_OAUTH_CLIENT_ID,required"`
	ClientSecret string `env:"FACEBOOK_OAUTH_CLIENT_SECRET,required"`
	Scope        string `env:"FACEBOOK_OAUTH_SCOPE" envDefault:"email"`
	AuthURL      string `env:"FACEBOOK_OAUTH_AUTH_URL"`
	TokenURL     string `env:"FACEBOOK_OAUTH_TOKEN_URL"`
	GraphURL     string `env:"FACEBOOK_OAUTH_GRAPH_URL"`
}

// GitHubConfig holds GitHub OAuth configuration.
type GitHubConfig struct {
	ClientID     string   `env:"GITHUB_OAUTH_CLIENT_ID,required"`
	ClientSecret string   `env:"GITHUB_OAUTH_CLIENT_SECRET,required"`
	Scopes       []string `env:"GITHUB_OAUTH_SCOPES" envSeparator:","`
	AuthURL      string   `env:"GITHUB_OAUTH_AUTH_URL"`
	TokenURL     string   `env:"GITHUB_OAUTH_TOKEN_URL"`
	UserURL      string   `env:"GITHUB_OAUTH_USER_URL"`
}

// GoogleConfig holds Google OAuth configuration.
// Scopes may be short names ("userinfo.email") or absolute scope URLs.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID,required"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET,required"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:","`
	AuthURL      string   `env:"GOOGLE_OAUTH_AUTH_URL"`
	TokenURL     string   `env:"GOOGLE_OAUTH_TOKEN_URL"`
	UserInfoURL  string   `env:"GOOGLE_OAUTH_USERINFO_URL"`
}
