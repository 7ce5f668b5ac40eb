package oauth

// GoogleConfig holds the OAuth client used for Gmail mailboxes.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:","`
}

// MicrosoftConfig holds the OAuth client used for Outlook mailboxes.
type MicrosoftConfig struct {
	ClientID     string   `env:"MICROSOFT_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"MICROSOFT_OAUTH_CLIENT_SECRET"`
	Tenant       string   `env:"MICROSOFT_OAUTH_TENANT" envDefault:"common"`
	Scopes       []string `env:"MICROSOFT_OAUTH_SCOPES" envSeparator:","`
}

// Configured reports whether both client credentials are present.
func (c GoogleConfig) Configured() bool { return c.ClientID != "" && c.ClientSecret != "" }

// Configured reports whether both client credentials are present.
func (c MicrosoftConfig) Configured() bool { return c.ClientID != "" && c.ClientSecret != "" }
