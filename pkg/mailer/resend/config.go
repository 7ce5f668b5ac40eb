package resend

// Config holds the relay credentials. It is constructed once by the
// composition root and passed in; there is no package-level client.
type Config struct {
	APIKey      string `env:"RESEND_API_KEY"`
	SenderEmail string `env:"RESEND_FROM_EMAIL" envDefault:"noreply@example.com"`
	SenderName  string `env:"RESEND_FROM_NAME"`
	// BaseURL overrides the API endpoint; used by tests.
	BaseURL string `env:"RESEND_BASE_URL"`
}
