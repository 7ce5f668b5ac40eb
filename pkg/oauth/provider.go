package oauth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

const (
	// GoogleProviderName identifies Gmail mailboxes.
	GoogleProviderName = "google"
	// MicrosoftProviderName identifies Outlook mailboxes.
	MicrosoftProviderName = "microsoft"
)

// GoogleDefaultScopes returns the scopes needed to send mail through Gmail.
func GoogleDefaultScopes() []string {
	return []string{"https://www.googleapis.com/auth/gmail.send"}
}

// MicrosoftDefaultScopes returns the scopes needed to send mail through Microsoft Graph.
func MicrosoftDefaultScopes() []string {
	return []string{"offline_access", "https://graph.microsoft.com/Mail.Send"}
}

// Credentials are the stored tokens of a linked mailbox.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Token converts stored credentials into an oauth2 token.
func (c Credentials) Token() (*oauth2.Token, error) {
	if c.AccessToken == "" && c.RefreshToken == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       c.Expiry,
	}, nil
}

// Provider issues HTTP clients authorized on behalf of a mailbox owner.
// Expired access tokens are refreshed transparently.
type Provider struct {
	name       string
	config     *oauth2.Config
	httpClient *http.Client
}

// NewGoogleProvider creates a provider for Gmail mailboxes.
func NewGoogleProvider(cfg GoogleConfig, opts ...Option) (*Provider, error) {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = GoogleDefaultScopes()
	}
	return newProvider(GoogleProviderName, cfg.ClientID, cfg.ClientSecret, scopes, google.Endpoint, opts)
}

// NewMicrosoftProvider creates a provider for Outlook mailboxes.
func NewMicrosoftProvider(cfg MicrosoftConfig, opts ...Option) (*Provider, error) {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = MicrosoftDefaultScopes()
	}
	tenant := cfg.Tenant
	if tenant == "" {
		tenant = "common"
	}
	return newProvider(MicrosoftProviderName, cfg.ClientID, cfg.ClientSecret, scopes, microsoft.AzureADEndpoint(tenant), opts)
}

func newProvider(name, clientID, clientSecret string, scopes []string, endpoint oauth2.Endpoint, opts []Option) (*Provider, error) {
	if clientID == "" {
		return nil, ErrMissingClientID
	}
	if clientSecret == "" {
		return nil, ErrMissingClientSecret
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return &Provider{
		name: name,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		httpClient: o.httpClient,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Endpoint returns the OAuth endpoint used for token refresh.
func (p *Provider) Endpoint() oauth2.Endpoint {
	return p.config.Endpoint
}

// Client returns an HTTP client that authorizes requests with the mailbox token.
func (p *Provider) Client(ctx context.Context, creds Credentials) (*http.Client, error) {
	tok, err := creds.Token()
	if err != nil {
		return nil, err
	}
	return p.config.Client(p.context(ctx), tok), nil
}

func (p *Provider) context(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}
