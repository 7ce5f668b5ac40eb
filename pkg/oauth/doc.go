// Package oauth issues authorized HTTP clients for linked mailboxes.
//
// A Provider wraps the oauth2 client configuration of one mail platform
// (Google or Microsoft). Stored mailbox Credentials are turned into an
// http.Client that attaches the bearer token and refreshes it when it
// expires:
//
//	provider, err := oauth.NewGoogleProvider(oauth.GoogleConfig{
//		ClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
//		ClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := provider.Client(ctx, oauth.Credentials{
//		AccessToken:  row.AccessToken,
//		RefreshToken: row.RefreshToken,
//		Expiry:       row.ExpiresAt,
//	})
//
// Use WithHTTPClient to route token refresh and API traffic through a
// custom transport, for example an httptest server in unit tests.
package oauth
