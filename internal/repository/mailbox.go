package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/outreach/internal/outreach"
)

// MailboxCredentials implements outreach.CredentialStore.
func (r *Repository) MailboxCredentials(ctx context.Context, userID string) (*outreach.MailboxCredentials, error) {
	var (
		creds   outreach.MailboxCredentials
		expires *time.Time
	)
	err := r.pool.QueryRow(ctx,
		`SELECT provider, email, access_token, refresh_token, expires_at
		 FROM mailbox_accounts WHERE user_id = $1`,
		userID,
	).Scan(&creds.Provider, &creds.Email, &creds.AccessToken, &creds.RefreshToken, &expires)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if expires != nil {
		creds.Expiry = *expires
	}
	return &creds, nil
}

// SaveMailbox stores or replaces the connected mailbox of userID.
func (r *Repository) SaveMailbox(ctx context.Context, userID string, creds outreach.MailboxCredentials) error {
	var expires *time.Time
	if !creds.Expiry.IsZero() {
		expires = &creds.Expiry
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO mailbox_accounts (user_id, provider, email, access_token, refresh_token, expires_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (user_id) DO UPDATE SET
		   provider = EXCLUDED.provider,
		   email = EXCLUDED.email,
		   access_token = EXCLUDED.access_token,
		   refresh_token = EXCLUDED.refresh_token,
		   expires_at = EXCLUDED.expires_at,
		   updated_at = now()`,
		userID, creds.Provider, creds.Email, creds.AccessToken, creds.RefreshToken, expires)
	return mapError(err)
}

// DeleteMailbox disconnects the mailbox of userID. Deleting a missing
// mailbox is not an error.
func (r *Repository) DeleteMailbox(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM mailbox_accounts WHERE user_id = $1`, userID)
	return err
}
