package middlewares

import (
	"context"
	"errors"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrymomot/outreach/internal/server"
	"github.com/dmitrymomot/outreach/pkg/logger"
)

// Claims are the JWT claims of an API caller. The subject is the user ID.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// claimsKey is the context key of the parsed claims.
type claimsKey struct{}

// JWTConfig configures the JWT middleware.
type JWTConfig struct {
	Extractor server.Extractor
	Issuer    string
}

// JWTOption configures JWTConfig.
type JWTOption func(*JWTConfig)

// WithJWTExtractor sets a custom token extractor chain.
func WithJWTExtractor(ext server.Extractor) JWTOption {
	return func(cfg *JWTConfig) {
		cfg.Extractor = ext
	}
}

// WithJWTIssuer requires tokens to carry the given issuer.
func WithJWTIssuer(iss string) JWTOption {
	return func(cfg *JWTConfig) {
		cfg.Issuer = iss
	}
}

// JWT returns middleware that validates an HS256 token signed with secret
// and stores its claims in the context.
func JWT(secret []byte, opts ...JWTOption) server.Middleware {
	cfg := &JWTConfig{
		Extractor: server.NewExtractor(server.FromBearerToken()),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(parserOpts...)

	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			token, ok := cfg.Extractor.Extract(c)
			if !ok {
				return server.ErrUnauthorized("missing authentication token", server.WithErrorCode("unauthorized"))
			}

			claims := &Claims{}
			if _, err := parser.ParseWithClaims(token, claims, keyFunc); err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return server.ErrUnauthorized("token expired", server.WithErrorCode("unauthorized"))
				}
				return server.ErrUnauthorized("invalid token", server.WithErrorCode("unauthorized"), server.WithError(err))
			}
			if claims.Subject == "" {
				return server.ErrUnauthorized("token has no subject", server.WithErrorCode("unauthorized"))
			}

			c.Set(claimsKey{}, claims)
			return next(c)
		}
	}
}

// GetJWTClaims returns the parsed claims, or nil when JWT did not run.
func GetJWTClaims(c server.Context) *Claims {
	return server.ContextValue[*Claims](c, claimsKey{})
}

// UserIDExtractor adds "user_id" to every log entry of an authenticated request.
func UserIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if claims, ok := ctx.Value(claimsKey{}).(*Claims); ok && claims.Subject != "" {
			return slog.String("user_id", claims.Subject), true
		}
		return slog.Attr{}, false
	}
}
