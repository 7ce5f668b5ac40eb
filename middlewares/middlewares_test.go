package middlewares_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/internal/server"
)

const testJWTSecret = "test-secret-key-at-least-32-bytes!"

// routeFunc registers a single route for a test server.
type routeFunc func(r server.Router)

func (f routeFunc) Routes(r server.Router) { f(r) }

func newServer(t *testing.T, mw []server.Middleware, method, path string, h server.HandlerFunc, routeMW ...server.Middleware) *httptest.Server {
	t.Helper()

	srv := server.New(
		server.WithMiddleware(mw...),
		server.WithHandlers(routeFunc(func(r server.Router) {
			switch method {
			case http.MethodPost:
				r.POST(path, h, routeMW...)
			default:
				r.GET(path, h, routeMW...)
			}
		})),
	)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func signToken(t *testing.T, claims jwt.Claims, method jwt.SigningMethod, key any) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(sub string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   sub,
		"name":  "Jane Doe",
		"email": "jane@acme.io",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}
