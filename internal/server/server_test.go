package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/internal/server"
)

type routes func(r server.Router)

func (f routes) Routes(r server.Router) { f(r) }

func serve(t *testing.T, s *server.Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

type createReq struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestServer_Bind(t *testing.T) {
	t.Parallel()

	s := server.New(server.WithHandlers(routes(func(r server.Router) {
		r.POST("/things", func(c server.Context) error {
			var req createReq
			if err := c.Bind(&req); err != nil {
				return err
			}
			return c.JSON(http.StatusCreated, req)
		})
	})))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
		wantFields map[string]any
	}{
		{name: "valid", body: `{"name":"Q4","email":"a@b.io"}`, wantStatus: http.StatusCreated},
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest, wantError: "request body is empty"},
		{name: "malformed", body: `{"name":`, wantStatus: http.StatusBadRequest, wantError: "malformed JSON body"},
		{name: "unknown field", body: `{"name":"x","email":"a@b.io","extra":1}`, wantStatus: http.StatusBadRequest, wantError: "malformed JSON body"},
		{
			name:       "validation",
			body:       `{"name":"","email":"nope"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "validation failed",
			wantFields: map[string]any{"name": "is required", "email": "must be a valid email address"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, body := serve(t, s, http.MethodPost, "/things", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError == "" {
				assert.Equal(t, "Q4", body["name"])
				return
			}
			assert.Equal(t, tt.wantError, body["error"])
			assert.Equal(t, "invalid_input", body["code"])
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, body["fields"])
			}
		})
	}
}

func TestServer_ErrorRendering(t *testing.T) {
	t.Parallel()

	s := server.New(server.WithHandlers(routes(func(r server.Router) {
		r.GET("/conflict", func(server.Context) error {
			return server.ErrConflict("a send is already running", server.WithErrorCode("send_in_progress"))
		})
		r.GET("/plain", func(server.Context) error {
			return errors.New("pq: connection refused on 10.0.0.3")
		})
		r.GET("/late", func(c server.Context) error {
			_ = c.NoContent(http.StatusAccepted)
			return errors.New("after write")
		})
	})))

	t.Run("http error", func(t *testing.T) {
		t.Parallel()
		rec, body := serve(t, s, http.MethodGet, "/conflict", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "a send is already running", body["error"])
		assert.Equal(t, "send_in_progress", body["code"])
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	})

	t.Run("plain error is opaque", func(t *testing.T) {
		t.Parallel()
		rec, body := serve(t, s, http.MethodGet, "/plain", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal server error", body["error"])
		assert.Equal(t, "internal", body["code"])
		assert.NotContains(t, rec.Body.String(), "10.0.0.3")
	})

	t.Run("error after write keeps response", func(t *testing.T) {
		t.Parallel()
		rec, _ := serve(t, s, http.MethodGet, "/late", "")
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		t.Parallel()
		rec, body := serve(t, s, http.MethodGet, "/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", body["code"])
	})

	t.Run("wrong method", func(t *testing.T) {
		t.Parallel()
		rec, body := serve(t, s, http.MethodDelete, "/conflict", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "method_not_allowed", body["code"])
	})
}

func TestServer_CustomErrorHandler(t *testing.T) {
	t.Parallel()

	s := server.New(
		server.WithErrorHandler(func(c server.Context, err error) error {
			return c.JSON(http.StatusTeapot, map[string]string{"error": err.Error()})
		}),
		server.WithHandlers(routes(func(r server.Router) {
			r.GET("/", func(server.Context) error { return errors.New("brew") })
		})),
	)

	rec, body := serve(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "brew", body["error"])
}

type traceKey struct{}

func TestServer_MiddlewareOrderAndValues(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(name string) server.Middleware {
		return func(next server.HandlerFunc) server.HandlerFunc {
			return func(c server.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}
	setTrace := func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			c.Set(traceKey{}, "abc")
			return next(c)
		}
	}
	deny := func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			if c.Header("X-Deny") != "" {
				return server.ErrUnauthorized("denied", server.WithErrorCode("unauthorized"))
			}
			return next(c)
		}
	}

	s := server.New(
		server.WithMiddleware(tag("global-1"), setTrace, tag("global-2")),
		server.WithHandlers(routes(func(r server.Router) {
			r.Route("/api", func(r server.Router) {
				r.Use(deny)
				r.GET("/trace", func(c server.Context) error {
					order = append(order, "handler")
					return c.JSON(http.StatusOK, map[string]string{
						"trace": server.ContextValue[string](c, traceKey{}),
					})
				}, tag("route-1"), tag("route-2"))
			})
		})),
	)

	rec, body := serve(t, s, http.MethodGet, "/api/trace", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", body["trace"])
	assert.Equal(t, []string{"global-1", "global-2", "route-1", "route-2", "handler"}, order)

	req := httptest.NewRequest(http.MethodGet, "/api/trace", nil)
	req.Header.Set("X-Deny", "1")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_OpsEndpointsBypassMiddleware(t *testing.T) {
	t.Parallel()

	block := func(server.HandlerFunc) server.HandlerFunc {
		return func(server.Context) error { return server.ErrUnauthorized("blocked") }
	}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	failing := server.New(
		server.WithMiddleware(block),
		server.WithMount("/metrics", metrics),
		server.WithReadinessCheck("db", func(context.Context) error { return errors.New("down") }),
	)

	rec, _ := serve(t, failing, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serve(t, failing, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	failing.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusOK, mrec.Code)
	assert.Equal(t, "# metrics", mrec.Body.String())

	healthy := server.New(server.WithReadinessCheck("db", func(context.Context) error { return nil }))
	rec, _ = serve(t, healthy, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParamUUID(t *testing.T) {
	t.Parallel()

	s := server.New(server.WithHandlers(routes(func(r server.Router) {
		r.GET("/campaigns/{id}", func(c server.Context) error {
			id, err := server.ParamUUID(c, "id")
			if err != nil {
				return err
			}
			return c.JSON(http.StatusOK, map[string]string{"id": id.String()})
		})
	})))

	rec, body := serve(t, s, http.MethodGet, "/campaigns/6f1c1c3e-5d57-4d8e-9b4e-3f0b8f7b1a11", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "6f1c1c3e-5d57-4d8e-9b4e-3f0b8f7b1a11", body["id"])

	rec, body = serve(t, s, http.MethodGet, "/campaigns/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["code"])
}
