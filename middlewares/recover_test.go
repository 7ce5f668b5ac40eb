package middlewares_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/internal/server"
	"github.com/dmitrymomot/outreach/middlewares"
)

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("panic becomes opaque 500", func(t *testing.T) {
		t.Parallel()
		ts := newServer(t, []server.Middleware{middlewares.Recover()}, http.MethodGet, "/", func(server.Context) error {
			panic("secret detail")
		})

		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
		resp, body := do(t, req)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "internal server error", body["error"])
		assert.NotContains(t, body["error"], "secret")
	})

	t.Run("passes through when no panic", func(t *testing.T) {
		t.Parallel()
		ts := newServer(t, []server.Middleware{middlewares.Recover()}, http.MethodGet, "/", func(c server.Context) error {
			return c.NoContent(http.StatusNoContent)
		})

		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
		resp, _ := do(t, req)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

func TestRecover_StackOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		opts      []middlewares.RecoverOption
		wantStack bool
		maxStack  int
	}{
		{name: "default stack", wantStack: true, maxStack: middlewares.DefaultStackSize},
		{name: "bounded stack", opts: []middlewares.RecoverOption{middlewares.WithRecoverStackSize(64)}, wantStack: true, maxStack: 64},
		{name: "stack disabled", opts: []middlewares.RecoverOption{middlewares.WithRecoverDisablePrintStack()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			errs := make(chan error, 1)
			capture := func(next server.HandlerFunc) server.HandlerFunc {
				return func(c server.Context) error {
					err := next(c)
					errs <- err
					return err
				}
			}
			ts := newServer(t, nil, http.MethodPost, "/api/campaigns/{id}/send", func(server.Context) error {
				panic("boom")
			}, capture, middlewares.Recover(tt.opts...))

			req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/campaigns/42/send", nil)
			resp, _ := do(t, req)
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

			pe, ok := middlewares.AsPanicError(<-errs)
			require.True(t, ok)
			assert.Equal(t, "/api/campaigns/{id}/send", pe.Route)
			if !tt.wantStack {
				assert.Nil(t, pe.Stack)
				return
			}
			assert.NotEmpty(t, pe.Stack)
			assert.LessOrEqual(t, len(pe.Stack), tt.maxStack)
		})
	}
}

func TestPanicError(t *testing.T) {
	t.Parallel()

	err := error(&middlewares.PanicError{Value: "boom"})
	wrapped := errors.Join(errors.New("outer"), err)

	require.True(t, middlewares.IsPanicError(wrapped))
	pe, ok := middlewares.AsPanicError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "boom", pe.Value)
	assert.Equal(t, "panic: boom", err.Error())

	routed := &middlewares.PanicError{Value: "boom", Route: "/api/campaigns/{id}/send"}
	assert.Equal(t, "panic in /api/campaigns/{id}/send: boom", routed.Error())

	_, ok = middlewares.AsPanicError(errors.New("plain"))
	assert.False(t, ok)
}
