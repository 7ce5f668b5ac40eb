// Package handlers exposes the outreach API over HTTP.
//
// Every handler takes an authentication middleware and applies it to its
// own routes, so handlers can be composed freely under one server:
//
//	auth := middlewares.JWT(secret)
//	server.WithHandlers(
//		handlers.NewCampaignHandler(repo, stats, auth),
//		handlers.NewSendHandler(svc, auth),
//		handlers.NewMailboxHandler(repo, auth),
//	)
package handlers

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/internal/repository"
	"github.com/dmitrymomot/outreach/internal/server"
	"github.com/dmitrymomot/outreach/middlewares"
)

// currentUser builds the caller identity from the JWT claims. It returns the
// zero User when the request is anonymous.
func currentUser(c server.Context) outreach.User {
	claims := middlewares.GetJWTClaims(c)
	if claims == nil {
		return outreach.User{}
	}
	return outreach.User{ID: claims.Subject, Name: claims.Name, Email: claims.Email}
}

// requireUser returns the caller's ID or a 401.
func requireUser(c server.Context) (string, error) {
	u := currentUser(c)
	if u.ID == "" {
		return "", server.ErrUnauthorized("Unauthorized", server.WithErrorCode(string(outreach.KindUnauthorized)))
	}
	return u.ID, nil
}

// httpError translates domain and storage errors into HTTP errors. Anything
// unrecognised is returned as is and rendered as an opaque 500.
func httpError(err error) error {
	if err == nil {
		return nil
	}
	if he := server.AsHTTPError(err); he != nil {
		return he
	}

	var oe *outreach.Error
	switch {
	case errors.As(err, &oe):
		return server.NewHTTPError(oe.Kind.HTTPStatus(), oe.Message,
			server.WithErrorCode(string(oe.Kind)), server.WithError(err))
	case errors.Is(err, outreach.ErrRecordNotFound):
		return server.ErrNotFound("resource not found",
			server.WithErrorCode(string(outreach.KindNotFound)), server.WithError(err))
	case errors.Is(err, repository.ErrDuplicate):
		return server.NewHTTPError(http.StatusConflict, "resource already exists",
			server.WithErrorCode("duplicate"), server.WithError(err))
	}
	return err
}
