package server

// Handler declares routes on a router.
//
// Example:
//
//	type CampaignHandler struct {
//	    repo *repository.Repository
//	}
//
//	func (h *CampaignHandler) Routes(r server.Router) {
//	    r.GET("/campaigns", h.list)
//	    r.POST("/campaigns", h.create)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error hands it to the server's ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from handlers.
type ErrorHandler func(Context, error) error
