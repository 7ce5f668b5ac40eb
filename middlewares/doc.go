// Package middlewares provides the HTTP middleware of the outreach API.
//
// # Request ID
//
// RequestID assigns an ID to each request. Incoming X-Request-ID style
// headers are honoured, otherwise a UUID is generated. Combine it with
// RequestIDExtractor so every log line of the request carries request_id:
//
//	log, _ := logger.New(cfg.Log, middlewares.RequestIDExtractor(), middlewares.UserIDExtractor())
//	srv := server.New(
//	    server.WithLogger(log),
//	    server.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	)
//
// # Recover
//
// Recover turns handler panics into a *PanicError, which the server renders
// as an opaque 500.
//
// # JWT
//
// JWT validates HS256 bearer tokens and stores the parsed Claims; handlers
// read them with GetJWTClaims. Tokens must carry a subject.
//
// # Metrics and access log
//
// Metrics records request counts and latencies on a Prometheus registerer,
// labelled by route pattern. Logger writes one line per request.
//
// # Recommended Order
//
//	server.WithMiddleware(
//	    middlewares.RequestID(),     // first: every later log line has the ID
//	    middlewares.Logger(log),
//	    middlewares.Metrics(reg),
//	    middlewares.Recover(),       // innermost global: catches handler panics
//	)
//
// JWT is applied per route group so ops endpoints stay public.
package middlewares
