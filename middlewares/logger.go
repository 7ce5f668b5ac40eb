package middlewares

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/outreach/internal/server"
)

// Logger returns middleware writing one access log line per request.
func Logger(log *slog.Logger) server.Middleware {
	return func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			start := time.Now()
			err := next(c)

			status := responseStatus(c, err)
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			}

			attrs := []slog.Attr{
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
			}
			if sw, ok := c.Response().(interface{ Size() int64 }); ok {
				attrs = append(attrs, slog.Int64("bytes", sw.Size()))
			}
			log.LogAttrs(c, level, "http request", attrs...)
			return err
		}
	}
}
