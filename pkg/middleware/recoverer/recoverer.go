// Package recoverer provides a panic recovery middleware that answers with a
// JSON error body instead of dropping the connection.
package recoverer

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"
)

// Message is the client-facing error text of a recovered panic.
const Message = "internal server error"

func New(logger *slog.Logger) func(http.Handler) http.Handler {
	const op = "middleware.recoverer"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error(
					"panic recovered",
					slog.Group(op,
						slog.Any("panic", rvr),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					),
				)

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, map[string]string{"error": Message})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
