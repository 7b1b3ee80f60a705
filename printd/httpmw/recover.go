package httpmw

import (
	"net/http"
	"runtime/debug"

	"cdr.dev/slog/v3"

	"github.com/printwatch/printwatch/printd/httpapi"
)

func Recover(log slog.Logger) func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				log.Warn(r.Context(),
					"panic serving http request (recovered)",
					slog.F("panic", rec),
					slog.F("stack", string(debug.Stack())),
				)

				var hijacked bool
				if sw, ok := w.(*httpapi.StatusWriter); ok {
					hijacked = sw.Hijacked
				}
				// Only try to write errors on non-hijacked responses.
				if !hijacked {
					httpapi.InternalServerError(w, nil)
				}
			}()

			h.ServeHTTP(w, r)
		})
	}
}
