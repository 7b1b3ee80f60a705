package httpmw

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cdr.dev/slog/v3"

	"github.com/printwatch/printwatch/printd/httpapi"
)

// Logger logs one line per request once the handler returns. Fields added
// through RequestLoggerFromContext are included. It requires
// httpapi.StatusWriterMiddleware to run first.
func Logger(log slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sw, ok := rw.(*httpapi.StatusWriter)
			if !ok {
				panic(fmt.Sprintf("ResponseWriter not a *httpapi.StatusWriter; got %T", rw))
			}

			rlc := &RequestLogger{fields: map[string]any{}}
			ctx := context.WithValue(r.Context(), requestLoggerContextKey{}, rlc)
			next.ServeHTTP(sw, r.WithContext(ctx))

			// Don't log successful health checks.
			if r.URL.Path == "/healthz" && sw.Status == http.StatusOK {
				return
			}

			took := time.Since(start)
			fields := []slog.Field{
				slog.F("path", r.URL.Path),
				slog.F("proto", r.Proto),
				slog.F("remote_addr", r.RemoteAddr),
				slog.F("status_code", sw.Status),
				slog.F("took", took),
				slog.F("latency_ms", float64(took/time.Millisecond)),
			}
			if rid, ok := r.Context().Value(requestIDContextKey{}).(fmt.Stringer); ok {
				fields = append(fields, slog.F("request_id", rid.String()))
			}
			fields = append(fields, rlc.slogFields()...)
			if sw.Status >= http.StatusInternalServerError {
				fields = append(fields, slog.F("response_body", string(sw.ResponseBody())))
				// Warn rather than error: 5xx includes client disconnects.
				log.Warn(ctx, r.Method, fields...)
				return
			}
			log.Debug(ctx, r.Method, fields...)
		})
	}
}

// RequestLogger collects extra fields for the request's log line.
type RequestLogger struct {
	mu     sync.Mutex
	fields map[string]any
}

type requestLoggerContextKey struct{}

// RequestLoggerFromContext returns nil outside of the Logger middleware.
func RequestLoggerFromContext(ctx context.Context) *RequestLogger {
	rlc, _ := ctx.Value(requestLoggerContextKey{}).(*RequestLogger)
	return rlc
}

func (l *RequestLogger) WithFields(fields map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, v := range fields {
		l.fields[k] = v
	}
}

func (l *RequestLogger) slogFields() []slog.Field {
	l.mu.Lock()
	defer l.mu.Unlock()
	fields := make([]slog.Field, 0, len(l.fields))
	for k, v := range l.fields {
		fields = append(fields, slog.F(k, v))
	}
	return fields
}
