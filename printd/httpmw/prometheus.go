package httpmw

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/printwatch/printwatch/printd/httpapi"
)

// Prometheus records request counts, in-flight requests and latency labelled
// by the chi route pattern rather than the raw path, so device and cut IDs
// do not explode the label cardinality. It requires
// httpapi.StatusWriterMiddleware to run first.
func Prometheus(register prometheus.Registerer) func(http.Handler) http.Handler {
	factory := promauto.With(register)
	requestsProcessed := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "printwatch",
		Subsystem: "api",
		Name:      "requests_processed_total",
		Help:      "The total number of processed API requests.",
	}, []string{"code", "method", "path"})
	requestsConcurrent := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "printwatch",
		Subsystem: "api",
		Name:      "concurrent_requests",
		Help:      "The number of concurrent API requests.",
	})
	requestsDist := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "printwatch",
		Subsystem: "api",
		Name:      "request_latencies_seconds",
		Help:      "Latency distribution of requests in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.010, 0.025, 0.050, 0.100, 0.500, 1, 5, 10, 30},
	}, []string{"method", "path"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw, ok := w.(*httpapi.StatusWriter)
			if !ok {
				panic("dev error: http.ResponseWriter is not *httpapi.StatusWriter")
			}

			requestsConcurrent.Inc()
			defer requestsConcurrent.Dec()

			next.ServeHTTP(sw, r)

			method := r.Method
			path := routePattern(r)
			requestsProcessed.WithLabelValues(strconv.Itoa(sw.Status), method, path).Inc()
			requestsDist.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		})
	}
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "UNKNOWN"
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return "UNKNOWN"
}
