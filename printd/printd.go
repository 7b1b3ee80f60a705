// Package printd serves the printwatch HTTP API.
package printd

import (
	"net/http"
	"time"

	"cdr.dev/slog/v3"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/xerrors"

	"github.com/printwatch/printwatch/buildinfo"
	"github.com/printwatch/printwatch/printd/cutledger"
	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/devicestatus"
	"github.com/printwatch/printwatch/printd/httpapi"
	"github.com/printwatch/printwatch/printd/httpmw"
	"github.com/printwatch/printwatch/printd/ingest"
	"github.com/printwatch/printwatch/printsdk"
)

// Options are the parameters for the printwatch API.
type Options struct {
	Logger   slog.Logger
	Database database.Store
	// Clock defaults to the real clock.
	Clock quartz.Clock

	// OfflineThreshold is how old the last report may be for a device to
	// still count as online. Defaults to devicestatus.DefaultOfflineThreshold.
	OfflineThreshold time.Duration
	// Location is the timezone cuts are labelled in. Defaults to UTC.
	Location *time.Location

	// APIRateLimit is the per-minute request limit per tenant or IP.
	// Setting a rate limit <0 disables the rate limiter.
	APIRateLimit   int
	AllowedOrigins []string

	// PrometheusRegistry receives the API's metrics. Metrics are not
	// collected when nil.
	PrometheusRegistry prometheus.Registerer
}

type API struct {
	*Options

	// RootHandler serves every route.
	RootHandler chi.Router

	ingestor *ingest.Ingestor
	ledger   *cutledger.Ledger
}

// New constructs the printwatch API.
func New(options *Options) (*API, error) {
	if options == nil {
		options = &Options{}
	}
	if options.Database == nil {
		return nil, xerrors.New("database is required")
	}
	if options.Clock == nil {
		options.Clock = quartz.NewReal()
	}
	if options.OfflineThreshold <= 0 {
		options.OfflineThreshold = devicestatus.DefaultOfflineThreshold
	}
	if options.Location == nil {
		options.Location = time.UTC
	}
	if options.APIRateLimit == 0 {
		options.APIRateLimit = 512
	}

	var (
		ingestMetrics *ingest.Metrics
		ledgerMetrics *cutledger.Metrics
		err           error
	)
	if options.PrometheusRegistry != nil {
		ingestMetrics, err = ingest.NewMetrics(options.PrometheusRegistry)
		if err != nil {
			return nil, xerrors.Errorf("register ingest metrics: %w", err)
		}
		ledgerMetrics, err = cutledger.NewMetrics(options.PrometheusRegistry)
		if err != nil {
			return nil, xerrors.Errorf("register cut ledger metrics: %w", err)
		}
	}

	api := &API{
		Options: options,
		ingestor: ingest.New(ingest.Options{
			Logger:   options.Logger.Named("ingest"),
			Database: options.Database,
			Clock:    options.Clock,
			Metrics:  ingestMetrics,
		}),
		ledger: cutledger.New(cutledger.Options{
			Logger:   options.Logger.Named("cutledger"),
			Database: options.Database,
			Clock:    options.Clock,
			Location: options.Location,
			Metrics:  ledgerMetrics,
		}),
	}

	r := chi.NewRouter()
	api.RootHandler = r

	r.Use(
		httpapi.StatusWriterMiddleware,
		httpmw.Recover(options.Logger),
		httpmw.AttachRequestID,
		httpmw.Logger(options.Logger.Named("http")),
	)
	if options.PrometheusRegistry != nil {
		r.Use(httpmw.Prometheus(options.PrometheusRegistry))
	}
	if len(options.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: options.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type", printsdk.APIKeyHeader},
			ExposedHeaders: []string{httpmw.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	r.NotFound(func(rw http.ResponseWriter, r *http.Request) {
		httpapi.Write(r.Context(), rw, http.StatusNotFound, printsdk.Response{
			Message: "Route not found.",
		})
	})
	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte("OK"))
	})
	r.Get("/buildinfo", func(rw http.ResponseWriter, r *http.Request) {
		httpapi.Write(r.Context(), rw, http.StatusOK, printsdk.BuildInfoResponse{
			ExternalURL: buildinfo.ExternalURL(),
			Version:     buildinfo.Version(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			httpmw.ExtractTenant(options.Database),
			httpmw.RateLimit(options.APIRateLimit, time.Minute),
		)
		r.Post("/telemetry", api.postTelemetry)
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", api.devices)
			r.Route("/{device}", func(r chi.Router) {
				r.Use(httpmw.ExtractDeviceParam(options.Database))
				r.Get("/", api.device)
				r.Post("/cuts", api.postDeviceCut)
				r.Get("/cuts", api.deviceCuts)
			})
		})
		r.Route("/cuts/{cut}", func(r chi.Router) {
			r.Use(httpmw.ExtractCutParam(options.Database))
			r.Get("/", api.cut)
			r.Get("/report", api.cutReport)
		})
	})

	return api, nil
}

func (api *API) now() time.Time {
	return api.Clock.Now()
}
