package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cdr.dev/slog/v3"
	"github.com/coder/serpent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/printwatch/printwatch/buildinfo"
	"github.com/printwatch/printwatch/printd"
	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/database/databasefake"
	"github.com/printwatch/printwatch/printd/devicestatus"
)

func (r *RootCmd) server() *serpent.Command {
	var (
		address          string
		inMemoryDatabase bool
		offlineThreshold time.Duration
		timezone         string
		promEnabled      bool
		promAddress      string
		apiRateLimit     int64
		allowedOrigins   []string
	)

	cmd := &serpent.Command{
		Use:        "server",
		Short:      "Start the printwatch API server",
		Middleware: serpent.RequireNArgs(0),
		Options: serpent.OptionSet{
			{
				Name:        "Address",
				Flag:        "address",
				Env:         envPrefix + "ADDRESS",
				Default:     "127.0.0.1:3000",
				Description: "Bind address of the API server.",
				Value:       serpent.StringOf(&address),
			},
			r.postgresOption(),
			{
				Name:        "In Memory Database",
				Flag:        "in-memory",
				Env:         envPrefix + "IN_MEMORY",
				Description: "Store everything in memory instead of PostgreSQL. Data is lost on exit.",
				Value:       serpent.BoolOf(&inMemoryDatabase),
				Hidden:      true,
			},
			{
				Name:        "Offline Threshold",
				Flag:        "offline-threshold",
				Env:         envPrefix + "OFFLINE_THRESHOLD",
				Default:     devicestatus.DefaultOfflineThreshold.String(),
				Description: "A device whose last report is older than this is shown as offline.",
				Value:       serpent.DurationOf(&offlineThreshold),
			},
			{
				Name:        "Timezone",
				Flag:        "timezone",
				Env:         envPrefix + "TIMEZONE",
				Default:     "UTC",
				Description: "IANA timezone used for the month of a cut and the dates in its period label.",
				Value:       serpent.StringOf(&timezone),
			},
			{
				Name:        "Prometheus Enable",
				Flag:        "prometheus-enable",
				Env:         envPrefix + "PROMETHEUS_ENABLE",
				Description: "Serve prometheus metrics on the address defined by prometheus address.",
				Value:       serpent.BoolOf(&promEnabled),
			},
			{
				Name:        "Prometheus Address",
				Flag:        "prometheus-address",
				Env:         envPrefix + "PROMETHEUS_ADDRESS",
				Default:     "127.0.0.1:2112",
				Description: "The bind address to serve prometheus metrics.",
				Value:       serpent.StringOf(&promAddress),
			},
			{
				Name:        "API Rate Limit",
				Flag:        "api-rate-limit",
				Env:         envPrefix + "API_RATE_LIMIT",
				Default:     "512",
				Description: "Maximum number of requests per minute allowed to the API per tenant, or per IP address for unauthenticated requests. Negative values disable the limit.",
				Value:       serpent.Int64Of(&apiRateLimit),
			},
			{
				Name:        "CORS Allowed Origins",
				Flag:        "cors-allowed-origins",
				Env:         envPrefix + "CORS_ALLOWED_ORIGINS",
				Description: "Origins allowed to call the API from a browser.",
				Value:       serpent.StringArrayOf(&allowedOrigins),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			logger := r.logger(inv)

			// Main command context for managing cancellation of running
			// services.
			ctx, cancel := context.WithCancel(inv.Context())
			defer cancel()

			location, err := time.LoadLocation(timezone)
			if err != nil {
				return xerrors.Errorf("parse timezone %q: %w", timezone, err)
			}
			if offlineThreshold <= 0 {
				return xerrors.Errorf("offline threshold must be positive, got %s", offlineThreshold)
			}

			var db database.Store
			if inMemoryDatabase {
				logger.Warn(ctx, "using the in-memory database, data is lost on exit")
				db = databasefake.New()
			} else {
				var closeDB func()
				db, closeDB, err = r.store(ctx, logger)
				if err != nil {
					return err
				}
				defer closeDB()
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			api, err := printd.New(&printd.Options{
				Logger:             logger.Named("printd"),
				Database:           db,
				OfflineThreshold:   offlineThreshold,
				Location:           location,
				APIRateLimit:       int(apiRateLimit),
				AllowedOrigins:     allowedOrigins,
				PrometheusRegistry: registry,
			})
			if err != nil {
				return xerrors.Errorf("create api: %w", err)
			}

			listener, err := net.Listen("tcp", address)
			if err != nil {
				return xerrors.Errorf("listen %q: %w", address, err)
			}
			defer listener.Close()

			if promEnabled {
				//nolint:revive
				defer serveHandler(ctx, logger, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), promAddress, "prometheus")()
			}

			shutdownConnsCtx, shutdownConns := context.WithCancel(ctx)
			defer shutdownConns()
			server := &http.Server{
				// These errors are typically noise like "TLS: EOF".
				ErrorLog:          log.New(io.Discard, "", 0),
				Handler:           api.RootHandler,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(_ net.Listener) context.Context {
					return shutdownConnsCtx
				},
			}
			defer func() {
				_ = shutdownWithTimeout(server, 5*time.Second)
			}()

			eg := errgroup.Group{}
			eg.Go(func() error {
				return server.Serve(listener)
			})
			errCh := make(chan error, 1)
			go func() {
				errCh <- eg.Wait()
			}()

			_, _ = fmt.Fprintf(inv.Stdout, "printwatch %s\n", buildinfo.Version())
			_, _ = fmt.Fprintf(inv.Stdout, "Started HTTP listener at http://%s\n", listener.Addr())
			logger.Info(ctx, "serving api",
				slog.F("address", listener.Addr().String()),
				slog.F("offline_threshold", offlineThreshold),
				slog.F("timezone", location.String()),
			)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var exitErr error
			select {
			case <-ctx.Done():
				exitErr = ctx.Err()
				_, _ = fmt.Fprintln(inv.Stdout, "Interrupt caught, gracefully exiting...")
			case exitErr = <-errCh:
			}
			if exitErr != nil && !errors.Is(exitErr, context.Canceled) {
				_, _ = fmt.Fprintf(inv.Stderr, "Unexpected error, shutting down server: %s\n", exitErr)
			}

			// Stop accepting new connections without interrupting
			// in-flight requests, give in-flight requests 5 seconds to
			// complete.
			_, _ = fmt.Fprintln(inv.Stdout, "Shutting down API server...")
			err = shutdownWithTimeout(server, 5*time.Second)
			if err != nil {
				_, _ = fmt.Fprintf(inv.Stdout, "API server shutdown took longer than 5s: %s\n", err)
			} else {
				_, _ = fmt.Fprintln(inv.Stdout, "Gracefully shut down API server")
			}
			// Cancel any remaining in-flight requests.
			shutdownConns()

			if exitErr != nil && !errors.Is(exitErr, context.Canceled) && !errors.Is(exitErr, http.ErrServerClosed) {
				return exitErr
			}
			return nil
		},
	}
	return cmd
}

func shutdownWithTimeout(s interface{ Shutdown(context.Context) error }, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(ctx)
}

func serveHandler(ctx context.Context, logger slog.Logger, handler http.Handler, addr, name string) (closeFunc func()) {
	logger.Debug(ctx, "http server listening", slog.F("addr", addr), slog.F("name", name))

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server listen", slog.F("name", name), slog.Error(err))
		}
	}()

	return func() { _ = srv.Close() }
}
