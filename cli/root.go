// Package cli implements the printwatch command line.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"cdr.dev/slog/v3"
	"cdr.dev/slog/v3/sloggers/sloghuman"
	"github.com/coder/serpent"
	_ "github.com/lib/pq" // postgres driver
	"golang.org/x/xerrors"

	"github.com/printwatch/printwatch/buildinfo"
	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/database/migrations"
)

const envPrefix = "PRINTWATCH_"

type RootCmd struct {
	verbose     bool
	postgresURL string
}

// Command returns the root command with every subcommand attached.
func (r *RootCmd) Command() *serpent.Command {
	return &serpent.Command{
		Use: "printwatch",
		Long: fmt.Sprintf("printwatch %s: printer telemetry and monthly counter cuts.\n", buildinfo.Version()) + formatExamples(
			example{
				Description: "Start the API server",
				Command:     "printwatch server --postgres-url postgres://localhost/printwatch",
			},
			example{
				Description: "Issue an API key for a new tenant",
				Command:     "printwatch tenants create \"Clinica San Pablo\" --city Lima",
			},
		),
		Options: serpent.OptionSet{
			{
				Name:        "Verbose",
				Flag:        "verbose",
				Env:         envPrefix + "VERBOSE",
				Description: "Output debug-level logs.",
				Value:       serpent.BoolOf(&r.verbose),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			return inv.Command.HelpHandler(inv)
		},
		Children: []*serpent.Command{
			r.server(),
			r.tenants(),
			r.migrate(),
			r.version(),
		},
	}
}

// Main runs the command line with the process' arguments and environment.
func (r *RootCmd) Main() {
	err := r.Command().Invoke(os.Args[1:]...).WithOS().Run()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func (r *RootCmd) logger(inv *serpent.Invocation) slog.Logger {
	logger := slog.Make(sloghuman.Sink(inv.Stderr))
	if r.verbose {
		logger = logger.Leveled(slog.LevelDebug)
	}
	return logger
}

func (r *RootCmd) postgresOption() serpent.Option {
	return serpent.Option{
		Name:        "Postgres Connection URL",
		Flag:        "postgres-url",
		Env:         envPrefix + "PG_CONNECTION_URL",
		Description: "URL of a PostgreSQL database.",
		Value:       serpent.StringOf(&r.postgresURL),
	}
}

// connectToPostgres opens the configured database and brings its schema up
// to date.
func (r *RootCmd) connectToPostgres(ctx context.Context, logger slog.Logger) (*sql.DB, error) {
	if r.postgresURL == "" {
		return nil, xerrors.New("--postgres-url is required")
	}
	logger.Debug(ctx, "connecting to postgresql")

	sqlDB, err := sql.Open("postgres", r.postgresURL)
	if err != nil {
		return nil, xerrors.Errorf("dial postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	err = sqlDB.PingContext(pingCtx)
	if err != nil {
		_ = sqlDB.Close()
		return nil, xerrors.Errorf("ping postgres: %w", err)
	}

	err = migrations.Up(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, xerrors.Errorf("migrate up: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	return sqlDB, nil
}

func (r *RootCmd) store(ctx context.Context, logger slog.Logger) (database.Store, func(), error) {
	sqlDB, err := r.connectToPostgres(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	return database.New(sqlDB), func() { _ = sqlDB.Close() }, nil
}

type example struct {
	Description string
	Command     string
}

// formatExamples formats the examples as width wrapped bulletpoint
// descriptions with the command underneath.
func formatExamples(examples ...example) string {
	var sb []byte
	for i, e := range examples {
		if len(e.Description) > 0 {
			sb = fmt.Appendf(sb, "  - %s:\n\n", e.Description)
		}
		if len(e.Command) > 0 {
			sb = fmt.Appendf(sb, "     $ %s\n", e.Command)
		}
		if i < len(examples)-1 {
			sb = append(sb, '\n')
		}
	}
	return string(sb)
}

func (*RootCmd) version() *serpent.Command {
	return &serpent.Command{
		Use:   "version",
		Short: "Show printwatch version",
		Handler: func(inv *serpent.Invocation) error {
			_, _ = fmt.Fprintf(inv.Stdout, "printwatch %s\n%s\n", buildinfo.Version(), buildinfo.ExternalURL())
			return nil
		},
	}
}
