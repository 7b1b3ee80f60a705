package cli

import (
	"database/sql"
	"fmt"

	"github.com/coder/serpent"
	"golang.org/x/xerrors"

	"github.com/printwatch/printwatch/printd/database/migrations"
)

func (r *RootCmd) migrate() *serpent.Command {
	return &serpent.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Options: serpent.OptionSet{
			r.postgresOption(),
		},
		Handler: func(inv *serpent.Invocation) error {
			return inv.Command.HelpHandler(inv)
		},
		Children: []*serpent.Command{
			{
				Use:        "up",
				Short:      "Apply all pending migrations",
				Middleware: serpent.RequireNArgs(0),
				Handler: func(inv *serpent.Invocation) error {
					return r.withRawDB(inv, func(db *sql.DB) error {
						err := migrations.Up(db)
						if err != nil {
							return err
						}
						_, _ = fmt.Fprintln(inv.Stdout, "Database is up to date.")
						return nil
					})
				},
			},
			{
				Use:        "status",
				Short:      "Show the applied schema version",
				Middleware: serpent.RequireNArgs(0),
				Handler: func(inv *serpent.Invocation) error {
					return r.withRawDB(inv, func(db *sql.DB) error {
						version, dirty, err := migrations.Current(db)
						if err != nil {
							return err
						}
						_, _ = fmt.Fprintf(inv.Stdout, "version %d (dirty: %t)\n", version, dirty)
						return nil
					})
				},
			},
			{
				Use:        "down",
				Short:      "Revert every migration, dropping all data",
				Middleware: serpent.RequireNArgs(0),
				Handler: func(inv *serpent.Invocation) error {
					return r.withRawDB(inv, func(db *sql.DB) error {
						err := migrations.Down(db)
						if err != nil {
							return err
						}
						_, _ = fmt.Fprintln(inv.Stdout, "Reverted all migrations.")
						return nil
					})
				},
			},
		},
	}
}

// withRawDB opens the database without migrating it.
func (r *RootCmd) withRawDB(inv *serpent.Invocation, fn func(*sql.DB) error) error {
	if r.postgresURL == "" {
		return xerrors.New("--postgres-url is required")
	}
	db, err := sql.Open("postgres", r.postgresURL)
	if err != nil {
		return xerrors.Errorf("dial postgres: %w", err)
	}
	defer db.Close()
	err = db.PingContext(inv.Context())
	if err != nil {
		return xerrors.Errorf("ping postgres: %w", err)
	}
	return fn(db)
}
