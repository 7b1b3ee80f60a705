package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coder/serpent"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/xerrors"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/tenantkey"
)

func (r *RootCmd) tenants() *serpent.Command {
	return &serpent.Command{
		Use:     "tenants",
		Short:   "Manage tenants and their API keys",
		Aliases: []string{"tenant"},
		Options: serpent.OptionSet{
			r.postgresOption(),
		},
		Handler: func(inv *serpent.Invocation) error {
			return inv.Command.HelpHandler(inv)
		},
		Children: []*serpent.Command{
			r.tenantCreate(),
			r.tenantList(),
			r.tenantDelete(),
		},
	}
}

func (r *RootCmd) tenantCreate() *serpent.Command {
	var city string
	return &serpent.Command{
		Use:        "create <name>",
		Short:      "Create a tenant and print its API key",
		Middleware: serpent.RequireNArgs(1),
		Options: serpent.OptionSet{
			{
				Name:        "City",
				Flag:        "city",
				Description: "Default city for devices that do not report one.",
				Value:       serpent.StringOf(&city),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			ctx := inv.Context()
			name := strings.TrimSpace(inv.Args[0])
			if name == "" {
				return xerrors.New("tenant name must not be empty")
			}

			db, closeDB, err := r.store(ctx, r.logger(inv))
			if err != nil {
				return err
			}
			defer closeDB()

			params, key, err := tenantkey.New(name, strings.TrimSpace(city), time.Now())
			if err != nil {
				return err
			}
			tenant, err := db.InsertTenant(ctx, params)
			if database.IsUniqueViolation(err, database.UniqueTenantsName) {
				return xerrors.Errorf("a tenant named %q already exists", name)
			}
			if err != nil {
				return xerrors.Errorf("insert tenant: %w", err)
			}

			_, _ = fmt.Fprintf(inv.Stdout, "Created tenant %q (%s).\n", tenant.Name, tenant.ID)
			_, _ = fmt.Fprintf(inv.Stdout, "API key, shown only once:\n\n%s\n", key)
			return nil
		},
	}
}

func (r *RootCmd) tenantList() *serpent.Command {
	return &serpent.Command{
		Use:        "list",
		Short:      "List tenants",
		Aliases:    []string{"ls"},
		Middleware: serpent.RequireNArgs(0),
		Handler: func(inv *serpent.Invocation) error {
			ctx := inv.Context()
			db, closeDB, err := r.store(ctx, r.logger(inv))
			if err != nil {
				return err
			}
			defer closeDB()

			tenants, err := db.GetTenants(ctx)
			if err != nil {
				return xerrors.Errorf("get tenants: %w", err)
			}
			if len(tenants) == 0 {
				_, _ = fmt.Fprintln(inv.Stdout, "No tenants found.")
				return nil
			}

			tw := newTable("ID", "Name", "City", "Created")
			for _, tenant := range tenants {
				tw.AppendRow(table.Row{tenant.ID, tenant.Name, tenant.City, humanize.Time(tenant.CreatedAt)})
			}
			_, _ = fmt.Fprintln(inv.Stdout, tw.Render())
			return nil
		},
	}
}

func (r *RootCmd) tenantDelete() *serpent.Command {
	return &serpent.Command{
		Use:        "delete <id>",
		Short:      "Delete a tenant with all of its devices and cuts",
		Aliases:    []string{"rm"},
		Middleware: serpent.RequireNArgs(1),
		Handler: func(inv *serpent.Invocation) error {
			ctx := inv.Context()
			id, err := uuid.Parse(inv.Args[0])
			if err != nil {
				return xerrors.Errorf("parse tenant id: %w", err)
			}

			db, closeDB, err := r.store(ctx, r.logger(inv))
			if err != nil {
				return err
			}
			defer closeDB()

			err = db.DeleteTenantByID(ctx, id)
			if errors.Is(err, sql.ErrNoRows) {
				return xerrors.Errorf("tenant %s does not exist", id)
			}
			if err != nil {
				return xerrors.Errorf("delete tenant: %w", err)
			}
			_, _ = fmt.Fprintf(inv.Stdout, "Deleted tenant %s.\n", id)
			return nil
		},
	}
}
