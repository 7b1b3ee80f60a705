// Package postgres starts a throwaway PostgreSQL server for tests.
package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"golang.org/x/xerrors"

	// Registers the "postgres" driver used by Open's readiness probe.
	_ "github.com/lib/pq"
)

// Open creates a new PostgreSQL server using a Docker container and returns
// its connection URL. The returned func removes the container.
func Open() (string, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return "", nil, xerrors.Errorf("create pool: %w", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=printwatch",
			"listen_addresses = '*'",
		},
		Cmd: []string{"-c", "fsync=off"},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
		config.Tmpfs = map[string]string{"/var/lib/postgresql/data": "rw"}
	})
	if err != nil {
		return "", nil, xerrors.Errorf("could not start resource: %w", err)
	}
	hostAndPort := resource.GetHostPort("5432/tcp")
	dbURL := fmt.Sprintf("postgres://postgres:postgres@%s/printwatch?sslmode=disable", hostAndPort)

	// Docker hard-kills the container after this many seconds.
	err = resource.Expire(120)
	if err != nil {
		_ = pool.Purge(resource)
		return "", nil, xerrors.Errorf("could not expire resource: %w", err)
	}

	pool.MaxWait = 120 * time.Second
	err = pool.Retry(func() error {
		db, err := sql.Open("postgres", dbURL)
		if err != nil {
			return err
		}
		err = db.Ping()
		_ = db.Close()
		return err
	})
	if err != nil {
		_ = pool.Purge(resource)
		return "", nil, xerrors.Errorf("wait for postgres: %w", err)
	}
	return dbURL, func() {
		_ = pool.Purge(resource)
	}, nil
}
