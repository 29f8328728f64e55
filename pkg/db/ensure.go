package db

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ensureLogPrefix = "db:ensure"

// maintenanceDB is the database connected to while creating the registry database.
const maintenanceDB = "postgres"

// safeDBName matches allowed database names (alphanumeric and underscore only).
var safeDBName = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// requiredExtensions back the agents schema (gen_random_uuid).
var requiredExtensions = []string{"pgcrypto"}

// ensureTarget is a registry database and the server-level URL used to create it.
type ensureTarget struct {
	Name           string
	URL            string
	MaintenanceURL string
}

func parseEnsureTarget(databaseURL string) (*ensureTarget, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid database URL: %w", ensureLogPrefix, err)
	}
	name, err := databaseName(u)
	if err != nil {
		return nil, err
	}
	maintenance := *u
	maintenance.Path = "/" + maintenanceDB
	return &ensureTarget{Name: name, URL: databaseURL, MaintenanceURL: maintenance.String()}, nil
}

// EnsureDatabase makes the agent registry database usable: it creates the database named in
// databaseURL when missing, then enables the extensions the migrations rely on. Used by the
// ensure-db command before migrate on a fresh Postgres.
func EnsureDatabase(ctx context.Context, databaseURL string) error {
	target, err := parseEnsureTarget(databaseURL)
	if err != nil {
		return err
	}

	created, err := createDatabaseIfMissing(ctx, target)
	if err != nil {
		return err
	}
	if created {
		slog.Info(fmt.Sprintf("%s - Created database %q", ensureLogPrefix, target.Name))
	}

	if err := enableExtensions(ctx, target); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("%s - Database %q ready for the agent registry", ensureLogPrefix, target.Name))
	return nil
}

func createDatabaseIfMissing(ctx context.Context, target *ensureTarget) (bool, error) {
	config, err := pgxpool.ParseConfig(target.MaintenanceURL)
	if err != nil {
		return false, fmt.Errorf("%s - failed to parse maintenance URL: %w", ensureLogPrefix, err)
	}
	// CREATE DATABASE cannot run inside the implicit transaction of the extended protocol.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return false, fmt.Errorf("%s - failed to connect to %s: %w", ensureLogPrefix, maintenanceDB, err)
	}
	defer pool.Close()

	var exists bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, target.Name).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s - failed to look up database %q: %w", ensureLogPrefix, target.Name, err)
	}
	if exists {
		return false, nil
	}
	if _, err := pool.Exec(ctx, "CREATE DATABASE "+quoteIdent(target.Name)); err != nil {
		return false, fmt.Errorf("%s - CREATE DATABASE %q failed: %w", ensureLogPrefix, target.Name, err)
	}
	return true, nil
}

func enableExtensions(ctx context.Context, target *ensureTarget) error {
	pool, err := pgxpool.New(ctx, target.URL)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to %q: %w", ensureLogPrefix, target.Name, err)
	}
	defer pool.Close()

	for _, ext := range requiredExtensions {
		if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS "+quoteIdent(ext)); err != nil {
			return fmt.Errorf("%s - CREATE EXTENSION %s: %w", ensureLogPrefix, ext, err)
		}
	}
	return nil
}

// databaseName extracts and validates the database name from a connection URL.
func databaseName(u *url.URL) (string, error) {
	dbname := strings.TrimSpace(strings.TrimPrefix(u.Path, "/"))
	if dbname == "" {
		return "", fmt.Errorf("%s - database name empty in URL", ensureLogPrefix)
	}
	if !safeDBName.MatchString(dbname) {
		return "", fmt.Errorf("%s - database name %q contains invalid characters", ensureLogPrefix, dbname)
	}
	return dbname, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
