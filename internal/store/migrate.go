package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgx5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies any pending schema migrations to databaseURL. Grounded
// on other_examples/manifests/piprate-metalocker, the pack repo whose
// go.mod pairs github.com/jackc/pgx/v5 with
// github.com/golang-migrate/migrate/v4 for exactly this purpose. It opens
// the connection through database/sql via pgx's stdlib adapter and
// golang-migrate's own pgx/v5 driver, so the app never needs lib/pq just
// to run migrations.
func Migrate(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("store: open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := pgx5.WithInstance(db, &pgx5.Config{})
	if err != nil {
		return fmt.Errorf("store: init migration driver: %w", err)
	}

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: open migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("store: init migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: apply migrations: %w", err)
	}
	return nil
}
