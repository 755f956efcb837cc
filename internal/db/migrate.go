package db

import (
	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the database drivers and file source for
	// golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/storecomponentes/store-app/internal/config"
)

// runSQLMigrations executes the versioned migrations in ./migrations against
// whichever backend the configuration selects.
func runSQLMigrations(cfg config.Config) error {
	dsn := cfg.DatabaseDSN
	if dsn == "" {
		dsn = "sqlite3://" + cfg.DatabasePath
	}
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
