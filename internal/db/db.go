package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/storecomponentes/store-app/internal/config"
	"github.com/storecomponentes/store-app/internal/models"
	"github.com/storecomponentes/store-app/internal/password"
)

// Connect opens the database and ensures the schema exists. The default
// target is the file-backed sqlite store; a postgres DSN in the configuration
// selects the postgres driver instead.
func Connect(cfg config.Config) (*gorm.DB, error) {
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var conn *gorm.DB
	var err error
	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		conn, err = gorm.Open(postgres.Open(dsn), gcfg)
	} else {
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, fmt.Errorf("create database dir: %w", mkErr)
			}
		}
		conn, err = gorm.Open(sqlite.Open(cfg.DatabasePath), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	if err := EnsureSchema(conn, cfg); err != nil {
		return nil, err
	}
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		if err := SeedAdmin(conn, cfg.AdminPassword); err != nil {
			return nil, fmt.Errorf("seed admin: %w", err)
		}
	}
	return conn, nil
}

// EnsureSchema applies the seven-table schema. It is idempotent: safe to call
// when the tables already exist. With MIGRATIONS=1 the versioned SQL
// migrations run instead of AutoMigrate.
func EnsureSchema(conn *gorm.DB, cfg config.Config) error {
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(cfg); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range []any{
			&models.User{}, &models.Supplier{}, &models.Product{},
			&models.Sale{}, &models.SaleLine{},
			&models.Purchase{}, &models.PurchaseLine{},
		} {
			if err := conn.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}
	for _, table := range []string{"usuarios", "proveedores", "productos", "ventas", "ventas_detalle", "compras", "compras_detalle"} {
		if !conn.Migrator().HasTable(table) {
			return fmt.Errorf("missing table after migration: %s", table)
		}
	}
	return nil
}

// SeedAdmin creates the bootstrap admin account when no user named "admin"
// exists yet.
func SeedAdmin(conn *gorm.DB, adminPassword string) error {
	existing, err := models.FindUserByUsername(conn, "admin")
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	digest, err := password.Hash(adminPassword)
	if err != nil {
		return err
	}
	admin := models.User{
		Username: "admin",
		Email:    "admin@storecomponentes.com",
		Password: digest,
		EsAdmin:  true,
	}
	_, err = admin.Save(conn)
	return err
}
