package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the process-wide settings, loaded once at startup and passed
// explicitly to the components that need them.
type Config struct {
	Port          string
	DatabasePath  string // sqlite file, used when DatabaseDSN is empty
	DatabaseDSN   string // postgres URL, overrides DatabasePath when set
	Env           string
	StaticDir     string
	UploadDir     string // product images, relative to StaticDir
	MaxUploadSize int64
	SessionSecret string
	AdminPassword string // initial admin account password (seeding only)
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabasePath = getEnv("DATABASE_PATH", filepath.Join("database", "store_componentes.db"))
	cfg.DatabaseDSN = os.Getenv("DATABASE_DSN")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.StaticDir = getEnv("STATIC_DIR", "static")
	cfg.UploadDir = getEnv("UPLOAD_DIR", "uploads")
	cfg.MaxUploadSize = getEnvInt64("MAX_UPLOAD_SIZE", 2<<20)
	cfg.SessionSecret = getEnv("SESSION_SECRET", "devsessionsecret")
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", "admin123")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}
