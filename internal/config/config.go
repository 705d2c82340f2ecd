package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the service configuration, sourced from a .env file (when
// present) and environment variables.
type Config struct {
	Port        string
	DBPath      string
	AuditCron   string
	CORSOrigins []string
}

// Load reads .env (if present) and resolves the configuration with
// defaults suitable for local development.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] WARNING: could not load .env: %v", err)
	}

	cfg := Config{
		Port:      getenv("PORT", "8080"),
		DBPath:    getenv("DB_PATH", "freight-audit.db"),
		AuditCron: os.Getenv("AUDIT_CRON"),
	}

	origins := getenv("CORS_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
