package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles overlays .env/.env.local onto the process environment.
// Existing process variables are never overridden, and a missing file is not
// an error.
func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("failed to load env file", slog.String("path", envPath), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("loaded environment variables", slog.String("path", envPath))
	}
}
