package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	StoreDriver       string
	DatabaseURL       string
	JWTSecret         string
	JWTIssuer         string
	TokenTTLSeconds   int64
	UploadStoragePath string
	AdminEmail        string
	AdminPassword     string
	CorsOrigins       []string
}

func Load() Config {
	return Config{
		StoreDriver:       strings.ToLower(envOr("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:       envOr("DATABASE_URL", ""),
		JWTSecret:         mustEnv("JWT_SECRET"),
		JWTIssuer:         envOr("JWT_ISSUER", "kitabghar"),
		TokenTTLSeconds:   int64(envOrInt("TOKEN_TTL_SECONDS", 604800)),
		UploadStoragePath: envOr("UPLOAD_STORAGE_PATH", "uploads"),
		AdminEmail:        strings.ToLower(envOr("BOOTSTRAP_ADMIN_EMAIL", "")),
		AdminPassword:     os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		CorsOrigins:       parseCSV(envOr("CORS_ORIGINS", "")),
	}
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
