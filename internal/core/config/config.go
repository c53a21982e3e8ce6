package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/matiassromo/registro-helados/internal/core/domain"
)

type Config struct {
	Port          string
	Env           string
	ExportPath    string
	ExportAppend  bool
	StaticDir     string
	DatabaseURL   string
	WebhookURL    string
	WebhookSecret string
	RateLimit     int
	DefaultStock  int
	UnitPrice     domain.Money
}

// LoadConfig reads a .env file when present, then the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on System Env Variables")
	}
	return FromEnv()
}

// FromEnv builds the config from environment variables only.
func FromEnv() *Config {
	return &Config{
		Port:          getEnv("PORT", "3000"),
		Env:           getEnv("ENV", "development"),
		ExportPath:    getEnv("EXPORT_PATH", "ventas.xlsx"),
		ExportAppend:  getBool("EXPORT_APPEND", true),
		StaticDir:     getEnv("STATIC_DIR", "./public"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		WebhookURL:    getEnv("WEBHOOK_URL", ""),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
		RateLimit:     getInt("RATE_LIMIT_PER_MIN", 120),
		DefaultStock:  getInt("DEFAULT_STOCK", domain.DefaultStock),
		UnitPrice:     getMoney("UNIT_PRICE", domain.DefaultUnitPrice),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		slog.Warn("Ignoring invalid integer setting", "key", key, "value", value)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("Ignoring invalid boolean setting", "key", key, "value", value)
		return fallback
	}
	return b
}

func getMoney(key string, fallback domain.Money) domain.Money {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	m, err := domain.NewMoney(value)
	if err != nil {
		slog.Warn("Ignoring invalid amount setting", "key", key, "value", value)
		return fallback
	}
	return m
}
