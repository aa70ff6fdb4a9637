// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds configuration knobs for the HTTP server, the catalog upstream
// and the intent loop.
type Config struct {
	HTTPAddr           string
	ShutdownTimeout    time.Duration
	LogLevel           string
	CatalogURL         string
	CurrencySymbol     string
	SessionCookie      string
	QueueBuffer        int
	QueueHighWatermark int
	TraceExporter      string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// Load collects configuration from environment with defaults. A .env file in
// the working directory is read first when present; variables already set in
// the environment take precedence over it.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:    durenvs("SHUTDOWN_TIMEOUT", 15),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		CatalogURL:         getenv("CATALOG_URL", "https://fakestoreapi.com/products"),
		CurrencySymbol:     getenv("CURRENCY_SYMBOL", "₹"),
		SessionCookie:      getenv("SESSION_COOKIE", "storefront_session"),
		QueueBuffer:        atoienv("QUEUE_BUFFER", 128),
		QueueHighWatermark: atoienv("QUEUE_HIGH_WATERMARK", 5000),
		TraceExporter:      getenv("TRACE_EXPORTER", "none"),
	}
}
