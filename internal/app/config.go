package app

import (
	"github.com/kestrelhealth/vocab-backend/internal/platform/envutil"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

type Config struct {
	Port        string
	Environment string
	Version     string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.Str("PORT", "8080"),
		Environment: envutil.Str("APP_ENV", "development"),
		Version:     envutil.Str("APP_VERSION", "dev"),
	}
	log.Info("config loaded", "port", cfg.Port, "env", cfg.Environment, "version", cfg.Version)
	return cfg
}
