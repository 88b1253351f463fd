package util

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// EnvOrDefault returns the environment variable value or fallback when it is empty.
func EnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// LoadEnv reads a .env file into the process environment when present.
func LoadEnv(logger *zap.Logger, files ...string) {
	if err := godotenv.Load(files...); err != nil {
		logger.Debug("env file not loaded, using process environment", zap.Error(err))
		return
	}
	logger.Info("env file loaded")
}
