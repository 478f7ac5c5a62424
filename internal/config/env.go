package config

import (
	"os"
	"path/filepath"
	"strings"

	"teketeke/mpesa-sms/internal/logging"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file in the current or parent directory,
// if one exists. Variables already set in the environment are not overridden.
// It returns the file loaded, or "".
func LoadEnv() string {
	for _, envFile := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return ""
		}
		return envFile
	}
	return ""
}

// ConfigureLoggingFromConfig builds the logger described by config.
func ConfigureLoggingFromConfig(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(strings.ToLower(config.Log.Level), strings.ToLower(config.Log.Format))
}
