// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"teketeke/mpesa-sms/internal/dateutils"
	"teketeke/mpesa-sms/internal/permission"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "MPESA"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Parser struct {
		Timezone       string `mapstructure:"timezone" yaml:"timezone"`
		CategoriesFile string `mapstructure:"categories_file" yaml:"categories_file"`
	} `mapstructure:"parser" yaml:"parser"`

	Receiver struct {
		Enabled                 bool    `mapstructure:"enabled" yaml:"enabled"`
		Dedupe                  bool    `mapstructure:"dedupe" yaml:"dedupe"`
		DedupeCapacity          uint    `mapstructure:"dedupe_capacity" yaml:"dedupe_capacity"`
		DedupeFalsePositiveRate float64 `mapstructure:"dedupe_false_positive_rate" yaml:"dedupe_false_positive_rate"`
	} `mapstructure:"receiver" yaml:"receiver"`

	Permission struct {
		Grant string `mapstructure:"grant" yaml:"grant"`
	} `mapstructure:"permission" yaml:"permission"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	Server struct {
		Address             string `mapstructure:"address" yaml:"address"`
		ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds"`
		MaxConnections      int    `mapstructure:"max_connections" yaml:"max_connections"`
	} `mapstructure:"server" yaml:"server"`

	Forward struct {
		URL                string `mapstructure:"url" yaml:"url"`
		Token              string `mapstructure:"token" yaml:"-"` // Never serialize the token
		IntervalSeconds    int    `mapstructure:"interval_seconds" yaml:"interval_seconds"`
		TimeoutSeconds     int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		MaxFailures        int    `mapstructure:"max_failures" yaml:"max_failures"`
		OpenTimeoutSeconds int    `mapstructure:"open_timeout_seconds" yaml:"open_timeout_seconds"`
	} `mapstructure:"forward" yaml:"forward"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration from defaults, an optional config file and the
// environment, in increasing order of precedence. When configFile is empty the
// standard locations are searched and a missing file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.mpesa-sms")
		v.AddConfigPath(".mpesa-sms")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Parser defaults
	v.SetDefault("parser.timezone", "UTC")
	v.SetDefault("parser.categories_file", "")

	// Receiver defaults
	v.SetDefault("receiver.enabled", true)
	v.SetDefault("receiver.dedupe", false)
	v.SetDefault("receiver.dedupe_capacity", 10000)
	v.SetDefault("receiver.dedupe_false_positive_rate", 0.01)

	// Permission defaults
	v.SetDefault("permission.grant", string(permission.StatusGranted))

	// CSV defaults
	v.SetDefault("csv.delimiter", ",")

	// Server defaults
	v.SetDefault("server.address", "127.0.0.1:8080")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.max_connections", 100)

	// Forward defaults
	v.SetDefault("forward.url", "")
	v.SetDefault("forward.token", "")
	v.SetDefault("forward.interval_seconds", 60)
	v.SetDefault("forward.timeout_seconds", 10)
	v.SetDefault("forward.max_failures", 5)
	v.SetDefault("forward.open_timeout_seconds", 30)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if _, err := dateutils.LoadLocation(config.Parser.Timezone); err != nil {
		return fmt.Errorf("invalid parser.timezone: %w", err)
	}

	// Validate CSV delimiter
	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	if _, err := permission.ParseStatus(config.Permission.Grant); err != nil {
		return fmt.Errorf("invalid permission.grant: %w", err)
	}

	if config.Receiver.DedupeFalsePositiveRate <= 0 || config.Receiver.DedupeFalsePositiveRate >= 1 {
		return fmt.Errorf("receiver.dedupe_false_positive_rate must be between 0 and 1, got: %f", config.Receiver.DedupeFalsePositiveRate)
	}

	if config.Server.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections must not be negative, got: %d", config.Server.MaxConnections)
	}

	if config.Forward.URL != "" {
		if !strings.HasPrefix(config.Forward.URL, "http://") && !strings.HasPrefix(config.Forward.URL, "https://") {
			return fmt.Errorf("forward.url must be an http(s) URL, got: %s", config.Forward.URL)
		}
		if config.Forward.IntervalSeconds < 1 {
			return fmt.Errorf("forward.interval_seconds must be at least 1, got: %d", config.Forward.IntervalSeconds)
		}
		if config.Forward.TimeoutSeconds < 1 || config.Forward.TimeoutSeconds > 300 {
			return fmt.Errorf("forward.timeout_seconds must be between 1 and 300, got: %d", config.Forward.TimeoutSeconds)
		}
		if config.Forward.MaxFailures < 1 {
			return fmt.Errorf("forward.max_failures must be at least 1, got: %d", config.Forward.MaxFailures)
		}
	}

	return nil
}

// Location returns the time zone records are timestamped in.
func (c *Config) Location() (*time.Location, error) {
	return dateutils.LoadLocation(c.Parser.Timezone)
}

// Delimiter returns the CSV delimiter as a rune.
func (c *Config) Delimiter() rune {
	r := []rune(c.CSV.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

// Seconds converts a whole-second setting to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
