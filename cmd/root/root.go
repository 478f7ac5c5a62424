// Package root contains the root command for the application
package root

import (
	"fmt"

	"teketeke/mpesa-sms/internal/config"
	"teketeke/mpesa-sms/internal/container"
	"teketeke/mpesa-sms/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Log is the shared logger instance for commands
	Log = logging.GetLogger()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "mpesa-sms",
		Short: "Extract structured transactions from M-PESA SMS confirmations.",
		Long: `mpesa-sms turns M-PESA confirmation messages into structured transaction
records: direction, amount, reference, counterparty, category and timestamp.

Records can be extracted one message at a time, in batch from CSV or JSON Lines
exports, or continuously through the HTTP bridge which buffers them until a
consumer pulls or a forwarder pushes them.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to mpesa-sms!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initContainer(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer != nil {
				if err := AppContainer.Close(); err != nil {
					Log.WithError(err).Warn("Failed to close container")
				}
			}
		},
	}

	// ConfigFile is an explicit configuration file path
	ConfigFile string
	// LogLevel overrides log.level when set
	LogLevel string
	// LogFormat overrides log.format when set
	LogFormat string

	// AppConfig is the loaded configuration
	AppConfig *config.Config
	// AppContainer holds the wired application components
	AppContainer *container.Container
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVar(&ConfigFile, "config", "", "Config file (default searches $HOME/.mpesa-sms, ./.mpesa-sms and .)")
	Cmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&LogFormat, "log-format", "", "Log format (text or json)")
}

func initContainer(cmd *cobra.Command) error {
	cfg, err := config.Load(ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyFlagOverrides(cfg); err != nil {
		return err
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	AppConfig = cfg
	AppContainer = c
	Log = c.GetLogger()
	logging.SetLogger(Log)
	Log.Debug("Configuration loaded", logging.Field{Key: "command", Value: cmd.Name()})
	return nil
}

func applyFlagOverrides(cfg *config.Config) error {
	if LogLevel != "" {
		if _, err := logrus.ParseLevel(LogLevel); err != nil {
			return fmt.Errorf("invalid log level: %s", LogLevel)
		}
		cfg.Log.Level = LogLevel
	}
	if LogFormat != "" {
		if LogFormat != "text" && LogFormat != "json" {
			return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", LogFormat)
		}
		cfg.Log.Format = LogFormat
	}
	return nil
}

// GetContainer returns the application container, or nil before the root
// command's pre-run has completed.
func GetContainer() *container.Container {
	return AppContainer
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return AppConfig
}

// GetLogger returns the configured logger.
func GetLogger() logging.Logger {
	return Log
}

// RequireContainer returns the container or an error if it has not been built.
func RequireContainer() (*container.Container, error) {
	if AppContainer == nil {
		return nil, fmt.Errorf("application container is not initialized")
	}
	return AppContainer, nil
}
