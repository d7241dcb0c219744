package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/steveyiyo/livebridge/internal/config"
	"github.com/steveyiyo/livebridge/internal/logging"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "bridge",
	Short:         "Real-time voice bridge to Gemini Live",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (env: BRIDGE_CONFIG)")
	rootCmd.AddCommand(runCmd, serveCmd, devicesCmd, modelCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads configuration and builds the logger. validate is false for
// commands that never talk to the service.
func setup(validate bool) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, nil, err
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return cfg, nil, err
		}
	}
	logger, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}
