package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/tabnine/internal/config"
	"github.com/dshills/tabnine/internal/logging"
)

var (
	flagConfig   string
	flagLogLevel string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(hubCmd)
	rootCmd.AddCommand(restartCmd)
}

var rootCmd = &cobra.Command{
	Use:     "tabnine",
	Short:   "Client for the TabNine completion engine",
	Version: fmt.Sprintf("%s (%s)", version, commit),
	Long: `tabnine manages a local TabNine completion engine process and talks
its line-delimited JSON protocol.

Examples:
  tabnine install                       # download the engine binary
  tabnine complete -f main.go --before 'fmt.Pr'
  tabnine user                          # show the authenticated user
  tabnine hub                           # print the configuration hub URL`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
}

// loadConfig builds the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

// newLogger builds the CLI logger from the effective configuration.
func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Prefix: "tabnine",
	})
}
