package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/docmirror/internal/config"
	dmlog "github.com/nao1215/docmirror/internal/log"
	"github.com/spf13/cobra"
)

// apiKeyEnv is the environment variable holding the translation API key.
const apiKeyEnv = "DOCMIRROR_TRANSLATE_API_KEY"

// loadConfig builds a Config from defaults and the configuration file.
// Command flags are applied by the caller.
//
// If the user passed -c, a missing file is an error. Otherwise the
// defaults are used when no file is found.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if key := os.Getenv(apiKeyEnv); key != "" {
		cfg.TranslateAPIKey = key
	}

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the redacting logger and makes it the default.
func setupLogger(verbose bool) *slog.Logger {
	logger := dmlog.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}

// stringFlag copies a string flag into dst when the user set it.
func stringFlag(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// boolFlag copies a bool flag into dst when the user set it.
func boolFlag(cmd *cobra.Command, name string, dst *bool) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
