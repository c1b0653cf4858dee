// Package cli implements the expertise-engine CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cmccabe/expertise-engine/internal/config"
	"github.com/cmccabe/expertise-engine/internal/logging"
	"github.com/cmccabe/expertise-engine/internal/store"
)

var configPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "expertise-engine",
	Short: "Turn developer activity into a persistent expertise log",
	Long: "Watches files or intercepts commits, asks a local Ollama model what\n" +
		"skills and technologies the content demonstrates, and appends the\n" +
		"analysis to a SQLite expertise log.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: $EXPERTISE_CONFIG)")
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DBPath)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
