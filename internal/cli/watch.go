package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cmccabe/expertise-engine/internal/analyzer"
	"github.com/cmccabe/expertise-engine/internal/pipeline"
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and analyze every file save",
		Long: "Watches the configured root recursively and appends one expertise\n" +
			"record per analyzed file change. Runs until interrupted.",
		Run: runWatch,
	}
	RootCmd.AddCommand(cmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	cfg, log, err := loadConfig()
	if err != nil {
		exitErr("watch", err)
	}
	defer log.Sync()

	if cfg.WatchRoot == "" {
		exitErr("watch", fmt.Errorf("watch_root is not configured (set EXPERTISE_WATCH_ROOT or the config file)"))
	}

	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()
	log.Info("expertise log ready", zap.String("db", cfg.DBPath))

	client := analyzer.New(cfg.OllamaURL, cfg.Model, log).
		WithTimeouts(cfg.FileTimeout(), cfg.CommitTimeout())
	engine := pipeline.New(client, s, cfg.Workers, log)

	w, err := pipeline.NewWatcher(cfg.WatchRoot, cfg.QueueSize, log)
	if err != nil {
		exitErr("watch", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Watch(ctx, w); err != nil {
		exitErr("watch", err)
	}
}
