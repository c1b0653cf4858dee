package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cmccabe/expertise-engine/internal/analyzer"
	"github.com/cmccabe/expertise-engine/internal/gitmeta"
	"github.com/cmccabe/expertise-engine/internal/pipeline"
)

func init() {
	cmd := &cobra.Command{
		Use:   "hook [commit-msg-file]",
		Short: "Analyze the staged commit (for use as a git commit-msg hook)",
		Long: "Reads the staged diff and the commit message file git provides,\n" +
			"analyzes them, and appends one expertise record. Analysis failure\n" +
			"never blocks the commit; the exit code is 0 unless the basic git\n" +
			"metadata itself cannot be read.",
		Args: cobra.ExactArgs(1),
		Run:  runHook,
	}
	RootCmd.AddCommand(cmd)
}

func runHook(cmd *cobra.Command, args []string) {
	cfg, log, err := loadConfig()
	if err != nil {
		exitErr("hook", err)
	}
	defer log.Sync()
	ctx := cmd.Context()

	// Inability to read git metadata is the one non-zero exit.
	info, err := gitmeta.StagedInfo(ctx, args[0])
	if err != nil {
		exitErr("hook", err)
	}

	// From here on every failure is logged and swallowed so the commit
	// proceeds.
	s, err := openStore(cfg)
	if err != nil {
		log.Warn("expertise log unavailable, commit proceeds without analysis", zap.Error(err))
		return
	}
	defer s.Close()

	client := analyzer.New(cfg.OllamaURL, cfg.Model, log).
		WithTimeouts(cfg.FileTimeout(), cfg.CommitTimeout())
	engine := pipeline.New(client, s, 1, log)

	engine.RunCommit(ctx, info)
}
