package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
	"github.com/hristovelev/crunchize/internal/logctx"
	"github.com/hristovelev/crunchize/internal/orchestrator"
	"github.com/hristovelev/crunchize/internal/playbook"
)

// newRunCmd creates the run command, crunchize's sole entry point for
// executing a playbook.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <playbook>",
		Short: "Execute a playbook",
		Long: `Execute a playbook's tasks in order against a sequence of files.

Example:
  crunchize run convert_plates.yaml
  crunchize run convert_plates.yaml --dry-run
  crunchize run convert_plates.yaml --file-amount 0.25 --every-nth 2`,
		Args: cobra.ExactArgs(1),
		RunE: runPlaybook,
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log what each task would do without touching the filesystem or invoking tools")
	cmd.Flags().Float64Var(&fileAmount, "file-amount", 0, "stride-sample each freshly-resolved input down to this fraction (0 < x <= 1); 0 means unset")
	cmd.Flags().IntVar(&everyNth, "every-nth", 0, "keep only every Nth item of each freshly-resolved input; 0 means unset")
	cmd.Flags().StringVar(&dumpPathArg, "dump", "", "write final task_results/variables as YAML to this path, overriding the playbook's dump_path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	return cmd
}

func runPlaybook(cmd *cobra.Command, args []string) error {
	path := args[0]
	runID := newRunID()

	color := isatty.IsTerminal(os.Stderr.Fd())
	logger := logctx.New(verbose, color)
	logger = logger.With("run_id", runID)
	slog.SetDefault(logger)

	pb, err := playbook.Load(path)
	if err != nil {
		return exitError(logger, err)
	}

	cfg, err := resolveConfig(pb)
	if err != nil {
		return exitError(logger, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			logger.Warn("interrupt received, stopping after the current task")
			cancel()
		}
	}()

	orch := orchestrator.New(pb, cfg, dryRun, logger)
	logger.Info("starting run", "playbook", path, "dry_run", dryRun, "tasks", len(pb.Tasks))

	if err := orch.Run(ctx, pb.Tasks); err != nil {
		return exitError(logger, err)
	}

	dumpPath := cfg.DumpPath
	if dumpPathArg != "" {
		dumpPath = dumpPathArg
	}
	if dumpPath != "" {
		state := playbook.State{
			TaskResults: orch.Results(),
			Variables:   orch.Variables(),
		}
		if err := playbook.DumpState(dumpPath, state); err != nil {
			logger.Error("failed to write state dump", "path", dumpPath, "error", err)
		} else {
			logger.Info("wrote state dump", "path", dumpPath)
		}
	}

	logger.Info("run complete")
	return nil
}

// resolveConfig layers the global defaults file, the playbook's own config
// section, and CLI flags, in that order of increasing precedence.
func resolveConfig(pb *playbook.Playbook) (playbook.Config, error) {
	cfg := playbook.DefaultConfig()

	globalOverrides, err := playbook.DiscoverGlobalConfig(playbook.DefaultSearchDirs())
	if err != nil {
		return cfg, err
	}
	cfg = globalOverrides.Apply(cfg)
	cfg = pb.Config.Apply(cfg)

	var cliOverrides playbook.Overrides
	if fileAmount > 0 {
		cliOverrides.FileAmount = &fileAmount
	}
	if everyNth > 0 {
		cliOverrides.EveryNth = &everyNth
	}
	cfg = cliOverrides.Apply(cfg)

	return cfg, nil
}

// exitError logs err and returns it unchanged so the caller (cmd/crunchize)
// can recover its CrunchizeError category and exit with a matching status.
func exitError(logger *slog.Logger, err error) error {
	if ce := crunchizeerrors.AsCrunchizeError(err); ce != nil {
		logger.Error(ce.Error(), "category", ce.Category().String(), "code", ce.Code)
		return ce
	}
	logger.Error(err.Error())
	return err
}
