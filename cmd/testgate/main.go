// testgate force-disables test registrations whose gating annotations match
// the current environment. It rewrites test/it/describe calls to their .skip
// form in place, driven by block-comment annotations such as
// @skipOnOS or @enabledForNodeRange.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"testgate/internal/audit"
	"testgate/internal/config"
	"testgate/internal/env"
	"testgate/internal/runner"
	"testgate/internal/transform"
)

var (
	verbose    bool
	configPath string
	logFile    string
	dryRun     bool
	watch      bool
	workers    int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "testgate [files or globs...]",
	Short: "Environment-gated test disabling transform",
	Long: `testgate rewrites JavaScript/TypeScript test registrations to their
disabled (.skip) form when a gating annotation in the comment above them
matches the current environment.

Recognized annotations, checked in this order (first match disables):
  @skipOnBrowser, @enabledOnBrowser, @skipOnOS, @enabledOnOS,
  @skipOnNodeVersion, @enabledOnNodeVersion,
  @skipForNodeRange, @enabledForNodeRange

Values are comma lists ("win32, darwin"), version lists ("16, v18") or
min=/max= ranges ("min=16,max=18", inclusive). Every disabling decision is
echoed to the console and appended to the audit log.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runTransform,
}

func runTransform(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if dryRun {
		cfg.DryRun = true
	}
	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Include
	}

	// One snapshot for the whole run; every file is gated against the same
	// environment.
	snap := env.Capture()
	logger.Debug("environment captured",
		zap.String("platform", snap.Platform),
		zap.Int("node_major", snap.NodeMajor),
		zap.String("browser", snap.Browser))

	auditLog := audit.New(os.Stderr, cfg.LogFile)
	defer auditLog.Close()

	tr := transform.New(snap, auditLog, logger)
	if cfg.DryRun {
		return dryRunFiles(cmd.Context(), tr, patterns)
	}

	r := runner.New(tr, logger, cfg.Workers)
	sum, err := r.Run(cmd.Context(), patterns)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "testgate: %d file(s) examined, %d gated, %d failed\n",
		sum.Files, sum.Changed, sum.Failed)

	if watch {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := r.Watch(ctx, patterns); err != nil && ctx.Err() == nil {
			return err
		}
	}
	return nil
}

// dryRunFiles prints each rewritten source to stdout instead of writing it
// back.
func dryRunFiles(ctx context.Context, tr *transform.Transformer, patterns []string) error {
	files, err := runner.Expand(patterns)
	if err != nil {
		return err
	}
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			logger.Warn("read failed", zap.String("file", file), zap.Error(err))
			continue
		}
		out, n, err := tr.TransformSource(ctx, file, src)
		if err != nil {
			logger.Warn("transform failed", zap.String("file", file), zap.Error(err))
			continue
		}
		if n > 0 {
			fmt.Printf("--- %s (%d gated)\n%s", file, n, out)
		}
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default .testgate.yaml)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Audit log path (default testgate.log)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print rewritten sources instead of writing files")
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and re-gate files as they change")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "File worker pool size (default: number of CPUs)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
