package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xinjiayu/rxcore/internal/config"
	"github.com/xinjiayu/rxcore/internal/playground"
	"github.com/xinjiayu/rxcore/store"
)

// NewRunCmd creates the "run" subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run one or more scenarios",
		Long:  "Run the named scenarios in order, or every scenario with --all.",
		RunE:  runRun,
	}

	cmd.Flags().Bool("all", false, "Run every scenario in the catalogue")
	cmd.Flags().String("record", "", "Record streams to this SQLite database instead of the configured store")
	cmd.Flags().String("otlp-endpoint", "", "Export spans to this OTLP/HTTP endpoint (host:port)")
	cmd.Flags().Bool("strict", false, "Create subjects in strict mode")
	cmd.Flags().Bool("metrics", false, "Print collected metrics after the run")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	recordPath, _ := cmd.Flags().GetString("record")
	endpoint, _ := cmd.Flags().GetString("otlp-endpoint")
	strict, _ := cmd.Flags().GetBool("strict")
	showMetrics, _ := cmd.Flags().GetBool("metrics")

	scenarios, err := selectScenarios(args, all)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if recordPath != "" {
		cfg.Store.Driver = "sqlite"
		cfg.Store.DSN = recordPath
	}
	if endpoint != "" {
		cfg.Telemetry.OTLPEndpoint = endpoint
	}
	if strict {
		cfg.Scenarios.Strict = true
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return exitError(exitStore, "opening store: %v", err)
	}
	defer closeStore()

	tel, err := newTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return exitError(exitConfig, "telemetry: %v", err)
	}
	defer func() {
		if err := tel.shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	env := playground.NewEnv(cmd.OutOrStdout())
	env.Logger = logger
	env.Store = st
	env.Instrumentation = tel.inst
	env.Strict = cfg.Scenarios.Strict
	env.ReplayBuffer = cfg.Scenarios.ReplayBuffer

	var failed []string
	for _, s := range scenarios {
		logger.Debug("running scenario", "scenario", s.Name, "chapter", s.Chapter)
		if err := playground.Run(ctx, s, env); err != nil {
			logger.Error("scenario failed", "scenario", s.Name, "error", err)
			failed = append(failed, s.Name)
			if errors.Is(err, context.Canceled) {
				break
			}
		}
	}

	if showMetrics {
		if err := tel.writeSummary(ctx, cmd.OutOrStdout()); err != nil {
			logger.Warn("metrics summary failed", "error", err)
		}
	}

	if len(failed) > 0 {
		return exitError(exitScenario, "%d scenario(s) failed: %v", len(failed), failed)
	}
	return nil
}

// selectScenarios resolves names against the catalogue, keeping their order.
func selectScenarios(names []string, all bool) ([]playground.Scenario, error) {
	if all {
		if len(names) > 0 {
			return nil, exitError(exitUsage, "--all cannot be combined with scenario names")
		}
		return playground.Catalogue(), nil
	}
	if len(names) == 0 {
		return nil, exitError(exitUsage, "no scenarios given; pass names or --all (see 'rxplay list')")
	}

	scenarios := make([]playground.Scenario, 0, len(names))
	for _, name := range names {
		s, ok := playground.Find(name)
		if !ok {
			return nil, exitError(exitUsage, "unknown scenario %q", name)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// openStore returns the configured event store and a func that releases it.
func openStore(cfg config.StoreConfig) (store.EventStore, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Default().Warn("closing store failed", "error", err)
			}
		}, nil
	default:
		return store.NewMemStore(), func() {}, nil
	}
}
