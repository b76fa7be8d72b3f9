package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/BB999/drone-show/internal/admin"
	"github.com/BB999/drone-show/internal/config"
	"github.com/BB999/drone-show/internal/logging"
	"github.com/BB999/drone-show/internal/scenario"
	"github.com/BB999/drone-show/internal/sim"
)

var (
	simPrintOnly  bool
	simConfigPath string
	simSchemaPath string
	simScenario   string
	simScSchema   string
	simView       string
	simAdminAddr  string
	simLogFile    string
	simSQLite     string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time drone simulator",
	Long:  "simulate flies the main drone and its followers through a scripted scenario, emitting frame, event and session telemetry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		if err := applyEnv(cfg); err != nil {
			return err
		}

		view, err := resolveView(simView, term.IsTerminal(int(os.Stdout.Fd())))
		if err != nil {
			return err
		}
		logger := logging.New()
		switch view {
		case viewTUI:
			// the TUI owns the terminal
			logger = logging.NewTo(io.Discard)
			log.SetOutput(io.Discard)
		case viewJSON:
			logger = logging.NewTo(os.Stderr)
			log.SetOutput(os.Stderr)
		}

		if _, builtin := scenario.BuiltIn()[simScenario]; !builtin && simScSchema != "" {
			if err := config.ValidateWithCue(simScenario, simScSchema); err != nil {
				return err
			}
		}
		sc, err := scenario.Resolve(simScenario)
		if err != nil {
			return err
		}
		player, err := scenario.NewPlayer(sc, logger)
		if err != nil {
			return err
		}

		writer, cleanup, err := newWriters(cfg, writerOptions{
			view:       view,
			printOnly:  simPrintOnly,
			logFile:    simLogFile,
			sqlitePath: simSQLite,
		})
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, logger)

		simulator, err := sim.NewSimulator(sessionID(cfg), cfg, player, writer,
			sim.WithLogger(logger),
			sim.WithNotifier(sim.LogNotifier{Log: logger}),
		)
		if err != nil {
			return err
		}
		writer.SetControls(simulator)

		if simAdminAddr != "" {
			srv := admin.NewServer(simulator)
			go func() {
				logger.Info("admin UI listening", "addr", simAdminAddr)
				writer.SetAdminStatus(true)
				if err := srv.Start(ctx, simAdminAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("admin server failed", "err", err)
				}
				writer.SetAdminStatus(false)
			}()
		}

		simulator.Run(ctx)
		logger.Info("drone simulation stopped", "scenario", sc.Name, "phase", player.Phase())
		return nil
	},
}

// applyEnv lets TICK_INTERVAL override the frame interval and SESSION_ID
// the session id.
func applyEnv(cfg *config.SimulationConfig) error {
	if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
		d, err := time.ParseDuration(envTick)
		if err != nil {
			return fmt.Errorf("invalid TICK_INTERVAL: %w", err)
		}
		if d < time.Millisecond {
			return fmt.Errorf("invalid TICK_INTERVAL: %s is below 1ms", d)
		}
		cfg.FrameIntervalMS = int(d.Milliseconds())
	}
	if id := os.Getenv("SESSION_ID"); id != "" {
		cfg.SessionID = id
	}
	return nil
}

// sessionID is the configured id or a fresh UUID.
func sessionID(cfg *config.SimulationConfig) string {
	if cfg.SessionID != "" {
		return cfg.SessionID
	}
	return uuid.NewString()
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Skip GreptimeDB even when GREPTIMEDB_ENDPOINT is set")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "demo-flight", "Built-in scenario name or path to a scenario YAML")
	simulateCmd.Flags().StringVar(&simScSchema, "scenario-schema", "schemas/scenario.cue", "CUE schema for scenario files, empty to skip")
	simulateCmd.Flags().StringVar(&simView, "view", viewAuto, "Terminal view: auto, tui, plain, json or none")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin", ":8080", "Admin UI listen address, empty to disable")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export frame/event/session logs (JSONL)")
	simulateCmd.Flags().StringVar(&simSQLite, "sqlite", "", "Path to a SQLite flight recording")
}
