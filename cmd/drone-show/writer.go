package main

import (
	"fmt"
	"os"

	"github.com/BB999/drone-show/internal/config"
	"github.com/BB999/drone-show/internal/sim"
)

// Terminal views.
const (
	viewAuto  = "auto"
	viewTUI   = "tui"
	viewPlain = "plain"
	viewJSON  = "json"
	viewNone  = "none"
)

// resolveView picks the terminal view. auto means the TUI on a terminal
// and JSON lines otherwise.
func resolveView(view string, terminal bool) (string, error) {
	switch view {
	case "", viewAuto:
		if terminal {
			return viewTUI, nil
		}
		return viewJSON, nil
	case viewTUI, viewPlain, viewJSON, viewNone:
		return view, nil
	}
	return "", fmt.Errorf("unknown view %q", view)
}

// writerOptions selects the outputs of a run. logFile receives frame rows
// as JSONL; events and the session header go next to it with .events and
// .session suffixes.
type writerOptions struct {
	view       string
	printOnly  bool
	logFile    string
	sqlitePath string
}

// newWriters sets up the telemetry sinks based on options and env vars.
// It returns the fan-out writer and a cleanup function to close any
// resources.
func newWriters(cfg *config.SimulationConfig, o writerOptions) (*sim.MultiWriter, func(), error) {
	var writers []sim.TelemetryWriter
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch o.view {
	case viewTUI:
		tw := sim.NewTUIWriter(cfg)
		writers = append(writers, tw)
		closers = append(closers, tw.Close)
	case viewPlain:
		writers = append(writers, sim.NewStdoutWriter(cfg))
	case viewJSON:
		writers = append(writers, sim.NewJSONStdoutWriter())
	}

	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" && !o.printOnly {
		database := os.Getenv("GREPTIMEDB_DATABASE")
		if database == "" {
			database = "public"
		}
		gw, err := sim.NewGreptimeDBWriter(endpoint, database)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		writers = append(writers, gw)
	}

	if o.logFile != "" {
		fw, err := sim.NewFileWriter(o.logFile, o.logFile+".events", o.logFile+".session")
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		writers = append(writers, fw)
		closers = append(closers, fw.Close)
	}

	if o.sqlitePath != "" {
		rec, err := sim.NewSQLiteRecorder(o.sqlitePath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		writers = append(writers, rec)
		closers = append(closers, rec.Close)
	}

	return sim.NewMultiWriter(writers...), cleanup, nil
}
