package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/BB999/drone-show/internal/sim"
)

var (
	replayInput     string
	replaySQLite    string
	replaySession   string
	replaySpeed     float64
	replayPrintOnly bool
	replayView      string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded flight",
	Long:  "replay feeds frame rows from a JSONL log or a SQLite recording back into GreptimeDB or the terminal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (replayInput == "") == (replaySQLite == "") {
			return fmt.Errorf("exactly one of --input or --sqlite is required")
		}
		if replaySQLite != "" && replaySession == "" {
			return fmt.Errorf("--session is required with --sqlite")
		}
		view, err := resolveView(replayView, term.IsTerminal(int(os.Stdout.Fd())))
		if err != nil {
			return err
		}
		writer, cleanup, err := newWriters(nil, writerOptions{view: view, printOnly: replayPrintOnly})
		if err != nil {
			return err
		}
		defer cleanup()
		return replay(writer, replaySpeed)
	},
}

func replay(writer sim.TelemetryWriter, speed float64) error {
	if replayInput != "" {
		return sim.ReplayLogFile(replayInput, writer, speed)
	}
	rec, err := sim.NewSQLiteRecorder(replaySQLite)
	if err != nil {
		return err
	}
	defer rec.Close()
	return sim.ReplayRecording(rec, replaySession, writer, speed)
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to a JSONL frame log")
	replayCmd.Flags().StringVar(&replaySQLite, "sqlite", "", "Path to a SQLite flight recording")
	replayCmd.Flags().StringVar(&replaySession, "session", "", "Session id to replay from the recording")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier, 0 for no delay")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Skip GreptimeDB even when GREPTIMEDB_ENDPOINT is set")
	replayCmd.Flags().StringVar(&replayView, "view", viewAuto, "Terminal view: auto, tui, plain, json or none")
}
