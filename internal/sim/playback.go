package sim

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/BB999/drone-show/internal/telemetry"
)

// pacer sleeps between rows so playback follows the recorded timestamps.
// A speed >0 accelerates playback. If speed <= 0, no artificial delay is
// inserted. Rows of one sample share a timestamp and pass back to back.
type pacer struct {
	speed float64
	prev  time.Time
}

func (p *pacer) wait(ts time.Time) {
	if !p.prev.IsZero() && p.speed > 0 {
		diff := ts.Sub(p.prev)
		if p.speed != 1 {
			diff = time.Duration(float64(diff) / p.speed)
		}
		if diff > 0 {
			time.Sleep(diff)
		}
	}
	p.prev = ts
}

// ReplayLog replays JSONL frame rows from r to writer.
func ReplayLog(r io.Reader, writer TelemetryWriter, speed float64) error {
	dec := json.NewDecoder(r)
	p := pacer{speed: speed}
	for {
		var row telemetry.FrameRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		p.wait(row.Timestamp)
		if err := writer.Write(row); err != nil {
			return err
		}
	}
}

// ReplayLogFile opens a file and replays its frame rows.
func ReplayLogFile(path string, writer TelemetryWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}

// ReplayRecording replays a session stored by SQLiteRecorder. Events are
// interleaved with frames by timestamp when writer accepts them.
func ReplayRecording(rec *SQLiteRecorder, sessionID string, writer TelemetryWriter, speed float64) error {
	frames, err := rec.Frames(sessionID)
	if err != nil {
		return err
	}
	var events []telemetry.EventRow
	ew, hasEvents := writer.(EventWriter)
	if hasEvents {
		if events, err = rec.Events(sessionID, ""); err != nil {
			return err
		}
	}
	p := pacer{speed: speed}
	for _, row := range frames {
		for len(events) > 0 && !events[0].Timestamp.After(row.Timestamp) {
			p.wait(events[0].Timestamp)
			if err := ew.WriteEvent(events[0]); err != nil {
				return err
			}
			events = events[1:]
		}
		p.wait(row.Timestamp)
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	for _, e := range events {
		if err := ew.WriteEvent(e); err != nil {
			return err
		}
	}
	return nil
}
