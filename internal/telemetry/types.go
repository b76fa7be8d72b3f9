// Telemetry rows with greptime tags
package telemetry

import (
	"os"
	"time"
)

// FrameRow is the pose of one drone at one telemetry sample.
type FrameRow struct {
	SessionID string    `json:"session_id"` // TAG
	DroneID   string    `json:"drone_id"`   // TAG
	Index     int       `json:"index"`      // FIELD, -1 for the main drone
	Phase     string    `json:"phase"`      // FIELD
	SubPhase  string    `json:"sub_phase"`  // FIELD
	X         float64   `json:"x"`          // FIELD
	Y         float64   `json:"y"`          // FIELD
	Z         float64   `json:"z"`          // FIELD
	Yaw       float64   `json:"yaw"`        // FIELD
	Pitch     float64   `json:"pitch"`      // FIELD
	Roll      float64   `json:"roll"`       // FIELD
	Speed     float64   `json:"speed"`      // FIELD, m/s
	Scale     float64   `json:"scale"`      // FIELD
	Colliding bool      `json:"colliding"`  // FIELD
	Formation string    `json:"formation"`  // FIELD
	Frame     int64     `json:"frame"`      // FIELD
	Timestamp time.Time `json:"ts"`         // TIME INDEX
}

// FrameTableName holds the table name used when writing frames to GreptimeDB.
// It defaults to "drone_frames" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var FrameTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "drone_frames"
}()

func (FrameRow) TableName() string {
	return FrameTableName
}
