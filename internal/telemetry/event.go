package telemetry

import "time"

const (
	EventPhase      = "phase"
	EventCollision  = "collision"
	EventCrash      = "crash"
	EventFormation  = "formation"
	EventGrab       = "grab"
	EventRelease    = "release"
	EventResize     = "resize"
	EventAutoReturn = "auto_return"
)

// EventRow is a discrete simulation event.
type EventRow struct {
	SessionID string    `json:"session_id"`
	Type      string    `json:"type"`
	DroneID   string    `json:"drone_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Value     float64   `json:"value"`
	Frame     int64     `json:"frame"`
	Timestamp time.Time `json:"ts"`
}

func (EventRow) TableName() string { return "drone_events" }

// SessionRow describes one simulation run.
type SessionRow struct {
	SessionID  string    `json:"session_id"`
	Mode       string    `json:"mode"`
	CourseSeed int64     `json:"course_seed"`
	Followers  int       `json:"followers"`
	Scale      float64   `json:"scale"`
	StartedAt  time.Time `json:"started_at"`
	Timestamp  time.Time `json:"ts"`
}

func (SessionRow) TableName() string { return "drone_sessions" }
