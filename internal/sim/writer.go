package sim

import (
	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/telemetry"
)

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.FrameRow) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.FrameRow) error
}

// EventWriter handles discrete simulation events.
type EventWriter interface {
	WriteEvent(telemetry.EventRow) error
}

// Optional: event writers may support batch mode.
type batchEventWriter interface {
	WriteEvents([]telemetry.EventRow) error
}

// SessionWriter records the session header once per run.
type SessionWriter interface {
	WriteSession(telemetry.SessionRow) error
}

// CourseWriter records the obstacle layout of a VR session.
type CourseWriter interface {
	WriteCourse(seed int64, obstacles []physics.ObstacleRecord) error
}
