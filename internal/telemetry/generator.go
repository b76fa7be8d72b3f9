package telemetry

import (
	"time"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
)

// Generator turns drone state into rows for one session.
type Generator struct {
	SessionID string
}

// NewGenerator creates a new row generator for a given session.
func NewGenerator(sessionID string) *Generator {
	return &Generator{SessionID: sessionID}
}

// Sample is the simulation state shared by every row of one telemetry sample.
type Sample struct {
	Frame     int64
	Phase     string
	SubPhase  string
	Formation string
	Colliding bool
	Speed     float64
	At        time.Time
}

// Frame builds the row for d at world pose p. Speed and collision state
// only apply to the main drone.
func (g *Generator) Frame(d *drone.Drone, p geom.Pose, s Sample) FrameRow {
	e := geom.ToEuler(p.Orientation)
	row := FrameRow{
		SessionID: g.SessionID,
		DroneID:   d.ID,
		Index:     d.Index,
		Phase:     s.Phase,
		SubPhase:  s.SubPhase,
		X:         p.Position.X,
		Y:         p.Position.Y,
		Z:         p.Position.Z,
		Yaw:       e.Y,
		Pitch:     e.X,
		Roll:      e.Z,
		Scale:     d.Scale,
		Formation: s.Formation,
		Frame:     s.Frame,
		Timestamp: s.At.UTC(),
	}
	if d.IsMain() {
		row.Speed = s.Speed
		row.Colliding = s.Colliding
	}
	return row
}

// Event builds an event row.
func (g *Generator) Event(typ, droneID, detail string, value float64, frame int64, at time.Time) EventRow {
	return EventRow{
		SessionID: g.SessionID,
		Type:      typ,
		DroneID:   droneID,
		Detail:    detail,
		Value:     value,
		Frame:     frame,
		Timestamp: at.UTC(),
	}
}
