package flight

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
)

// HoverOffset is the cosmetic bob and sway added to a flying drone.
type HoverOffset struct {
	Position geom.Vec
	TiltX    float64
	TiltZ    float64
}

// HoverAt returns the oscillation at hover time t for a drone of the given
// scale. Larger drones sway further.
func HoverAt(t, scale float64) HoverOffset {
	m := geom.Clamp(math.Sqrt(scale/drone.ReferenceScale), 0.3, 2.0)
	return HoverOffset{
		Position: geom.V(
			math.Sin(t*0.8)*0.008*m,
			math.Sin(t*1.2)*0.006*m,
			math.Cos(t*0.9)*0.004*m,
		),
		TiltX: math.Sin(t*0.7) * 0.008 * m,
		TiltZ: math.Cos(t*0.85) * 0.008 * m,
	}
}

// ApplyHover sets the visible pose from the base position, heading,
// physics tilt and the hover oscillation.
func ApplyHover(d *drone.Drone, t float64) {
	h := HoverAt(t, d.Scale)
	d.Position = r3.Add(d.BasePosition, h.Position)
	d.Rotation = geom.FromEuler(geom.Euler{
		X: d.Tilt.X + h.TiltX,
		Y: d.Yaw(),
		Z: d.Tilt.Z + h.TiltZ,
	})
}
