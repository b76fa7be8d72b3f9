package physics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
)

// reflectFactor removes the approaching velocity component and sends half
// of it back out.
const reflectFactor = 1.5

// minStartDepth is the penetration needed before a surface contact counts
// as a new collision.
const minStartDepth = 0.001

// Result summarises one resolver pass.
type Result struct {
	// Contact is true when any collider was penetrated this frame.
	Contact bool
	// Colliding is the latch: set by a collision start and held while
	// contact lasts. A shallow touch alone does not set it.
	Colliding bool
	// Started is true on the frame a collision begins.
	Started bool
	// Depth is the deepest correction applied this frame.
	Depth float64
	// Kinds lists what was hit, in test order.
	Kinds []string
}

// Haptic is the controller pulse strength for a collision of this depth.
func (r Result) Haptic() float64 {
	return geom.Clamp(r.Depth*20, 0.3, 1.0)
}

// Resolve tests d against every collider in order, pushing it out of each
// penetration and reflecting velocity that points into the surface.
// Corrections accumulate. wasColliding is last frame's latch.
func Resolve(d *drone.Drone, colliders []Collider, wasColliding bool) Result {
	var res Result
	for _, c := range colliders {
		ct, ok := c.Collide(d.Position, d.Radius)
		if !ok {
			continue
		}
		res.Contact = true
		res.Kinds = append(res.Kinds, c.Kind())
		push := r3.Scale(ct.Depth, ct.Normal)
		d.Position = r3.Add(d.Position, push)
		d.BasePosition = r3.Add(d.BasePosition, push)
		if vn := r3.Dot(d.Velocity, ct.Normal); vn < 0 {
			d.Velocity = r3.Sub(d.Velocity, r3.Scale(vn*reflectFactor, ct.Normal))
		}
		if ct.Depth > res.Depth {
			res.Depth = ct.Depth
		}
		if !wasColliding && !res.Started && ct.Depth > startThreshold(c) {
			res.Started = true
		}
	}
	res.Colliding = res.Contact && (wasColliding || res.Started)
	return res
}

func startThreshold(c Collider) float64 {
	switch c.(type) {
	case Floor, Plane:
		return minStartDepth
	}
	return 0
}

// Colliders assembles the standard test order: planes, the floor, then
// obstacles.
func Colliders(planes []Plane, obstacles []Collider) []Collider {
	out := make([]Collider, 0, len(planes)+1+len(obstacles))
	for _, p := range planes {
		out = append(out, p)
	}
	out = append(out, Floor{})
	return append(out, obstacles...)
}
