package drone

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BB999/drone-show/internal/geom"
)

// Swarm layout defaults.
const (
	FollowerCount = 50
	GridColumns   = 10
	GridRows      = 5
	GridSpacing   = 0.08
	GridJitter    = 0.01
)

// DefaultSwarmOrigin is where the main drone, and with it the follower
// group, starts before it is positioned.
var DefaultSwarmOrigin = geom.V(0, 0, -2)

// Layout describes how the follower grid is built.
type Layout struct {
	Columns int
	Rows    int
	Spacing float64
	Jitter  float64
}

// DefaultLayout is the 10x5 grid.
func DefaultLayout() Layout {
	return Layout{Columns: GridColumns, Rows: GridRows, Spacing: GridSpacing, Jitter: GridJitter}
}

// Count is the number of followers the layout places.
func (l Layout) Count() int { return l.Columns * l.Rows }

// Grid returns the jittered grid positions, row by row.
func (l Layout) Grid(r *rand.Rand) []geom.Vec {
	cx := float64(l.Columns-1) / 2
	cz := float64(l.Rows-1) / 2
	out := make([]geom.Vec, 0, l.Count())
	for row := 0; row < l.Rows; row++ {
		for col := 0; col < l.Columns; col++ {
			x := (float64(col)-cx)*l.Spacing + (r.Float64()-0.5)*2*l.Jitter
			z := (float64(row)-cz)*l.Spacing + (r.Float64()-0.5)*2*l.Jitter
			out = append(out, geom.V(x, 0, z))
		}
	}
	return out
}

// NewFollowers creates one follower per position with a random personality.
func NewFollowers(positions []geom.Vec, scale float64, r *rand.Rand) []*Drone {
	out := make([]*Drone, len(positions))
	for i, p := range positions {
		d := New(i, p, scale)
		d.Personality = Personality{
			Inertia:       0.5 + r.Float64(),
			ReactionDelay: r.Float64() * 0.5,
		}
		out[i] = d
	}
	return out
}

// Swarm is the main drone plus its followers. Follower coordinates are
// local to the main drone's frame, which moves, turns and scales with it.
type Swarm struct {
	Main      *Drone
	Followers []*Drone
	// BaseScale is the main drone scale at which the frame is unscaled.
	BaseScale float64
}

// All lists the main drone first, then the followers.
func (s Swarm) All() []*Drone {
	out := make([]*Drone, 0, len(s.Followers)+1)
	if s.Main != nil {
		out = append(out, s.Main)
	}
	return append(out, s.Followers...)
}

// Frame is the main drone's world pose and the uniform scale of the
// follower frame.
func (s Swarm) Frame() (geom.Pose, float64) {
	if s.Main == nil {
		return geom.IdentityPose, 1
	}
	k := 1.0
	if s.BaseScale > 0 {
		k = s.Main.Scale / s.BaseScale
	}
	return s.Main.Pose(), k
}

// WorldPose is d's pose in world coordinates.
func (s Swarm) WorldPose(d *Drone) geom.Pose {
	if d.IsMain() {
		return d.Pose()
	}
	f, k := s.Frame()
	return geom.Pose{
		Position:    f.ToWorld(r3.Scale(k, d.Position)),
		Orientation: f.OrientationToWorld(d.Rotation),
	}
}

// SetWorldPose places d at a world pose and makes it the base position.
func (s Swarm) SetWorldPose(d *Drone, p geom.Pose) {
	if !d.IsMain() {
		f, k := s.Frame()
		p = geom.Pose{
			Position:    r3.Scale(1/k, f.ToLocal(p.Position)),
			Orientation: f.OrientationToLocal(p.Orientation),
		}
	}
	d.Position = p.Position
	d.BasePosition = p.Position
	d.Rotation = p.Orientation
}

// Nearest returns the drone closest to p within reach, or nil.
func (s Swarm) Nearest(p geom.Vec, reach float64) *Drone {
	var best *Drone
	bestDist := reach
	for _, d := range s.All() {
		if dist := r3.Norm(r3.Sub(s.WorldPose(d).Position, p)); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}
