package physics

import (
	"math"

	"github.com/BB999/drone-show/internal/geom"
)

// Course is a generated VR obstacle layout.
type Course struct {
	Seed      int64      `json:"seed"`
	Obstacles []Collider `json:"-"`
}

// Counts tallies obstacles by kind.
func (c Course) Counts() map[string]int {
	out := map[string]int{}
	for _, o := range c.Obstacles {
		out[o.Kind()]++
	}
	return out
}

// lcg is the course's deterministic random source.
type lcg struct{ state int64 }

func (g *lcg) next() float64 {
	g.state = (g.state*1103515245 + 12345) & 0x7fffffff
	return float64(g.state) / 0x7fffffff
}

func (g *lcg) between(lo, hi float64) float64 {
	return lo + g.next()*(hi-lo)
}

// chance returns between(lo, hi) with probability p, else zero.
func (g *lcg) chance(p, lo, hi float64) float64 {
	if g.next() < p {
		return g.between(lo, hi)
	}
	return 0
}

// minClearance keeps obstacles away from the spawn point.
const minClearance = 1.0

// scatter is how a group spreads its members around the origin.
type scatter struct {
	minDist, maxDist float64
	jitter           float64
	// retry re-rolls positions too close to the origin up to ten times.
	// Without it such members are dropped.
	retry bool
}

func (s scatter) place(g *lcg) (x, z float64, ok bool) {
	for attempt := 0; attempt < 10; attempt++ {
		angle := g.next() * math.Pi * 2
		dist := g.between(s.minDist, s.maxDist)
		x = math.Cos(angle) * dist
		z = math.Sin(angle) * dist
		if s.jitter > 0 {
			x += g.between(-s.jitter, s.jitter)
			z += g.between(-s.jitter, s.jitter)
		}
		ok = math.Hypot(x, z) >= minClearance
		if ok || !s.retry {
			break
		}
	}
	if s.retry {
		ok = true
	}
	return x, z, ok
}

type group struct {
	count int
	at    scatter
	build func(g *lcg, x, z float64) Collider
}

func posed(x, y, z float64, e geom.Euler) geom.Pose {
	return geom.Pose{Position: geom.V(x, y, z), Orientation: geom.FromEulerXYZ(e)}
}

// courseGroups lists the scattered groups in generation order. The gold
// gates and boundary poles are placed on rings and handled separately.
var courseGroups = []group{
	{25, scatter{1, 40, 3, true}, func(g *lcg, x, z float64) Collider {
		y := g.between(1.0, 3.5)
		r := g.between(0.6, 1.3)
		e := geom.Euler{X: g.chance(0.3, 0, math.Pi/4), Y: g.next() * math.Pi * 2}
		e.Z = g.chance(0.2, -math.Pi/6, math.Pi/6)
		tube := g.between(0.06, 0.1)
		return Torus{Pose: posed(x, y, z, e), OuterRadius: r, TubeRadius: tube, Hue: g.next()*0.4 + 0.45}
	}},
	{35, scatter{1, 38, 4, true}, func(g *lcg, x, z float64) Collider {
		size := g.between(0.3, 0.9)
		y := g.between(0.8, 3.5)
		hue := g.next()*0.2 + 0.02
		e := geom.Euler{X: g.next() * 0.4, Y: g.next() * math.Pi, Z: g.next() * 0.4}
		return Cube{Pose: posed(x, y, z, e), Size: size, Hue: hue}
	}},
	{20, scatter{1, 35, 2, true}, func(g *lcg, x, z float64) Collider {
		h := g.between(2.5, 5.5)
		return Pole{Pose: geom.At(geom.V(x, h/2, z)), Radius: 0.12, Height: h}
	}},
}

// outerGroups follow the rings.
var outerGroups = []group{
	{12, scatter{25, 38, 0, false}, func(g *lcg, x, z float64) Collider {
		size := g.between(0.8, 1.2)
		y := g.between(1.2, 2.5)
		hue := 0.7 + g.next()*0.2
		e := geom.Euler{X: g.next() * math.Pi, Y: g.next() * math.Pi, Z: g.next() * math.Pi}
		return Cube{Pose: posed(x, y, z, e), Size: size, Hue: hue}
	}},
	{15, scatter{1, 40, 5, false}, func(g *lcg, x, z float64) Collider {
		size := g.between(1.5, 4.0)
		y := g.between(1.0, 8.0)
		hue := g.next()
		e := geom.Euler{X: g.next() * 0.5, Y: g.next() * math.Pi, Z: g.next() * 0.5}
		return Cube{Pose: posed(x, y, z, e), Size: size, Hue: hue}
	}},
	{10, scatter{1, 35, 3, false}, func(g *lcg, x, z float64) Collider {
		r := g.between(1.5, 3.5)
		y := g.between(2.0, 10.0)
		e := geom.Euler{X: g.chance(0.4, 0, math.Pi/3), Y: g.next() * math.Pi * 2}
		e.Z = g.chance(0.3, -math.Pi/4, math.Pi/4)
		tube := g.between(0.1, 0.2)
		return Torus{Pose: posed(x, y, z, e), OuterRadius: r, TubeRadius: tube, Hue: g.next()*0.3 + 0.55}
	}},
	{20, scatter{1, 40, 4, false}, func(g *lcg, x, z float64) Collider {
		size := g.between(0.4, 2.0)
		y := g.between(5, 15)
		hue := g.next()*0.15 + 0.95
		e := geom.Euler{X: g.next() * math.Pi, Y: g.next() * math.Pi, Z: g.next() * math.Pi}
		return Cube{Pose: posed(x, y, z, e), Size: size, Hue: hue}
	}},
	{15, scatter{1, 38, 3, false}, func(g *lcg, x, z float64) Collider {
		r := g.between(0.7, 2.0)
		y := g.between(6, 14)
		e := geom.Euler{X: g.next() * math.Pi / 2, Y: g.next() * math.Pi * 2, Z: g.next() * math.Pi / 3}
		tube := g.between(0.06, 0.12)
		return Torus{Pose: posed(x, y, z, e), OuterRadius: r, TubeRadius: tube, Hue: g.next()*0.2 + 0.35}
	}},
	{8, scatter{1, 35, 0, true}, func(g *lcg, x, z float64) Collider {
		r := g.between(2.0, 4.0)
		y := g.between(15, 25)
		e := geom.Euler{X: g.next() * math.Pi / 3, Y: g.next() * math.Pi * 2}
		tube := g.between(0.12, 0.2)
		return Torus{Pose: posed(x, y, z, e), OuterRadius: r, TubeRadius: tube}
	}},
	{10, scatter{1, 40, 3, false}, func(g *lcg, x, z float64) Collider {
		size := g.between(1.0, 3.0)
		y := g.between(15, 22)
		e := geom.Euler{X: g.next() * math.Pi, Y: g.next() * math.Pi, Z: g.next() * math.Pi}
		return Cube{Pose: posed(x, y, z, e), Size: size}
	}},
	{8, scatter{1, 38, 0, true}, func(g *lcg, x, z float64) Collider {
		h := g.between(10, 25)
		r := g.between(0.2, 0.5)
		return Pole{Pose: geom.At(geom.V(x, h/2, z)), Radius: r, Height: h}
	}},
}

var goldGates = []struct{ dist, angle float64 }{
	{40, 0}, {40, math.Pi / 2}, {40, math.Pi}, {40, math.Pi * 1.5},
	{35, math.Pi / 4}, {35, math.Pi * 3 / 4}, {35, math.Pi * 5 / 4}, {35, math.Pi * 7 / 4},
}

const boundaryPoles = 24

// GenerateCourse builds the VR training course for seed. The same seed
// always yields the same course.
func GenerateCourse(seed int64) Course {
	g := &lcg{state: seed & 0x7fffffff}
	c := Course{Seed: seed}
	run := func(groups []group) {
		for _, gr := range groups {
			for i := 0; i < gr.count; i++ {
				x, z, ok := gr.at.place(g)
				if !ok {
					continue
				}
				c.Obstacles = append(c.Obstacles, gr.build(g, x, z))
			}
		}
	}

	run(courseGroups)
	for _, gate := range goldGates {
		x := math.Cos(gate.angle) * gate.dist
		z := math.Sin(gate.angle) * gate.dist
		y := g.between(1.5, 2.5)
		r := g.between(1.2, 1.8)
		pose := posed(x, y, z, geom.Euler{Y: gate.angle + math.Pi/2})
		c.Obstacles = append(c.Obstacles, Torus{Pose: pose, OuterRadius: r, TubeRadius: 0.1, Hue: 0.14, Gold: true})
	}
	for i := 0; i < boundaryPoles; i++ {
		angle := float64(i)/boundaryPoles*math.Pi*2 + g.between(-0.1, 0.1)
		dist := g.between(38, 45)
		h := g.between(3, 5)
		pos := geom.V(math.Cos(angle)*dist, h/2, math.Sin(angle)*dist)
		c.Obstacles = append(c.Obstacles, Pole{Pose: geom.At(pos), Radius: 0.08, Height: h})
	}
	run(outerGroups)
	return c
}

// ObstacleRecord is a flat description of an obstacle for logs and
// storage.
type ObstacleRecord struct {
	Kind        string    `json:"kind"`
	Position    geom.Vec  `json:"position"`
	Orientation geom.Quat `json:"orientation"`
	Size        float64   `json:"size,omitempty"`
	Radius      float64   `json:"radius,omitempty"`
	Height      float64   `json:"height,omitempty"`
	OuterRadius float64   `json:"outer_radius,omitempty"`
	TubeRadius  float64   `json:"tube_radius,omitempty"`
	Gold        bool      `json:"gold,omitempty"`
}

// Describe flattens an obstacle. Unknown collider kinds only carry their
// kind.
func Describe(c Collider) ObstacleRecord {
	rec := ObstacleRecord{Kind: c.Kind(), Orientation: geom.Identity}
	switch o := c.(type) {
	case Cube:
		rec.Position, rec.Orientation, rec.Size = o.Pose.Position, o.Pose.Orientation, o.Size
	case Pole:
		rec.Position, rec.Orientation = o.Pose.Position, o.Pose.Orientation
		rec.Radius, rec.Height = o.Radius, o.Height
	case Torus:
		rec.Position, rec.Orientation = o.Pose.Position, o.Pose.Orientation
		rec.OuterRadius, rec.TubeRadius, rec.Gold = o.OuterRadius, o.TubeRadius, o.Gold
	}
	return rec
}

// Records describes every obstacle in the course.
func (c Course) Records() []ObstacleRecord {
	out := make([]ObstacleRecord, len(c.Obstacles))
	for i, o := range c.Obstacles {
		out[i] = Describe(o)
	}
	return out
}
