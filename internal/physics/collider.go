// Package physics resolves drone collisions against detected planes, the
// floor and the synthetic obstacle course, and runs pre-startup free fall.
package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
	"github.com/BB999/drone-show/internal/xr"
)

// FloorHeight is the world height of the fixed floor.
const FloorHeight = 0.0

// horizontalNormalY separates floors and ceilings from walls.
const horizontalNormalY = 0.7

var up = geom.V(0, 1, 0)

// Contact is one penetration: push the drone Depth meters along Normal.
type Contact struct {
	Normal geom.Vec
	Depth  float64
}

// Collider is anything a drone can run into.
type Collider interface {
	Kind() string
	Collide(p geom.Vec, r drone.Radius) (Contact, bool)
}

// Floor is the infinite ground plane at FloorHeight.
type Floor struct{}

func (Floor) Kind() string { return "floor" }

func (Floor) Collide(p geom.Vec, r drone.Radius) (Contact, bool) {
	d := p.Y - FloorHeight
	if d >= r.Vertical {
		return Contact{}, false
	}
	return Contact{Normal: up, Depth: r.Vertical - d}, true
}

// Plane wraps a detected real-world surface.
type Plane struct {
	xr.Plane
}

func (Plane) Kind() string { return "plane" }

// Normal is the plane's local up axis in world space.
func (p Plane) Normal() geom.Vec {
	return geom.Rotate(p.Pose.Orientation, up)
}

// IsHorizontal reports whether the plane faces mostly up or down.
func (p Plane) IsHorizontal() bool {
	return math.Abs(p.Normal().Y) > horizontalNormalY
}

// Contains reports whether p projects inside the plane's polygon.
func (p Plane) Contains(pt geom.Vec) bool {
	local := p.Pose.ToLocal(pt)
	return geom.PointInPolygon(local.X, local.Z, p.Polygon)
}

func (p Plane) Collide(pt geom.Vec, r drone.Radius) (Contact, bool) {
	n := p.Normal()
	dist := r3.Dot(r3.Sub(pt, p.Pose.Position), n)
	radius := r.Horizontal
	if math.Abs(n.Y) > horizontalNormalY {
		radius = r.Vertical
	}
	if math.Abs(dist) >= radius || !p.Contains(pt) {
		return Contact{}, false
	}
	return Contact{
		Normal: r3.Scale(geom.Sign(dist), n),
		Depth:  radius - math.Abs(dist),
	}, true
}

// Cube is an oriented box with equal sides.
type Cube struct {
	Pose geom.Pose `json:"pose"`
	Size float64   `json:"size"`
	Hue  float64   `json:"hue"`
}

func (Cube) Kind() string { return "cube" }

func (c Cube) Collide(p geom.Vec, r drone.Radius) (Contact, bool) {
	l := c.Pose.ToLocal(p)
	half := c.Size / 2
	reach := r.Horizontal
	if math.Max(0, math.Abs(l.X)-half) >= reach ||
		math.Max(0, math.Abs(l.Y)-half) >= reach ||
		math.Max(0, math.Abs(l.Z)-half) >= reach {
		return Contact{}, false
	}
	ox := half + reach - math.Abs(l.X)
	oy := half + reach - math.Abs(l.Y)
	oz := half + reach - math.Abs(l.Z)
	var dir geom.Vec
	var depth float64
	switch {
	case ox <= oy && ox <= oz:
		dir, depth = geom.V(geom.Sign(l.X), 0, 0), ox
	case oy <= ox && oy <= oz:
		dir, depth = geom.V(0, geom.Sign(l.Y), 0), oy
	default:
		dir, depth = geom.V(0, 0, geom.Sign(l.Z)), oz
	}
	return Contact{Normal: c.Pose.DirToWorld(dir), Depth: depth}, true
}

// Pole is an upright cylinder centred on its pose.
type Pole struct {
	Pose   geom.Pose `json:"pose"`
	Radius float64   `json:"radius"`
	Height float64   `json:"height"`
}

func (Pole) Kind() string { return "pole" }

func (c Pole) Collide(p geom.Vec, r drone.Radius) (Contact, bool) {
	l := c.Pose.ToLocal(p)
	reach := c.Radius + r.Horizontal
	half := c.Height / 2
	horiz := math.Hypot(l.X, l.Z)
	inside := l.Y >= -half && l.Y <= half
	near := math.Abs(l.Y)-half < r.Vertical
	if horiz >= reach || !(inside || near) {
		return Contact{}, false
	}
	var dir geom.Vec
	var depth float64
	if inside {
		dir = geom.Unit(geom.V(l.X, 0, l.Z))
		depth = reach - horiz
	} else {
		toCap := geom.V(l.X, l.Y-geom.Clamp(l.Y, -half, half), l.Z)
		if n := r3.Norm(toCap); n > 0.001 {
			dir = r3.Scale(1/n, toCap)
			depth = reach - n
		}
	}
	if depth <= 0 || r3.Norm(dir) <= 0.001 {
		return Contact{}, false
	}
	return Contact{Normal: c.Pose.DirToWorld(dir), Depth: depth}, true
}

// Torus is a ring gate lying in its local XY plane.
type Torus struct {
	Pose        geom.Pose `json:"pose"`
	OuterRadius float64   `json:"outer_radius"`
	TubeRadius  float64   `json:"tube_radius"`
	Hue         float64   `json:"hue"`
	Gold        bool      `json:"gold,omitempty"`
}

func (Torus) Kind() string { return "torus" }

func (c Torus) Collide(p geom.Vec, r drone.Radius) (Contact, bool) {
	l := c.Pose.ToLocal(p)
	ring := math.Hypot(l.X, l.Y)
	toRing := ring - c.OuterRadius
	dist := math.Hypot(toRing, l.Z)
	reach := c.TubeRadius + r.Horizontal
	if dist >= reach {
		return Contact{}, false
	}
	a := math.Atan2(l.Y, l.X)
	nearest := geom.V(math.Cos(a)*c.OuterRadius, math.Sin(a)*c.OuterRadius, 0)
	dir := geom.Unit(r3.Sub(l, nearest))
	if dir == geom.Zero {
		return Contact{}, false
	}
	return Contact{Normal: c.Pose.DirToWorld(dir), Depth: reach - dist}, true
}
