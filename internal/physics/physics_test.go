package physics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
	"github.com/BB999/drone-show/internal/xr"
)

func testDrone(p geom.Vec) *drone.Drone {
	return drone.New(drone.MainIndex, p, drone.ReferenceScale)
}

func square(half float64) []geom.Point2 {
	return []geom.Point2{{X: -half, Z: -half}, {X: half, Z: -half}, {X: half, Z: half}, {X: -half, Z: half}}
}

func TestFloorBounceAfterStep(t *testing.T) {
	d := testDrone(geom.V(0, 0.20, 0))
	d.Velocity = geom.V(0, -2.0, 0)
	d.Position = r3.Add(d.Position, d.Velocity)

	res := Resolve(d, Colliders(nil, nil), false)

	assert.InDelta(t, 0.05, d.Position.Y, 1e-12)
	assert.InDelta(t, 1.0, d.Velocity.Y, 1e-12)
	assert.True(t, res.Colliding)
	assert.True(t, res.Started)
	assert.Equal(t, []string{"floor"}, res.Kinds)

	res = Resolve(d, Colliders(nil, nil), res.Colliding)
	assert.False(t, res.Started, "latch must not refire while resting")
}

func TestResolveNoContactClearsLatch(t *testing.T) {
	d := testDrone(geom.V(0, 1, 0))
	res := Resolve(d, Colliders(nil, nil), true)
	assert.False(t, res.Colliding)
	assert.False(t, res.Started)
}

func TestShallowFloorContactDoesNotStart(t *testing.T) {
	d := testDrone(geom.V(0, 0.0495, 0))
	res := Resolve(d, Colliders(nil, nil), false)
	assert.True(t, res.Contact)
	assert.False(t, res.Colliding, "a touch below the start depth does not latch")
	assert.False(t, res.Started)

	// A real hit on the next frame still fires.
	d.Position.Y = 0.03
	res = Resolve(d, Colliders(nil, nil), res.Colliding)
	assert.True(t, res.Started)
	assert.True(t, res.Colliding)
}

func TestWallPlaneUsesHorizontalRadius(t *testing.T) {
	// Wall at z = -1 facing +z.
	wall := Plane{xr.Plane{
		Pose:        geom.Pose{Position: geom.V(0, 1, -1), Orientation: geom.AxisAngle(geom.V(1, 0, 0), math.Pi/2)},
		Polygon:     square(2),
		Orientation: xr.Vertical,
	}}
	assert.False(t, wall.IsHorizontal())
	d := testDrone(geom.V(0, 1, -0.9))
	d.Velocity = geom.V(0, 0, -0.01)

	res := Resolve(d, []Collider{wall}, false)

	require.True(t, res.Colliding)
	assert.InDelta(t, -1+0.15, d.Position.Z, 1e-9)
	assert.InDelta(t, -1+0.15, d.BasePosition.Z, 1e-9)
	assert.InDelta(t, 0.005, d.Velocity.Z, 1e-12)
	assert.InDelta(t, 1.0, res.Haptic(), 1e-12)
}

func TestPlaneOutsidePolygonIgnored(t *testing.T) {
	table := Plane{xr.Plane{Pose: geom.At(geom.V(0, 0.7, 0)), Polygon: square(0.5), Orientation: xr.Horizontal}}
	d := testDrone(geom.V(2, 0.72, 0))
	res := Resolve(d, []Collider{table}, false)
	assert.False(t, res.Colliding)
	assert.Equal(t, 0.72, d.Position.Y)
}

func TestPlaneFromBelowPushesDown(t *testing.T) {
	ceiling := Plane{xr.Plane{Pose: geom.At(geom.V(0, 2, 0)), Polygon: square(3), Orientation: xr.Horizontal}}
	d := testDrone(geom.V(0, 1.98, 0))
	d.Velocity = geom.V(0, 0.01, 0)
	Resolve(d, []Collider{ceiling}, false)
	assert.InDelta(t, 1.95, d.Position.Y, 1e-9)
	assert.InDelta(t, -0.005, d.Velocity.Y, 1e-12)
}

func TestCubePushesAlongSmallestOverlap(t *testing.T) {
	cube := Cube{Pose: geom.At(geom.V(0, 1, 0)), Size: 1}
	d := testDrone(geom.V(0.6, 1.1, 0))
	d.Velocity = geom.V(-0.01, 0, 0)
	res := Resolve(d, []Collider{cube}, false)
	require.True(t, res.Colliding)
	assert.True(t, res.Started)
	assert.InDelta(t, 0.65, d.Position.X, 1e-9)
	assert.InDelta(t, 1.1, d.Position.Y, 1e-9)
	assert.InDelta(t, 0.005, d.Velocity.X, 1e-12)
}

func TestRotatedCube(t *testing.T) {
	cube := Cube{Pose: geom.Pose{Position: geom.V(0, 1, 0), Orientation: geom.FromYaw(math.Pi / 4)}, Size: 1}
	d := testDrone(geom.V(0.7, 1, 0))
	Resolve(d, []Collider{cube}, false)
	l := cube.Pose.ToLocal(d.Position)
	assert.InDelta(t, 0.65, math.Max(math.Abs(l.X), math.Abs(l.Z)), 1e-9)
}

func TestPoleRadialAndCap(t *testing.T) {
	pole := Pole{Pose: geom.At(geom.V(0, 1, 0)), Radius: 0.1, Height: 2}
	d := testDrone(geom.V(0.2, 1, 0))
	res := Resolve(d, []Collider{pole}, false)
	require.True(t, res.Colliding)
	assert.InDelta(t, 0.25, d.Position.X, 1e-9)

	d = testDrone(geom.V(0.05, 2.04, 0))
	res = Resolve(d, []Collider{pole}, false)
	require.True(t, res.Colliding)
	// pushed away from the nearest point on the axis, the top centre
	top := geom.V(0, 2, 0)
	assert.InDelta(t, 0.25, r3.Norm(r3.Sub(d.Position, top)), 1e-9)

	d = testDrone(geom.V(0.05, 2.2, 0))
	assert.False(t, Resolve(d, []Collider{pole}, false).Colliding)
}

func TestTorusTube(t *testing.T) {
	ring := Torus{Pose: geom.At(geom.V(0, 2, 0)), OuterRadius: 1, TubeRadius: 0.1}
	// Through the centre of the ring: clear.
	d := testDrone(geom.V(0, 2, 0))
	assert.False(t, Resolve(d, []Collider{ring}, false).Colliding)

	// Just inside the tube on the +x side, slightly toward the centre.
	d = testDrone(geom.V(0.85, 2, 0))
	res := Resolve(d, []Collider{ring}, false)
	require.True(t, res.Colliding)
	assert.InDelta(t, 0.75, d.Position.X, 1e-9)

	// In front of the tube along local z.
	d = testDrone(geom.V(1, 2, 0.1))
	Resolve(d, []Collider{ring}, false)
	assert.InDelta(t, 0.25, d.Position.Z, 1e-9)
}

func TestCumulativeCorrections(t *testing.T) {
	wall := Plane{xr.Plane{
		Pose:    geom.Pose{Position: geom.V(0, 0, -1), Orientation: geom.AxisAngle(geom.V(1, 0, 0), math.Pi/2)},
		Polygon: square(2),
	}}
	d := testDrone(geom.V(0, 0.02, -0.95))
	res := Resolve(d, Colliders([]Plane{wall}, nil), false)
	assert.Equal(t, []string{"plane", "floor"}, res.Kinds)
	assert.InDelta(t, 0.05, d.Position.Y, 1e-9)
	assert.InDelta(t, -0.85, d.Position.Z, 1e-9)
}

func TestNonPenetrationAtRest(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	course := GenerateCourse(42)
	colliders := Colliders(nil, course.Obstacles)
	for i := 0; i < 500; i++ {
		p := geom.V(r.Float64()*20-10, r.Float64()*4, r.Float64()*20-10)
		d := testDrone(p)
		Resolve(d, []Collider{Floor{}}, false)
		assert.GreaterOrEqual(t, d.Position.Y-FloorHeight, d.Radius.Vertical-1e-9)
		for _, c := range colliders {
			if _, ok := c.(Floor); ok {
				continue
			}
			d := testDrone(p)
			Resolve(d, []Collider{c}, false)
			ct, hit := c.Collide(d.Position, d.Radius)
			if hit {
				assert.Less(t, ct.Depth, 1e-6, "%s still penetrated", c.Kind())
			}
		}
	}
}

func TestLandingHeight(t *testing.T) {
	table := Plane{xr.Plane{Pose: geom.At(geom.V(0, 0.7, 0)), Polygon: square(0.5), Orientation: xr.Horizontal}}
	d := testDrone(geom.V(0, 1.2, 0))
	assert.InDelta(t, 0.75, LandingHeight(d, []Plane{table}), 1e-12)

	d.Position = geom.V(0, 0.5, 0)
	assert.InDelta(t, 0.05, LandingHeight(d, []Plane{table}), 1e-12)

	d.Position = geom.V(3, 1.2, 0)
	assert.InDelta(t, 0.05, LandingHeight(d, []Plane{table}), 1e-12)
}

func TestFreeFallBouncesAndSettles(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	d := testDrone(geom.V(0, 1.0, 0))
	colliding := false
	crashes := 0
	settled := false
	for i := 0; i < 2000 && !settled; i++ {
		f := FreeFall(d, nil, r, colliding)
		if f.Crash {
			crashes++
			assert.GreaterOrEqual(t, f.Haptic(), 0.3)
		}
		colliding = f.Latch(colliding)
		require.GreaterOrEqual(t, d.Position.Y, 0.05-1e-12)
		settled = f.Settled
	}
	require.True(t, settled)
	assert.GreaterOrEqual(t, crashes, 1)
	for i := 0; i < 30; i++ {
		require.True(t, FreeFall(d, nil, r, colliding).Settled)
	}
	assert.Equal(t, geom.Zero, d.FallVelocity)
	assert.InDelta(t, 0.05, d.Position.Y, 1e-12)
	e := geom.ToEuler(d.Rotation)
	assert.Less(t, math.Abs(e.X), 0.02)
	assert.Less(t, math.Abs(e.Z), 0.02)
}

func TestFreeFallFirstContact(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	d := testDrone(geom.V(0, 0.06, 0))
	d.FallVelocity = geom.V(0.2, -2, 0)
	f := FreeFall(d, nil, r, false)
	require.True(t, f.Contact)
	require.True(t, f.Bounced)
	assert.True(t, f.Crash)
	assert.InDelta(t, 0.05, d.Position.Y, 1e-12)
	assert.InDelta(t, (2+9.8*0.016)*0.5, d.FallVelocity.Y, 1e-12)
	assert.InDelta(t, 0.2*0.7, d.FallVelocity.X, 1e-12)
	assert.True(t, f.Latch(false))
}

func TestCourseDeterministic(t *testing.T) {
	a := GenerateCourse(12345)
	b := GenerateCourse(12345)
	require.Equal(t, a.Records(), b.Records())

	counts := a.Counts()
	assert.Equal(t, 20+boundaryPoles+8, counts["pole"])
	assert.GreaterOrEqual(t, counts["cube"], 35)
	assert.LessOrEqual(t, counts["cube"], 35+12+15+20+10)
	gold := 0
	for _, rec := range a.Records() {
		if rec.Gold {
			gold++
			assert.InDelta(t, 0.1, rec.TubeRadius, 1e-12)
		}
	}
	assert.Equal(t, len(goldGates), gold)

	c := GenerateCourse(54321)
	assert.NotEqual(t, a.Records()[0], c.Records()[0])
}

func TestCourseKeepsSpawnClear(t *testing.T) {
	for _, rec := range GenerateCourse(7).Records() {
		assert.GreaterOrEqual(t, math.Hypot(rec.Position.X, rec.Position.Z), minClearance-1e-9, rec.Kind)
	}
}
