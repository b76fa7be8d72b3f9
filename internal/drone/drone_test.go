package drone

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BB999/drone-show/internal/geom"
)

func TestRadiusForReferenceScale(t *testing.T) {
	r := RadiusForScale(ReferenceScale)
	assert.InDelta(t, 0.15, r.Horizontal, 1e-12)
	assert.InDelta(t, 0.05, r.Vertical, 1e-12)
}

func TestSetScaleClampsToMinimum(t *testing.T) {
	d := New(MainIndex, geom.Zero, 0.3)
	d.SetScale(0.001)
	assert.Equal(t, MinScale, d.Scale)
	assert.Equal(t, RadiusForScale(MinScale), d.Radius)
}

func TestGridLayout(t *testing.T) {
	grid := DefaultLayout().Grid(rand.New(rand.NewSource(1)))
	require.Len(t, grid, FollowerCount)
	for i, p := range grid {
		col := i % GridColumns
		row := i / GridColumns
		assert.InDelta(t, (float64(col)-4.5)*GridSpacing, p.X, GridJitter+1e-12)
		assert.InDelta(t, (float64(row)-2)*GridSpacing, p.Z, GridJitter+1e-12)
		assert.Zero(t, p.Y)
	}
}

func TestFollowerPersonalities(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	fs := NewFollowers(DefaultLayout().Grid(r), 0.03, r)
	require.Len(t, fs, FollowerCount)
	ids := map[string]bool{}
	for i, f := range fs {
		assert.Equal(t, i, f.Index)
		assert.False(t, f.IsMain())
		assert.Nil(t, f.Flight)
		assert.GreaterOrEqual(t, f.Personality.Inertia, 0.5)
		assert.Less(t, f.Personality.Inertia, 1.5)
		assert.GreaterOrEqual(t, f.Personality.ReactionDelay, 0.0)
		assert.Less(t, f.Personality.ReactionDelay, 0.5)
		assert.False(t, ids[f.ID], "duplicate id")
		ids[f.ID] = true
	}
}

func TestKPositions(t *testing.T) {
	k := KPositions()
	require.Len(t, k, FollowerCount)
	assert.InDelta(t, 0.17, k[0].Y, 1e-12)
	assert.InDelta(t, 0.17-17*0.02, k[17].Y, 1e-12)
	assert.InDelta(t, 0.12, k[33].X, 1e-12)
	assert.InDelta(t, 0.17, k[33].Y, 1e-12)
	assert.InDelta(t, -0.17, k[49].Y, 1e-12)
	for _, p := range k {
		assert.Zero(t, p.Z)
	}
}

func TestDefaultFormationsCopyGrid(t *testing.T) {
	grid := DefaultLayout().Grid(rand.New(rand.NewSource(3)))
	fs := DefaultFormations(grid)
	require.Len(t, fs, 2)
	grid[0].X = 99
	assert.NotEqual(t, 99.0, fs[0].Targets[0].X)
	assert.NoError(t, fs[1].Validate(FollowerCount))
	assert.Error(t, Formation{Name: "short"}.Validate(1))
}

func TestFlightParamRanges(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 100; i++ {
		p := NewFlightParams(r)
		assert.GreaterOrEqual(t, p.SpeedMultiplier, 0.8)
		assert.LessOrEqual(t, p.SpeedMultiplier, 1.2)
		assert.GreaterOrEqual(t, p.WobbleFrequency, 2.0)
		assert.LessOrEqual(t, p.WobbleAmplitude, 0.0018)
		assert.LessOrEqual(t, p.DriftX, 0.00005)
		assert.GreaterOrEqual(t, p.DriftZ, -0.00005)
		assert.False(t, p.HasArrived)
	}
}

func TestSwarmFrameFollowsMain(t *testing.T) {
	main := New(MainIndex, geom.V(1, 2, 3), ReferenceScale)
	main.Rotation = geom.FromYaw(1.2)
	f := New(0, geom.V(0.1, 0, 0), ReferenceScale)
	s := Swarm{Main: main, Followers: []*Drone{f}, BaseScale: ReferenceScale}

	world := s.WorldPose(f).Position
	assert.InDelta(t, 0.1, distance(world, main.Position), 1e-12)

	main.Position = geom.V(1, 5, 3)
	assert.InDelta(t, world.Y+3, s.WorldPose(f).Position.Y, 1e-12, "moves with the main drone")

	main.SetScale(2 * ReferenceScale)
	assert.InDelta(t, 0.2, distance(s.WorldPose(f).Position, main.Position), 1e-12, "scales with the main drone")

	target := geom.Pose{Position: geom.V(1.3, 5.1, 3), Orientation: geom.FromYaw(0.2)}
	s.SetWorldPose(f, target)
	got := s.WorldPose(f)
	assert.InDelta(t, 0, distance(got.Position, target.Position), 1e-12)
	assert.InDelta(t, 0.2, geom.Yaw(got.Orientation), 1e-9)
	require.Equal(t, f.Position, f.BasePosition)
}

func distance(a, b geom.Vec) float64 {
	d := geom.V(a.X-b.X, a.Y-b.Y, a.Z-b.Z)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}
