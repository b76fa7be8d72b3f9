package drone

import (
	"fmt"

	"github.com/BB999/drone-show/internal/geom"
)

// Formation is a named set of target positions, one per follower index,
// in swarm-frame coordinates.
type Formation struct {
	Name    string     `json:"name"`
	Targets []geom.Vec `json:"targets"`
}

// KPositions lays out the letter K with 50 points: an 18 point stem and two
// 16 point diagonals meeting just right of the stem.
func KPositions() []geom.Vec {
	out := make([]geom.Vec, 0, FollowerCount)
	for i := 0; i < 18; i++ {
		out = append(out, geom.V(-0.12, 0.17-float64(i)*0.02, 0))
	}
	for i := 0; i < 16; i++ {
		t := float64(i) / 15
		out = append(out, geom.V(-0.10+0.22*t, 0.02+0.15*t, 0))
	}
	for i := 0; i < 16; i++ {
		t := float64(i) / 15
		out = append(out, geom.V(-0.10+0.22*t, -0.02-0.15*t, 0))
	}
	return out
}

// DefaultFormations returns the original grid followed by the letter K.
func DefaultFormations(grid []geom.Vec) []Formation {
	original := make([]geom.Vec, len(grid))
	copy(original, grid)
	return []Formation{
		{Name: "original", Targets: original},
		{Name: "k", Targets: KPositions()},
	}
}

// Validate checks that every follower has a target.
func (f Formation) Validate(followers int) error {
	if len(f.Targets) < followers {
		return fmt.Errorf("formation %q has %d targets for %d followers", f.Name, len(f.Targets), followers)
	}
	return nil
}
