package flight

import (
	"math"

	"github.com/BB999/drone-show/internal/xr"
)

// Sticks is the deadzoned stick command for one frame.
type Sticks struct {
	Strafe   float64 `json:"strafe"`
	Vertical float64 `json:"vertical"`
	Forward  float64 `json:"forward"`
	Yaw      float64 `json:"yaw"`
}

// IsZero reports whether no axis is deflected.
func (s Sticks) IsZero() bool {
	return s == Sticks{}
}

// Deadzone returns v, or zero when |v| does not exceed dz.
func Deadzone(v, dz float64) float64 {
	if math.Abs(v) > dz {
		return v
	}
	return 0
}

// ReadSticks maps the two controllers onto flight axes: the right stick
// strafes and climbs, the left stick yaws and moves forward.
func ReadSticks(left, right *xr.Gamepad, dz float64) Sticks {
	var s Sticks
	if right != nil {
		s.Strafe = Deadzone(right.Axis(xr.AxisStickX), dz)
		s.Vertical = -Deadzone(right.Axis(xr.AxisStickY), dz)
	}
	if left != nil {
		s.Yaw = -Deadzone(left.Axis(xr.AxisStickX), dz)
		s.Forward = Deadzone(left.Axis(xr.AxisStickY), dz)
	}
	return s
}

// ClimbInput converts a height error into a synthesized vertical command
// with magnitude in [0.3, 1.0].
func ClimbInput(err float64) float64 {
	mag := math.Min(math.Max(math.Abs(err)*2, 0.3), 1.0)
	if err < 0 {
		return -mag
	}
	return mag
}
