// Package xr declares what the simulation needs from the input and
// scene-understanding layers. Implementations live outside the kernel: a
// headset runtime, a scripted scenario player or a test fake.
package xr

import "github.com/BB999/drone-show/internal/geom"

// Hand identifies a controller or tracked hand.
type Hand int

const (
	Left Hand = iota
	Right
)

func (h Hand) String() string {
	if h == Left {
		return "left"
	}
	return "right"
}

// Other returns the opposite hand.
func (h Hand) Other() Hand {
	if h == Left {
		return Right
	}
	return Left
}

// Hands lists both hands in a fixed order.
var Hands = [2]Hand{Left, Right}

// Gamepad button indices as reported by the controllers.
const (
	ButtonTrigger = 0
	ButtonGrip    = 1
	ButtonLower   = 4 // A on the right controller, X on the left
	ButtonUpper   = 5 // B on the right controller, Y on the left
)

// Stick axis indices.
const (
	AxisStickX = 2
	AxisStickY = 3
)

// Joint names used for pinch detection.
const (
	JointWrist    = "wrist"
	JointIndexTip = "index-finger-tip"
	JointThumbTip = "thumb-tip"
	JointHandRoot = "hand"
)

// Button is a single gamepad button state.
type Button struct {
	Pressed bool    `json:"pressed" yaml:"pressed"`
	Value   float64 `json:"value" yaml:"value"`
}

// Gamepad is the polled state of one controller.
type Gamepad struct {
	Axes    [4]float64 `json:"axes" yaml:"axes"`
	Buttons []Button   `json:"buttons" yaml:"buttons"`
}

// Pressed reports whether button i exists and is held.
func (g *Gamepad) Pressed(i int) bool {
	if g == nil || i < 0 || i >= len(g.Buttons) {
		return false
	}
	return g.Buttons[i].Pressed
}

// Axis returns axis i or zero.
func (g *Gamepad) Axis(i int) float64 {
	if g == nil || i < 0 || i >= len(g.Axes) {
		return 0
	}
	return g.Axes[i]
}

// InputSource is polled once per frame. A nil return means the device or
// joint is not tracked this frame.
type InputSource interface {
	ControllerPose(h Hand) *geom.Pose
	HandJointPose(h Hand, joint string) *geom.Pose
	Gamepad(h Hand) *Gamepad
	// CameraPose is the viewer's head pose.
	CameraPose() *geom.Pose
}

// Orientation tags a detected plane.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Plane is a surface reported by the scene-understanding layer. The
// polygon lies in the plane's local XZ coordinates.
type Plane struct {
	ID          string        `json:"id" yaml:"id"`
	Pose        geom.Pose     `json:"pose" yaml:"pose"`
	Polygon     []geom.Point2 `json:"polygon" yaml:"polygon"`
	Orientation Orientation   `json:"orientation" yaml:"orientation"`
}

// PlaneSource returns every plane currently tracked. Planes missing from a
// call are treated as gone.
type PlaneSource interface {
	DetectedPlanes() []Plane
}

// Idle is an InputSource with nothing tracked.
type Idle struct{}

func (Idle) ControllerPose(Hand) *geom.Pose {
	return nil
}

func (Idle) HandJointPose(Hand, string) *geom.Pose {
	return nil
}

func (Idle) Gamepad(Hand) *Gamepad {
	return nil
}

func (Idle) CameraPose() *geom.Pose {
	return nil
}

func (Idle) DetectedPlanes() []Plane {
	return nil
}
