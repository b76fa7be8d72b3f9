// Package flight implements manual stick flight: derived limits, stick
// mapping, the velocity integrator, hover oscillation and engine tone.
package flight

import (
	"math"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
)

// Speed level bounds.
const (
	MinSpeedLevel = 1
	MaxSpeedLevel = 30
)

// Tuning holds the user-adjustable flight settings.
type Tuning struct {
	SpeedLevel          int     `yaml:"speed_level" json:"speed_level"`
	BaseAcceleration    float64 `yaml:"base_acceleration" json:"base_acceleration"`
	BaseMaxSpeed        float64 `yaml:"base_max_speed" json:"base_max_speed"`
	BaseFriction        float64 `yaml:"friction" json:"friction"`
	AngularAcceleration float64 `yaml:"angular_acceleration" json:"angular_acceleration"`
	MaxAngularSpeed     float64 `yaml:"max_angular_speed" json:"max_angular_speed"`
	TiltAmount          float64 `yaml:"tilt_amount" json:"tilt_amount"`
	TiltSmoothing       float64 `yaml:"tilt_smoothing" json:"tilt_smoothing"`
	Deadzone            float64 `yaml:"deadzone" json:"deadzone"`
}

// DefaultTuning returns the stock settings.
func DefaultTuning() Tuning {
	return Tuning{
		SpeedLevel:          10,
		BaseAcceleration:    0.001,
		BaseMaxSpeed:        0.015,
		BaseFriction:        0.965,
		AngularAcceleration: 0.0015,
		MaxAngularSpeed:     0.06,
		TiltAmount:          0.6,
		TiltSmoothing:       0.05,
		Deadzone:            0.15,
	}
}

// Limits are the per-frame quantities the integrator works with. Speeds
// are in meters per frame.
type Limits struct {
	Acceleration        float64 `json:"acceleration"`
	MaxSpeed            float64 `json:"max_speed"`
	Friction            float64 `json:"friction"`
	AngularAcceleration float64 `json:"angular_acceleration"`
	MaxAngularSpeed     float64 `json:"max_angular_speed"`
	AngularFriction     float64 `json:"angular_friction"`
}

// SpeedMultiplier maps a speed level in 1..30 linearly onto [0.05, 4.0].
func SpeedMultiplier(level int) float64 {
	if level < MinSpeedLevel {
		level = MinSpeedLevel
	}
	if level > MaxSpeedLevel {
		level = MaxSpeedLevel
	}
	return 0.05 + float64(level-1)*(4.0-0.05)/29
}

// SizeMultiplier scales handling with drone size, clamped to [0.5, 2.0].
func SizeMultiplier(scale float64) float64 {
	return geom.Clamp(math.Sqrt(scale/drone.ReferenceScale), 0.5, 2.0)
}

// Limits derives the integrator limits for a drone of the given scale.
func (t Tuning) Limits(scale float64) Limits {
	speed := SpeedMultiplier(t.SpeedLevel)
	size := SizeMultiplier(scale)
	friction := geom.Clamp(t.BaseFriction+(size-1)*0.04, 0.90, 0.98)
	return Limits{
		Acceleration:        t.BaseAcceleration * speed * size,
		MaxSpeed:            t.BaseMaxSpeed * speed * size,
		Friction:            friction,
		AngularAcceleration: t.AngularAcceleration,
		MaxAngularSpeed:     t.MaxAngularSpeed,
		AngularFriction:     friction,
	}
}
