package flight

import (
	"math"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
)

// Tone is the engine sound setting handed to the audio layer.
type Tone struct {
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// NormalPitch is the idle pitch: small drones whine, large ones hum.
func NormalPitch(scale float64) float64 {
	return geom.Clamp(math.Sqrt(drone.ReferenceScale/scale), 0.2, 2.7)
}

// StartPitch is the pitch at zero propeller speed.
func StartPitch(scale float64) float64 {
	return math.Max(NormalPitch(scale)/2, 0.2)
}

// FlightTone is the tone while flying at speed m/s.
func FlightTone(scale, speed float64) Tone {
	return Tone{
		Pitch:  geom.Clamp(NormalPitch(scale)+math.Min(speed*0.6, 0.3), 0.2, 3.0),
		Volume: geom.Clamp(math.Sqrt(scale/drone.ReferenceScale)*0.7, 0.1, 1.0),
	}
}

// SpinTone is the tone at propeller speed p in [0, 1] while spinning up
// or down.
func SpinTone(scale, p float64) Tone {
	start, normal := StartPitch(scale), NormalPitch(scale)
	return Tone{
		Pitch:  start + (normal-start)*p,
		Volume: 0.7 * p,
	}
}
