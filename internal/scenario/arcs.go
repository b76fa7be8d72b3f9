package scenario

var (
	standingCamera = &PoseSpec{Position: [3]float64{0, 1.6, 0}}
	handAtChest    = &PoseSpec{Position: [3]float64{0, 1.2, -0.5}}
	landed         = "pre_startup_falling/landed"
)

// BuiltIn returns the predefined scenarios keyed by name.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"demo-flight": {
			Name:        "Demo Flight",
			Description: "Drop the drone, start it up, cycle two formations and land.",
			Phases: []Phase{
				{
					Name:        "place",
					Description: "The drone appears at the right hand and falls to the floor.",
					Input:       Input{Right: handAtChest, Camera: standingCamera},
					Triggers:    []Trigger{{Event: EventTimeElapsed, Value: 2, Next: "startup"}},
				},
				{
					Name:        "startup",
					Description: "Spin up, hold and lift to hand height.",
					Commands:    []string{"startup"},
					Triggers:    []Trigger{{Event: "flying", Value: 1, Next: "show"}},
				},
				{
					Name:        "show",
					Description: "Followers move to the next formation.",
					Commands:    []string{"formation next"},
					Duration:    5,
				},
				{
					Name:        "encore",
					Description: "And once more.",
					Commands:    []string{"formation next"},
					Duration:    5,
				},
				{
					Name:        "land",
					Description: "Descend, decelerate and settle.",
					Commands:    []string{"shutdown"},
					Triggers:    []Trigger{{Event: landed, Value: 1, Next: "done"}},
				},
				{Name: "done"},
			},
		},
		"stick-flight": {
			Name:        "Stick Flight",
			Description: "Fly with the thumbsticks and let auto-return bring the drone home.",
			Phases: []Phase{
				{
					Name:     "place",
					Input:    Input{Right: handAtChest, Camera: standingCamera},
					Triggers: []Trigger{{Event: EventTimeElapsed, Value: 2, Next: "startup"}},
				},
				{
					Name:        "startup",
					Description: "Press the left upper button.",
					Input:       Input{Buttons: []string{"left.upper"}},
					Triggers:    []Trigger{{Event: "flying", Value: 1, Next: "forward"}},
				},
				{
					Name:     "forward",
					Input:    Input{LeftStick: [2]float64{0, 0.8}},
					Duration: 3,
				},
				{
					Name:     "turn",
					Input:    Input{LeftStick: [2]float64{0.6, 0}, RightStick: [2]float64{0, -0.5}},
					Duration: 2,
				},
				{
					Name:        "return",
					Description: "Right upper starts the auto-return.",
					Input:       Input{Buttons: []string{"right.upper"}},
					Triggers:    []Trigger{{Event: EventTimeElapsed, Value: 8, Next: "land"}},
				},
				{
					Name:     "land",
					Commands: []string{"shutdown"},
					Triggers: []Trigger{{Event: landed, Value: 1, Next: "done"}},
				},
				{Name: "done"},
			},
		},
		"tabletop": {
			Name:        "Tabletop",
			Description: "The drone drops onto a detected table, takes off from it and lands back.",
			Planes: []PlaneSpec{
				{ID: "table", Position: [3]float64{0, 0.7, -0.8}, Width: 1.0, Depth: 0.6},
			},
			Phases: []Phase{
				{
					Name:     "drop",
					Input:    Input{Right: &PoseSpec{Position: [3]float64{0, 1.0, -0.8}}, Camera: standingCamera},
					Triggers: []Trigger{{Event: EventTimeElapsed, Value: 3, Next: "startup"}},
				},
				{
					Name:     "startup",
					Input:    Input{Right: &PoseSpec{Position: [3]float64{0, 1.3, -0.8}}},
					Commands: []string{"startup"},
					Triggers: []Trigger{{Event: "flying", Value: 1, Next: "hover"}},
				},
				{
					Name:     "hover",
					Duration: 3,
				},
				{
					Name:     "land",
					Commands: []string{"shutdown"},
					Triggers: []Trigger{{Event: landed, Value: 1, Next: "done"}},
				},
				{Name: "done"},
			},
		},
	}
}
