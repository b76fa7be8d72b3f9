package sim

// Controls is the command surface writers with their own input (the TUI)
// use to drive the simulator.
type Controls interface {
	Startup() error
	Shutdown() error
	NextFormation() (string, error)
	ToggleCollision() bool
}

// ControlReceiver is implemented by writers that accept Controls.
type ControlReceiver interface {
	SetControls(Controls)
}

// AdminStatusWriter is implemented by writers that show whether the admin
// server is listening.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}
