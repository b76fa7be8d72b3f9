package sim

import "log/slog"

// Notifier receives the cues the presentation layer reacts to: haptics,
// sounds and menu state.
type Notifier interface {
	OnCollisionStart(strength float64)
	OnFormationChanged(name string)
	OnSequenceStateChanged(state string)
}

// Notifiers fans each notification out to every sink in order.
type Notifiers []Notifier

func (ns Notifiers) OnCollisionStart(strength float64) {
	for _, n := range ns {
		n.OnCollisionStart(strength)
	}
}

func (ns Notifiers) OnFormationChanged(name string) {
	for _, n := range ns {
		n.OnFormationChanged(name)
	}
}

func (ns Notifiers) OnSequenceStateChanged(state string) {
	for _, n := range ns {
		n.OnSequenceStateChanged(state)
	}
}

// LogNotifier writes every notification to a structured logger.
type LogNotifier struct {
	Log *slog.Logger
}

func (l LogNotifier) logger() *slog.Logger {
	if l.Log == nil {
		return slog.Default()
	}
	return l.Log
}

func (l LogNotifier) OnCollisionStart(strength float64) {
	l.logger().Info("collision", "strength", strength)
}

func (l LogNotifier) OnFormationChanged(name string) {
	l.logger().Info("formation changed", "formation", name)
}

func (l LogNotifier) OnSequenceStateChanged(state string) {
	l.logger().Info("sequence state", "state", state)
}
