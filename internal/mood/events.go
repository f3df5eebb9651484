package mood

import "fmt"

// EventType enumerates everything that can move the assistant's mood.
// The set is closed: delta lookup switches over it exhaustively and a
// value outside the enum is a programming error.
type EventType int

const (
	EventTaskCompleted EventType = iota
	EventError
	EventUserFrustration
	EventCompliment
	EventInsult
	EventBusyPeriod
	EventIdlePeriod
	EventHelpProvided
	EventRepetitiveTask
	EventGreeting
)

func (e EventType) String() string {
	switch e {
	case EventTaskCompleted:
		return "task_completed"
	case EventError:
		return "error"
	case EventUserFrustration:
		return "user_frustration"
	case EventCompliment:
		return "compliment"
	case EventInsult:
		return "insult"
	case EventBusyPeriod:
		return "busy_period"
	case EventIdlePeriod:
		return "idle_period"
	case EventHelpProvided:
		return "help_provided"
	case EventRepetitiveTask:
		return "repetitive_task"
	case EventGreeting:
		return "greeting"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

// Valid reports whether e is a member of the enum.
func (e EventType) Valid() bool {
	return e >= EventTaskCompleted && e <= EventGreeting
}

// ParseEvent maps an event name like "task_completed" back to its
// EventType. Reports false for unknown names.
func ParseEvent(name string) (EventType, bool) {
	for e := EventTaskCompleted; e <= EventGreeting; e++ {
		if e.String() == name {
			return e, true
		}
	}
	return 0, false
}

// delta holds per-component adjustments for one event at intensity 1.0.
type delta struct {
	happiness  float64
	patience   float64
	energy     float64
	engagement float64
}

// deltas returns the component adjustments for an event. Every member of
// the enum has an entry here.
func (e EventType) deltas() delta {
	switch e {
	case EventTaskCompleted:
		return delta{happiness: 0.3, energy: 0.1, engagement: 0.2}
	case EventError:
		return delta{happiness: -0.2, patience: -0.1}
	case EventUserFrustration:
		return delta{happiness: -0.1, patience: -0.3}
	case EventCompliment:
		return delta{happiness: 0.4, engagement: 0.2}
	case EventInsult:
		return delta{happiness: -0.3, patience: -0.2}
	case EventBusyPeriod:
		return delta{patience: -0.1, energy: -0.2}
	case EventIdlePeriod:
		return delta{patience: 0.1, energy: -0.1}
	case EventHelpProvided:
		return delta{happiness: 0.2, engagement: 0.1}
	case EventRepetitiveTask:
		return delta{patience: -0.2, engagement: -0.1}
	case EventGreeting:
		return delta{happiness: 0.2, engagement: 0.3}
	default:
		return delta{}
	}
}
