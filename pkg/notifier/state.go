package notifier

import "encoding/json"

// State is the progress of a single interface up event.
type State int

const (
	StateTriggered State = iota
	StateWaiting
	StateFetching
	StateSent
	StateFailed
	StateIgnored
)

func (s State) String() string {
	switch s {
	case StateTriggered:
		return "TRIGGERED"
	case StateWaiting:
		return "WAITING"
	case StateFetching:
		return "FETCHING"
	case StateSent:
		return "SENT"
	case StateFailed:
		return "FAILED"
	case StateIgnored:
		return "IGNORED"
	default:
		return "UNKNOWN"
	}
}

func (s State) Terminal() bool {
	return s == StateSent || s == StateFailed || s == StateIgnored
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
