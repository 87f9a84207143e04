package link

import (
	"encoding/json"
)

type LinkState int

const (
	LinkStateUnknown LinkState = 0
	LinkStateDown    LinkState = 1
	LinkStateUp      LinkState = 2
)

func ParseLinkState(s string) LinkState {
	switch s {
	case "down":
		return LinkStateDown
	case "up":
		return LinkStateUp
	default:
		return LinkStateUnknown
	}
}

func (l LinkState) String() string {
	switch l {
	case LinkStateDown:
		return "down"
	case LinkStateUp:
		return "up"
	default:
		return "unknown"
	}
}

func (l LinkState) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *LinkState) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	*l = ParseLinkState(s)
	return nil
}
