package notifier

import (
	"time"

	"github.com/a-light-win/lldp-webhook/pkg/link"
	"github.com/a-light-win/lldp-webhook/pkg/lldp"
)

type EventType string

const (
	EventTypeInterfaceUp EventType = "interface_up"
	EventTypeTest        EventType = "test"
)

const testMessage = "This is a test webhook from the lldp-webhook agent"

type Payload struct {
	EventType      EventType      `json:"event_type"`
	EventID        string         `json:"event_id"`
	SwitchHostname string         `json:"switch_hostname"`
	Interface      string         `json:"interface"`
	EventTime      time.Time      `json:"event_time"`
	NotifiedAt     time.Time      `json:"notified_at"`
	PreviousState  link.LinkState `json:"previous_state"`
	NewState       link.LinkState `json:"new_state"`

	NeighborDiscovered      bool     `json:"neighbor_discovered"`
	NeighborCount           int      `json:"neighbor_count"`
	NeighborChassisID       string   `json:"neighbor_chassis_id"`
	NeighborPortID          string   `json:"neighbor_port_id"`
	NeighborSystemName      string   `json:"neighbor_system_name"`
	NeighborPortDescription string   `json:"neighbor_port_description,omitempty"`
	NeighborMgmtIP          []string `json:"neighbor_mgmt_ip,omitempty"`
	NeighborCapabilities    []string `json:"neighbor_capabilities,omitempty"`
}

type TestPayload struct {
	EventType      EventType `json:"event_type"`
	EventID        string    `json:"event_id"`
	SwitchHostname string    `json:"switch_hostname"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewPayload builds the webhook body for event. A nil neighbor yields a
// payload with neighbor_discovered set to false.
func NewPayload(id, hostname string, event *link.LinkEvent, neighbor *lldp.Neighbor, now time.Time) *Payload {
	p := &Payload{
		EventType:      EventTypeInterfaceUp,
		EventID:        id,
		SwitchHostname: hostname,
		Interface:      event.Interface,
		EventTime:      event.Timestamp,
		NotifiedAt:     now,
		PreviousState:  event.PreviousState,
		NewState:       event.NewState,
	}
	if neighbor == nil {
		return p
	}

	p.NeighborDiscovered = true
	p.NeighborCount = max(neighbor.Count, 1)
	p.NeighborChassisID = neighbor.ChassisID
	p.NeighborPortID = neighbor.PortID
	p.NeighborSystemName = neighbor.SystemName
	p.NeighborPortDescription = neighbor.PortDescription
	p.NeighborMgmtIP = neighbor.MgmtIPs
	p.NeighborCapabilities = neighbor.Capabilities
	return p
}

func NewTestPayload(id, hostname string, now time.Time) *TestPayload {
	return &TestPayload{
		EventType:      EventTypeTest,
		EventID:        id,
		SwitchHostname: hostname,
		Message:        testMessage,
		Timestamp:      now,
	}
}
