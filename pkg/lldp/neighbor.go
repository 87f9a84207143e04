package lldp

import (
	"context"
	"fmt"
)

// Neighbor is a snapshot of the LLDP neighbor seen on a local interface.
type Neighbor struct {
	Interface       string   `json:"interface"`
	ChassisID       string   `json:"chassis_id"`
	PortID          string   `json:"port_id"`
	SystemName      string   `json:"system_name,omitempty"`
	PortDescription string   `json:"port_description,omitempty"`
	MgmtIPs         []string `json:"mgmt_ips,omitempty"`
	Capabilities    []string `json:"capabilities,omitempty"`

	// Count is how many neighbors the switch reported on the interface.
	Count int `json:"count"`
}

// NeighborLookup returns the neighbor on iface, or nil when none was discovered.
type NeighborLookup interface {
	Neighbor(ctx context.Context, iface string) (*Neighbor, error)
}

type NeighborLookupError struct {
	Interface string
	Err       error
}

func (e *NeighborLookupError) Error() string {
	return fmt.Sprintf("lldp neighbor lookup on %s failed: %v", e.Interface, e.Err)
}

func (e *NeighborLookupError) Unwrap() error {
	return e.Err
}
