package enums

import "fmt"

// GatePassStatus is the lifecycle state stored in gate_passes.status.
type GatePassStatus string

const (
	GatePassStatusPending       GatePassStatus = "pending"
	GatePassStatusApproved      GatePassStatus = "approved"
	GatePassStatusRejected      GatePassStatus = "rejected"
	GatePassStatusPendingReturn GatePassStatus = "pending_return"
	GatePassStatusCompleted     GatePassStatus = "completed"
	GatePassStatusReturned      GatePassStatus = "returned"
)

var validGatePassStatuses = []GatePassStatus{
	GatePassStatusPending,
	GatePassStatusApproved,
	GatePassStatusRejected,
	GatePassStatusPendingReturn,
	GatePassStatusCompleted,
	GatePassStatusReturned,
}

// IsValid reports whether the value is a known lifecycle state.
func (s GatePassStatus) IsValid() bool {
	for _, candidate := range validGatePassStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition leaves this state.
func (s GatePassStatus) IsTerminal() bool {
	switch s {
	case GatePassStatusRejected, GatePassStatusCompleted, GatePassStatusReturned:
		return true
	default:
		return false
	}
}

func (s GatePassStatus) String() string {
	return string(s)
}

// ParseGatePassStatus converts raw input into GatePassStatus.
func ParseGatePassStatus(value string) (GatePassStatus, error) {
	for _, candidate := range validGatePassStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gate pass status %q", value)
}
