package gatepasses

import (
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gatepass-backend/pkg/errors"
)

// Transition names a lifecycle step after creation.
type Transition string

const (
	TransitionCreate     Transition = "create"
	TransitionApprove    Transition = "approve"
	TransitionReject     Transition = "reject"
	TransitionExitScan   Transition = "exit_scan"
	TransitionReturnScan Transition = "return_scan"
)

type rule struct {
	from enums.GatePassStatus
	to   func(returnable bool) enums.GatePassStatus
}

func fixed(status enums.GatePassStatus) func(bool) enums.GatePassStatus {
	return func(bool) enums.GatePassStatus { return status }
}

var rules = map[Transition]rule{
	TransitionApprove: {from: enums.GatePassStatusPending, to: fixed(enums.GatePassStatusApproved)},
	TransitionReject:  {from: enums.GatePassStatusPending, to: fixed(enums.GatePassStatusRejected)},
	TransitionExitScan: {from: enums.GatePassStatusApproved, to: func(returnable bool) enums.GatePassStatus {
		if returnable {
			return enums.GatePassStatusPendingReturn
		}
		return enums.GatePassStatusCompleted
	}},
	TransitionReturnScan: {from: enums.GatePassStatusPendingReturn, to: fixed(enums.GatePassStatusReturned)},
}

// RequiredStatus is the status a pass must hold for t to apply.
func RequiredStatus(t Transition) (enums.GatePassStatus, bool) {
	r, ok := rules[t]
	return r.from, ok
}

// NextStatus validates t against the current status and returns the target status.
func NextStatus(t Transition, current enums.GatePassStatus, returnable bool) (enums.GatePassStatus, error) {
	r, ok := rules[t]
	if !ok || r.from != current {
		return "", invalidTransition(t, current)
	}
	return r.to(returnable), nil
}

func invalidTransition(t Transition, current enums.GatePassStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "status transition not allowed").
		WithDetails(map[string]any{
			"transition": string(t),
			"status":     string(current),
		})
}
