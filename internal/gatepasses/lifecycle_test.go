package gatepasses

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gatepass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gatepass-backend/pkg/errors"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		name       string
		transition Transition
		current    enums.GatePassStatus
		returnable bool
		want       enums.GatePassStatus
		wantErr    bool
	}{
		{name: "approve pending", transition: TransitionApprove, current: enums.GatePassStatusPending, want: enums.GatePassStatusApproved},
		{name: "reject pending", transition: TransitionReject, current: enums.GatePassStatusPending, want: enums.GatePassStatusRejected},
		{name: "approve approved", transition: TransitionApprove, current: enums.GatePassStatusApproved, wantErr: true},
		{name: "reject approved", transition: TransitionReject, current: enums.GatePassStatusApproved, wantErr: true},
		{name: "exit returnable", transition: TransitionExitScan, current: enums.GatePassStatusApproved, returnable: true, want: enums.GatePassStatusPendingReturn},
		{name: "exit non returnable", transition: TransitionExitScan, current: enums.GatePassStatusApproved, want: enums.GatePassStatusCompleted},
		{name: "exit pending", transition: TransitionExitScan, current: enums.GatePassStatusPending, wantErr: true},
		{name: "return pending_return", transition: TransitionReturnScan, current: enums.GatePassStatusPendingReturn, returnable: true, want: enums.GatePassStatusReturned},
		{name: "return approved", transition: TransitionReturnScan, current: enums.GatePassStatusApproved, returnable: true, wantErr: true},
		{name: "return returned", transition: TransitionReturnScan, current: enums.GatePassStatusReturned, returnable: true, wantErr: true},
		{name: "create is not a transition", transition: TransitionCreate, current: enums.GatePassStatusPending, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextStatus(tc.transition, tc.current, tc.returnable)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.As(err).Code())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTerminalStatesHaveNoOutgoingTransition(t *testing.T) {
	terminal := []enums.GatePassStatus{
		enums.GatePassStatusRejected,
		enums.GatePassStatusCompleted,
		enums.GatePassStatusReturned,
	}
	transitions := []Transition{TransitionApprove, TransitionReject, TransitionExitScan, TransitionReturnScan}
	for _, status := range terminal {
		require.True(t, status.IsTerminal())
		for _, tr := range transitions {
			for _, returnable := range []bool{true, false} {
				_, err := NextStatus(tr, status, returnable)
				assert.Error(t, err, "%s from %s", tr, status)
			}
		}
	}
}

func TestRequiredStatus(t *testing.T) {
	from, ok := RequiredStatus(TransitionExitScan)
	require.True(t, ok)
	assert.Equal(t, enums.GatePassStatusApproved, from)

	_, ok = RequiredStatus(TransitionCreate)
	assert.False(t, ok)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "GP-2024-0004", FormatNumber("GP", 2024, 4))
	assert.Equal(t, "GP-2025-0123", FormatNumber("", 2025, 123))
	assert.Equal(t, "GP-2025-12345", FormatNumber("GP", 2025, 12345))
}
