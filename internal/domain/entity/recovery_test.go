package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func threeStepFlow() *RecoveryFlow {
	return &RecoveryFlow{
		Type: RecoveryFlowReconnect,
		Steps: []RecoveryStep{
			{ID: "disconnect", ActionType: StepActionDisconnect, IsRequired: true},
			{ID: "reconnect", ActionType: StepActionReconnect, IsRequired: true},
			{ID: "verify", ActionType: StepActionVerify, IsRequired: true},
		},
	}
}

func TestRecoveryProgress_MarkCompletedAdvancesInOrder(t *testing.T) {
	t.Parallel()

	flow := threeStepFlow()
	progress := &RecoveryProgress{CurrentStepID: flow.FirstStepID()}

	progress.MarkCompleted(flow, "disconnect")
	assert.Equal(t, "reconnect", progress.CurrentStepID)

	// Completing out of order skips over already-done steps.
	progress.MarkCompleted(flow, "verify")
	assert.Equal(t, "reconnect", progress.CurrentStepID)

	progress.MarkCompleted(flow, "reconnect")
	assert.Empty(t, progress.CurrentStepID, "no step left to point at")
}

func TestRecoveryProgress_MarkCompletedIsSetLike(t *testing.T) {
	t.Parallel()

	flow := threeStepFlow()
	progress := &RecoveryProgress{}

	progress.MarkCompleted(flow, "disconnect")
	progress.MarkCompleted(flow, "disconnect")

	assert.Equal(t, []string{"disconnect"}, progress.CompletedSteps)
}

func TestRecoveryProgress_IsCompleteIgnoresOptionalSteps(t *testing.T) {
	t.Parallel()

	flow := &RecoveryFlow{
		Type: RecoveryFlowNetworkRetry,
		Steps: []RecoveryStep{
			{ID: "wait", ActionType: StepActionWait, IsRequired: false},
			{ID: "retry", ActionType: StepActionRetry, IsRequired: true},
		},
	}

	progress := &RecoveryProgress{}
	assert.False(t, progress.IsComplete(flow))

	progress.MarkCompleted(flow, "retry")
	assert.True(t, progress.IsComplete(flow), "optional steps do not gate completion")
}

func TestRecoveryFlow_FirstStepID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "disconnect", threeStepFlow().FirstStepID())
	assert.Empty(t, (&RecoveryFlow{}).FirstStepID())
}
