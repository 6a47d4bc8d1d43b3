package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// RecoveryFlowType names a guided multi-step remediation procedure.
type RecoveryFlowType string

const (
	RecoveryFlowTokenExpired  RecoveryFlowType = "token_expired"
	RecoveryFlowReconnect     RecoveryFlowType = "storage_reconnect"
	RecoveryFlowPermissionFix RecoveryFlowType = "permission_fix"
	RecoveryFlowNetworkRetry  RecoveryFlowType = "network_retry"
)

// RecoveryStepAction tells the UI what kind of control to render for a step.
type RecoveryStepAction string

const (
	StepActionDisconnect  RecoveryStepAction = "disconnect"
	StepActionReconnect   RecoveryStepAction = "reconnect"
	StepActionReauthorize RecoveryStepAction = "reauthorize"
	StepActionRetry       RecoveryStepAction = "retry"
	StepActionVerify      RecoveryStepAction = "verify"
	StepActionWait        RecoveryStepAction = "wait"
)

// RecoveryStep is one step of a guided recovery procedure.
type RecoveryStep struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	ActionType  RecoveryStepAction `json:"actionType"`
	IsRequired  bool               `json:"isRequired"`
}

// RecoveryFlow is a named, ordered remediation procedure. Flows are static
// declarations; per-user execution state lives in RecoveryProgress.
type RecoveryFlow struct {
	Type        RecoveryFlowType `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Steps       []RecoveryStep   `json:"steps"`
}

// FirstStepID returns the id of the first declared step, or "" for an empty flow.
func (f *RecoveryFlow) FirstStepID() string {
	if len(f.Steps) == 0 {
		return ""
	}

	return f.Steps[0].ID
}

// RecoveryProgress is a per-user cursor through one active recovery flow.
// Only one progress record may exist per user; starting a new flow overwrites
// the previous one.
type RecoveryProgress struct {
	UserID         uuid.UUID        `json:"-"`
	FlowType       RecoveryFlowType `json:"flowType"`
	CurrentStepID  string           `json:"currentStepId"`
	CompletedSteps []string         `json:"completedSteps"` // set semantics; insertion order irrelevant
	StartedAt      time.Time        `json:"startedAt"`
}

// MarkCompleted adds a step id to the completed set, then advances
// CurrentStepID to the next step of the flow (in declaration order) that is
// not yet completed.
func (p *RecoveryProgress) MarkCompleted(flow *RecoveryFlow, stepID string) {
	if !slices.Contains(p.CompletedSteps, stepID) {
		p.CompletedSteps = append(p.CompletedSteps, stepID)
	}

	p.CurrentStepID = ""
	for _, step := range flow.Steps {
		if !slices.Contains(p.CompletedSteps, step.ID) {
			p.CurrentStepID = step.ID

			break
		}
	}
}

// IsComplete reports whether every required step of the flow is completed.
func (p *RecoveryProgress) IsComplete(flow *RecoveryFlow) bool {
	for _, step := range flow.Steps {
		if step.IsRequired && !slices.Contains(p.CompletedSteps, step.ID) {
			return false
		}
	}

	return true
}
