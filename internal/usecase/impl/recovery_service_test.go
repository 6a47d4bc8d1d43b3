package impl

import (
	"context"
	"testing"
	"time"

	"briefly/internal/domain/entity"
	domainerrors "briefly/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecoveryFixture() (*recoveryService, *fakeRecoveryRepo) {
	repo := newFakeRecoveryRepo()
	svc := &recoveryService{
		recoveryRepo: repo,
		now:          newFixedClock(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)).Now,
	}

	return svc, repo
}

func TestRecoveryService_FlowFor(t *testing.T) {
	t.Parallel()

	svc, _ := newRecoveryFixture()

	cases := map[entity.ErrorKind]entity.RecoveryFlowType{
		entity.ErrKindTokenNotFound:       entity.RecoveryFlowTokenExpired,
		entity.ErrKindRefreshTokenExpired: entity.RecoveryFlowTokenExpired,
		entity.ErrKindTokenRefreshFailed:  entity.RecoveryFlowReconnect,
		entity.ErrKindStorageError:        entity.RecoveryFlowReconnect,
		entity.ErrKindPermissionDenied:    entity.RecoveryFlowPermissionFix,
		entity.ErrKindNetworkError:        entity.RecoveryFlowNetworkRetry,
		entity.ErrKindServiceUnavailable:  entity.RecoveryFlowNetworkRetry,
	}
	for kind, flowType := range cases {
		flow := svc.FlowFor(kind)
		require.NotNil(t, flow, "kind %s", kind)
		assert.Equal(t, flowType, flow.Type)
		assert.NotEmpty(t, flow.Steps)
	}

	// Misconfiguration is support-only: no self-serve flow.
	assert.Nil(t, svc.FlowFor(entity.ErrKindInvalidCredentials))
	assert.Nil(t, svc.FlowFor(entity.ErrKindDeveloperKeyInvalid))
}

func TestRecoveryService_StartRecovery(t *testing.T) {
	t.Parallel()

	svc, _ := newRecoveryFixture()
	ctx := context.Background()
	userID := uuid.New()

	progress, err := svc.StartRecovery(ctx, userID, entity.ErrKindRefreshTokenExpired)
	require.NoError(t, err)
	assert.Equal(t, entity.RecoveryFlowTokenExpired, progress.FlowType)
	assert.Equal(t, "reconnect", progress.CurrentStepID)
	assert.Empty(t, progress.CompletedSteps)

	// Starting a different flow discards the previous progress.
	progress, err = svc.StartRecovery(ctx, userID, entity.ErrKindNetworkError)
	require.NoError(t, err)
	assert.Equal(t, entity.RecoveryFlowNetworkRetry, progress.FlowType)

	stored, _, err := svc.GetProgress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecoveryFlowNetworkRetry, stored.FlowType)

	_, err = svc.StartRecovery(ctx, userID, entity.ErrKindInvalidCredentials)
	assert.ErrorIs(t, err, ErrNoRecoveryFlow)
}

func TestRecoveryService_CompleteStepAdvancesAndFinishes(t *testing.T) {
	t.Parallel()

	svc, _ := newRecoveryFixture()
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.StartRecovery(ctx, userID, entity.ErrKindRefreshTokenExpired)
	require.NoError(t, err)

	progress, done, err := svc.CompleteStep(ctx, userID, "reconnect")
	require.NoError(t, err)
	assert.False(t, done, "one required step remains")
	assert.Equal(t, "verify", progress.CurrentStepID)
	assert.Contains(t, progress.CompletedSteps, "reconnect")

	progress, done, err = svc.CompleteStep(ctx, userID, "verify")
	require.NoError(t, err)
	assert.True(t, done, "all required steps complete")
	assert.ElementsMatch(t, []string{"reconnect", "verify"}, progress.CompletedSteps)

	// Completion cleared the record.
	_, _, err = svc.GetProgress(ctx, userID)
	assert.ErrorIs(t, err, domainerrors.ErrNoActiveRecovery)
}

func TestRecoveryService_OptionalStepsDoNotBlockCompletion(t *testing.T) {
	t.Parallel()

	svc, _ := newRecoveryFixture()
	ctx := context.Background()
	userID := uuid.New()

	// network_retry has an optional "wait" step before the required "retry".
	_, err := svc.StartRecovery(ctx, userID, entity.ErrKindNetworkError)
	require.NoError(t, err)

	_, done, err := svc.CompleteStep(ctx, userID, "retry")
	require.NoError(t, err)
	assert.True(t, done, "only required steps gate completion")
}

func TestRecoveryService_CompleteStepErrors(t *testing.T) {
	t.Parallel()

	svc, _ := newRecoveryFixture()
	ctx := context.Background()
	userID := uuid.New()

	_, _, err := svc.CompleteStep(ctx, userID, "reconnect")
	assert.ErrorIs(t, err, domainerrors.ErrNoActiveRecovery)

	_, startErr := svc.StartRecovery(ctx, userID, entity.ErrKindRefreshTokenExpired)
	require.NoError(t, startErr)

	_, _, err = svc.CompleteStep(ctx, userID, "no-such-step")
	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrUnknownRecoveryStep.ErrorCode(), appErr.ErrorCode())

	// Completing the same step twice is harmless.
	_, _, err = svc.CompleteStep(ctx, userID, "reconnect")
	require.NoError(t, err)
	progress, done, err := svc.CompleteStep(ctx, userID, "reconnect")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, []string{"reconnect"}, progress.CompletedSteps)
}

func TestRecoveryService_ClearRecoveryIdempotent(t *testing.T) {
	t.Parallel()

	svc, _ := newRecoveryFixture()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, svc.ClearRecovery(ctx, userID))

	_, err := svc.StartRecovery(ctx, userID, entity.ErrKindNetworkError)
	require.NoError(t, err)
	require.NoError(t, svc.ClearRecovery(ctx, userID))
	require.NoError(t, svc.ClearRecovery(ctx, userID))

	_, _, err = svc.GetProgress(ctx, userID)
	assert.ErrorIs(t, err, domainerrors.ErrNoActiveRecovery)
}

func TestRecoveryService_QuickRecoveryAction(t *testing.T) {
	t.Parallel()

	svc, _ := newRecoveryFixture()

	assert.Equal(t, entity.RecoveryActionReconnect, svc.QuickRecoveryAction(entity.ErrKindRefreshTokenExpired))
	assert.Equal(t, entity.RecoveryActionReauthorize, svc.QuickRecoveryAction(entity.ErrKindPermissionDenied))
	assert.Equal(t, entity.RecoveryActionContactSupport, svc.QuickRecoveryAction(entity.ErrKindInvalidCredentials))
	assert.Equal(t, entity.RecoveryActionWaitAndRetry, svc.QuickRecoveryAction(entity.ErrKindQuotaExceeded))
}

func TestRecoveryService_ConnectionStatusMessage(t *testing.T) {
	t.Parallel()

	svc, _ := newRecoveryFixture()

	assert.Equal(t, "Google Drive is not connected.",
		svc.ConnectionStatusMessage(entity.ProviderGoogle, false, ""))
	assert.Equal(t, "OneDrive is connected.",
		svc.ConnectionStatusMessage(entity.ProviderMicrosoft, true, ""))
	msg := svc.ConnectionStatusMessage(entity.ProviderGoogle, true, entity.ErrKindRefreshTokenExpired)
	assert.Contains(t, msg, "needs attention")
	assert.Contains(t, msg, "reconnect")
}
