package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentStatusTransitions(t *testing.T) {
	testCases := []struct {
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{PaymentStatusCreated, PaymentStatusProcessing, true},
		{PaymentStatusCreated, PaymentStatusFailed, true},
		{PaymentStatusCreated, PaymentStatusSucceeded, false},
		{PaymentStatusProcessing, PaymentStatusSucceeded, true},
		{PaymentStatusProcessing, PaymentStatusFailed, true},
		{PaymentStatusProcessing, PaymentStatusCreated, false},
		{PaymentStatusSucceeded, PaymentStatusProcessing, false},
		{PaymentStatusSucceeded, PaymentStatusFailed, false},
		{PaymentStatusFailed, PaymentStatusCreated, false},
		{PaymentStatusFailed, PaymentStatusProcessing, false},
	}

	for _, tc := range testCases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v; expected %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestProcessingCannotGoBack(t *testing.T) {
	attempt := &PaymentAttempt{Status: PaymentStatusProcessing}
	require.Error(t, attempt.TransitionTo(PaymentStatusCreated))
	assert.Equal(t, PaymentStatusProcessing, attempt.Status)
}

func TestTransitionToSameStatusIsNoop(t *testing.T) {
	attempt := &PaymentAttempt{Status: PaymentStatusProcessing}
	require.NoError(t, attempt.TransitionTo(PaymentStatusProcessing))
	assert.Equal(t, PaymentStatusProcessing, attempt.Status)
}

func TestFailRecordsReason(t *testing.T) {
	attempt := &PaymentAttempt{Status: PaymentStatusProcessing}
	require.NoError(t, attempt.Fail(FailureReasonVerificationFailed))

	assert.Equal(t, PaymentStatusFailed, attempt.Status)
	require.NotNil(t, attempt.FailureReason)
	assert.Equal(t, FailureReasonVerificationFailed, *attempt.FailureReason)

	// Terminal: a second failure with a different reason must not apply.
	assert.Error(t, attempt.Fail(FailureReasonDismissed))
	assert.Equal(t, FailureReasonVerificationFailed, *attempt.FailureReason)
}

func TestEditableFrozenOnceOrderRegistered(t *testing.T) {
	attempt := &PaymentAttempt{Status: PaymentStatusCreated}
	assert.True(t, attempt.Editable())

	// The gateway priced the order from the stored amount; an edit after
	// that would let the attempt diverge from what checkout charges.
	orderID := "order_Nxy123"
	attempt.ProviderOrderID = &orderID
	assert.False(t, attempt.Editable())
}

func TestFinalizeAppliesOnlyOnce(t *testing.T) {
	attempt := &PaymentAttempt{Status: PaymentStatusProcessing}

	ok, err := attempt.Finalize()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, PaymentStatusSucceeded, attempt.Status)

	// Whichever of verify and webhook lands second must become a no-op.
	ok, err = attempt.Finalize()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFinalizeFromCreatedAndFailed(t *testing.T) {
	attempt := &PaymentAttempt{Status: PaymentStatusCreated}
	ok, err := attempt.Finalize()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, PaymentStatusSucceeded, attempt.Status)

	failed := &PaymentAttempt{Status: PaymentStatusFailed}
	_, err = failed.Finalize()
	assert.Error(t, err)
	assert.Equal(t, PaymentStatusFailed, failed.Status)
}

func TestEditableFrozenAfterProcessing(t *testing.T) {
	attempt := &PaymentAttempt{Status: PaymentStatusCreated}
	assert.True(t, attempt.Editable())

	require.NoError(t, attempt.TransitionTo(PaymentStatusProcessing))
	assert.False(t, attempt.Editable())

	require.NoError(t, attempt.TransitionTo(PaymentStatusSucceeded))
	assert.False(t, attempt.Editable())
	assert.True(t, attempt.Status.IsTerminal())
}
