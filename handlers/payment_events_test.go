package handlers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejaa171419/paysplit/events"
	"github.com/tejaa171419/paysplit/models"
)

func TestPublishPaymentEventsCarriesExpenseID(t *testing.T) {
	ch, cancel := events.Default.Subscribe()
	defer cancel()

	groupID := uuid.New()
	participants := []uuid.UUID{uuid.New(), uuid.New()}
	joined := joinParticipantIDs(participants)
	attempt := &models.PaymentAttempt{
		ID:             uuid.New(),
		PayerID:        participants[0],
		Kind:           models.PaymentKindExpenseSplit,
		Method:         models.PaymentMethodWallet,
		Amount:         500,
		Status:         models.PaymentStatusSucceeded,
		GroupID:        &groupID,
		ParticipantIDs: &joined,
	}
	expense := &models.Expense{ID: uuid.New(), GroupID: groupID, PaidByID: attempt.PayerID, Amount: 500}

	publishPaymentEvents(attempt, 250, expense)

	deadline := time.After(time.Second)
	for {
		select {
		case event := <-ch:
			if event.Type != events.TypeExpenseAdded {
				continue
			}
			payload, ok := event.Payload.(events.ExpenseAdded)
			require.True(t, ok)
			assert.Equal(t, expense.ID, payload.ExpenseID, "subscribers need the created expense's id")
			assert.Equal(t, groupID, payload.GroupID)
			assert.Equal(t, attempt.PayerID, payload.PaidByID)
			return
		case <-deadline:
			t.Fatal("expense event was not published")
		}
	}
}
