package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	ch1, cancel1 := bus.Subscribe()
	ch2, cancel2 := bus.Subscribe()
	defer cancel1()
	defer cancel2()

	userID := uuid.New()
	bus.Publish(Event{Type: TypeWalletUpdated, Payload: WalletUpdated{UserID: userID, Balance: 250}})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case event := <-ch:
			assert.Equal(t, TypeWalletUpdated, event.Type)
			assert.False(t, event.OccurredAt.IsZero())
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe()
	cancel()
	cancel() // second cancel is harmless

	bus.Publish(Event{Type: TypeExpenseAdded})

	// channel is closed, not fed
	event, open := <-ch
	assert.False(t, open, "expected closed channel, got %+v", event)
}

func TestPublishNeverBlocks(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			bus.Publish(Event{Type: TypePaymentCompleted})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestConcerns(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	broadcast := Event{Type: TypeWalletUpdated}
	assert.True(t, broadcast.Concerns(alice))

	targeted := Event{Type: TypeWalletUpdated, Users: []uuid.UUID{alice}}
	assert.True(t, targeted.Concerns(alice))
	assert.False(t, targeted.Concerns(bob))
}

func TestSubscriptionsIndependent(t *testing.T) {
	bus := NewBus()

	ch1, cancel1 := bus.Subscribe()
	_, cancel2 := bus.Subscribe()
	cancel2()

	bus.Publish(Event{Type: TypeWalletUpdated})

	select {
	case event := <-ch1:
		require.Equal(t, TypeWalletUpdated, event.Type)
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber did not receive event")
	}
	cancel1()
}
