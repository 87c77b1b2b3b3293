// Package events is the in-process publish/subscribe bus. Cross-component
// refresh (wallet and dashboard reacting to a completed payment) goes through
// typed events with explicit subscription lifetimes instead of ambient global
// listeners.
package events

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeWalletUpdated    Type = "wallet_updated"
	TypePaymentCompleted Type = "payment_completed"
	TypeExpenseAdded     Type = "expense_added"
)

type WalletUpdated struct {
	UserID  uuid.UUID `json:"user_id"`
	Balance float64   `json:"balance"`
}

type PaymentCompleted struct {
	AttemptID uuid.UUID `json:"attempt_id"`
	PayerID   uuid.UUID `json:"payer_id"`
	Status    string    `json:"status"`
	Amount    float64   `json:"amount"`
	Kind      string    `json:"kind"`
}

type ExpenseAdded struct {
	GroupID   uuid.UUID `json:"group_id"`
	ExpenseID uuid.UUID `json:"expense_id"`
	PaidByID  uuid.UUID `json:"paid_by_id"`
	Amount    float64   `json:"amount"`
}

// Event carries one typed payload to the users it concerns. An empty Users
// slice means every subscriber sees it.
type Event struct {
	Type       Type        `json:"type"`
	Users      []uuid.UUID `json:"-"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Concerns reports whether the event targets the given user.
func (e Event) Concerns(userID uuid.UUID) bool {
	if len(e.Users) == 0 {
		return true
	}
	for _, id := range e.Users {
		if id == userID {
			return true
		}
	}
	return false
}

const subscriberBuffer = 16

type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Default is the process-wide bus.
var Default = NewBus()

// Subscribe returns a receive channel and a cancel func. The caller owns the
// subscription: cancel must run when the consumer goes away, after which the
// channel is closed and no further events arrive.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking. A
// subscriber that has fallen behind loses the event rather than stalling the
// payment flow that published it.
func (b *Bus) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.Printf("Event bus: subscriber %d full, dropping %s event", id, event.Type)
		}
	}
}
