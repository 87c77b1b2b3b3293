package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	WalletEntryDebit  = "debit"
	WalletEntryCredit = "credit"
	WalletEntryTopup  = "topup"
)

// WalletTransaction is one ledger entry. Rows are only ever written inside
// the same database transaction that moves the balance.
type WalletTransaction struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID uuid.UUID `gorm:"not null;index" json:"user_id"`

	Type   string  `gorm:"size:10;not null" json:"type"`
	Amount float64 `gorm:"type:numeric(12,2);not null" json:"amount"`

	// BalanceAfter is the wallet balance immediately after this entry.
	BalanceAfter float64 `gorm:"type:numeric(12,2);not null" json:"balance_after"`

	CounterpartyID   *uuid.UUID `json:"counterparty_id,omitempty"`
	PaymentAttemptID *uuid.UUID `gorm:"index" json:"payment_attempt_id,omitempty"`
	Note             *string    `gorm:"type:text" json:"note"`

	CreatedAt time.Time `json:"created_at"`
}
