package models

import (
	"time"

	"github.com/google/uuid"
)

type Expense struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	GroupID  uuid.UUID `gorm:"not null;index" json:"group_id"`
	PaidByID uuid.UUID `gorm:"not null" json:"paid_by_id"`
	Amount   float64   `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency string    `gorm:"size:3;not null;default:'INR'" json:"currency"`
	Note     *string   `gorm:"type:text" json:"note"`

	// PaymentAttemptID links expenses that were created by a verified
	// QR/gateway payment rather than entered manually.
	PaymentAttemptID *uuid.UUID `gorm:"unique" json:"payment_attempt_id,omitempty"`

	PaidBy       User                 `gorm:"foreignkey:PaidByID" json:"paid_by,omitempty"`
	Participants []ExpenseParticipant `json:"participants,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ExpenseParticipant struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ExpenseID uuid.UUID `gorm:"not null;index" json:"expense_id"`
	UserID    uuid.UUID `gorm:"not null" json:"user_id"`
	Share     float64   `gorm:"type:numeric(12,2);not null" json:"share"`

	User User `gorm:"foreignkey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
