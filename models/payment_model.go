package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusCreated    PaymentStatus = "created"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// Payment kinds, matching what a scanned QR resolves to plus wallet top-ups.
const (
	PaymentKindSelf         = "self"
	PaymentKindMerchant     = "merchant"
	PaymentKindExpenseSplit = "expense_split"
	PaymentKindTopup        = "topup"
)

const (
	PaymentMethodWallet  = "wallet"
	PaymentMethodGateway = "gateway"
)

// Failure reasons carried into user-visible messages. A dismissed checkout
// widget and a rejected verification both end in "failed" but must read
// differently to the user.
const (
	FailureReasonDismissed          = "gateway_dismissed"
	FailureReasonVerificationFailed = "verification_failed"
	FailureReasonOrderCreation      = "order_creation_failed"
	FailureReasonInsufficientFunds  = "insufficient_funds"
	FailureReasonExpired            = "expired"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusCreated:    {PaymentStatusProcessing, PaymentStatusFailed},
	PaymentStatusProcessing: {PaymentStatusSucceeded, PaymentStatusFailed},
	PaymentStatusSucceeded:  {},
	PaymentStatusFailed:     {},
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusFailed
}

type PaymentAttempt struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	PayerID uuid.UUID `gorm:"not null;index" json:"payer_id"`

	Kind   string `gorm:"size:20;not null" json:"kind"`
	Method string `gorm:"size:20;not null" json:"method"`

	Amount   float64 `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency string  `gorm:"size:3;not null;default:'INR'" json:"currency"`
	Note     *string `gorm:"type:text" json:"note"`

	RecipientVPA *string    `gorm:"size:100" json:"recipient_vpa,omitempty"`
	MerchantCode *string    `gorm:"size:20" json:"merchant_code,omitempty"`
	GroupID      *uuid.UUID `json:"group_id,omitempty"`

	// ParticipantIDs is the comma-joined selection for expense_split
	// attempts, frozen once the attempt leaves "created".
	ParticipantIDs *string `gorm:"type:text" json:"-"`

	ProviderOrderID   *string `gorm:"size:255;unique" json:"provider_order_id,omitempty"`
	ProviderPaymentID *string `gorm:"size:255;unique" json:"provider_payment_id,omitempty"`

	Status        PaymentStatus `gorm:"size:20;not null;default:'created'" json:"status"`
	FailureReason *string       `gorm:"size:40" json:"failure_reason,omitempty"`

	ReceiptNumber string  `gorm:"size:30;not null;unique" json:"receipt_number"`
	ReceiptURL    *string `gorm:"size:255" json:"receipt_url,omitempty"`

	Payer User   `gorm:"foreignkey:PayerID" json:"-"`
	Group *Group `gorm:"foreignkey:GroupID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransitionTo moves the attempt to the next status, rejecting anything the
// transition table does not allow. Terminal states never change again; in
// particular there is no way back from processing except to a terminal state.
func (p *PaymentAttempt) TransitionTo(next PaymentStatus) error {
	if p.Status == next {
		return nil
	}
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid payment status transition: %s -> %s", p.Status, next)
	}
	p.Status = next
	return nil
}

// Fail is TransitionTo(failed) with a reason attached.
func (p *PaymentAttempt) Fail(reason string) error {
	if err := p.TransitionTo(PaymentStatusFailed); err != nil {
		return err
	}
	p.FailureReason = &reason
	return nil
}

// Editable reports whether amount, note and participants may still change.
// Fields are frozen the moment processing begins, and also once a gateway
// order has been registered: the order was priced from the stored amount, so
// an edit after that point would let the attempt diverge from what the
// gateway actually charges.
func (p *PaymentAttempt) Editable() bool {
	return p.Status == PaymentStatusCreated && p.ProviderOrderID == nil
}

// Finalize advances the attempt to succeeded, passing through processing when
// it is still in created. It reports false when the attempt already
// succeeded, so whichever of the verify endpoint and the webhook lands second
// becomes a no-op instead of applying the money effects again.
func (p *PaymentAttempt) Finalize() (bool, error) {
	if p.Status == PaymentStatusSucceeded {
		return false, nil
	}
	if p.Status == PaymentStatusCreated {
		if err := p.TransitionTo(PaymentStatusProcessing); err != nil {
			return false, err
		}
	}
	if err := p.TransitionTo(PaymentStatusSucceeded); err != nil {
		return false, err
	}
	return true, nil
}
