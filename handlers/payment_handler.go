package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	config "github.com/tejaa171419/paysplit/configs"
	"github.com/tejaa171419/paysplit/database"
	"github.com/tejaa171419/paysplit/events"
	"github.com/tejaa171419/paysplit/models"
	"github.com/tejaa171419/paysplit/notifications"
	"github.com/tejaa171419/paysplit/payments"
	"github.com/tejaa171419/paysplit/services"
	"github.com/tejaa171419/paysplit/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreatePaymentRequest struct {
	Amount         float64  `json:"amount" validate:"required,gt=0"`
	Currency       string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Note           string   `json:"note,omitempty"`
	Kind           string   `json:"kind" validate:"required,oneof=self merchant expense_split topup"`
	Method         string   `json:"method" validate:"required,oneof=wallet gateway"`
	RecipientVPA   string   `json:"recipient_vpa,omitempty"`
	MerchantCode   string   `json:"merchant_code,omitempty"`
	GroupID        string   `json:"group_id,omitempty" validate:"omitempty,uuid"`
	ParticipantIDs []string `json:"participant_ids,omitempty" validate:"omitempty,dive,uuid"`
}

// CreatePaymentAttempt opens a new attempt in "created". One attempt is one
// try: a failed attempt is never retried in place, the client starts over.
func CreatePaymentAttempt(c *fiber.Ctx) error {
	payerID := currentUserID(c)

	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	attempt := models.PaymentAttempt{
		PayerID:       payerID,
		Kind:          req.Kind,
		Method:        req.Method,
		Amount:        req.Amount,
		Currency:      "INR",
		Status:        models.PaymentStatusCreated,
		ReceiptNumber: utils.GenerateReceiptNumber(),
	}
	if req.Currency != "" {
		attempt.Currency = strings.ToUpper(req.Currency)
	}
	if req.Note != "" {
		attempt.Note = &req.Note
	}

	switch req.Kind {
	case models.PaymentKindSelf:
		if req.RecipientVPA == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "recipient_vpa is required for self payments"})
		}
		attempt.RecipientVPA = &req.RecipientVPA

	case models.PaymentKindMerchant:
		if req.MerchantCode == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "merchant_code is required for merchant payments"})
		}
		attempt.MerchantCode = &req.MerchantCode

	case models.PaymentKindExpenseSplit:
		groupID, participants, err := validateSplitSelection(payerID, req.GroupID, req.ParticipantIDs)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		attempt.GroupID = &groupID
		joined := joinParticipantIDs(participants)
		attempt.ParticipantIDs = &joined

	case models.PaymentKindTopup:
		if req.Method != models.PaymentMethodGateway {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Wallet top-ups must go through the gateway"})
		}
	}

	if err := database.DB.Create(&attempt).Error; err != nil {
		log.Printf("🔥 Failed to create payment attempt: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create payment"})
	}

	return c.Status(fiber.StatusCreated).JSON(attempt)
}

type UpdatePaymentRequest struct {
	Amount         *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Note           *string  `json:"note,omitempty"`
	ParticipantIDs []string `json:"participant_ids,omitempty" validate:"omitempty,dive,uuid"`
}

// UpdatePaymentAttempt edits amount, note or participant selection. Allowed
// only while the attempt is still "created"; everything is frozen the moment
// processing begins.
func UpdatePaymentAttempt(c *fiber.Ctx) error {
	attempt, errResp := loadOwnAttempt(c)
	if attempt == nil {
		return errResp
	}
	if !attempt.Editable() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment can no longer be edited"})
	}

	var req UpdatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Amount != nil {
		attempt.Amount = *req.Amount
	}
	if req.Note != nil {
		attempt.Note = req.Note
	}
	if req.ParticipantIDs != nil {
		if attempt.Kind != models.PaymentKindExpenseSplit || attempt.GroupID == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Participants only apply to group split payments"})
		}
		_, participants, err := validateSplitSelection(attempt.PayerID, attempt.GroupID.String(), req.ParticipantIDs)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		joined := joinParticipantIDs(participants)
		attempt.ParticipantIDs = &joined
	}

	if err := database.DB.Save(attempt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update payment"})
	}
	return c.JSON(attempt)
}

// CreateGatewayOrder registers (or reuses) the gateway order for an attempt.
// The client opens the hosted checkout widget against the returned order id.
func CreateGatewayOrder(c *fiber.Ctx) error {
	attempt, errResp := loadOwnAttempt(c)
	if attempt == nil {
		return errResp
	}
	if attempt.Method != models.PaymentMethodGateway {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payment is not a gateway payment"})
	}
	if attempt.Status.IsTerminal() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment already completed"})
	}

	if attempt.ProviderOrderID == nil {
		order, err := payments.CreateRazorpayOrder(attempt.Amount, attempt.Currency, attempt.ReceiptNumber)
		if err != nil {
			log.Printf("🔥 Gateway order creation failed for attempt %s: %v", attempt.ID, err)
			failAttempt(attempt, models.FailureReasonOrderCreation)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment gateway rejected the order, please try again"})
		}
		attempt.ProviderOrderID = &order.ID
		if err := database.DB.Save(attempt).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store gateway order"})
		}
	}

	return c.JSON(fiber.Map{
		"payment_id": attempt.ID,
		"order_id":   *attempt.ProviderOrderID,
		"key_id":     config.Config("RAZORPAY_KEY_ID"),
		"amount":     payments.ToMinorUnits(attempt.Amount),
		"currency":   attempt.Currency,
	})
}

// PayWithWallet settles an attempt from the payer's wallet balance. The
// debit, the ledger entries and the attempt's terminal state commit in one
// database transaction; no gateway is involved.
func PayWithWallet(c *fiber.Ctx) error {
	attempt, errResp := loadOwnAttempt(c)
	if attempt == nil {
		return errResp
	}
	if attempt.Method != models.PaymentMethodWallet {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payment is not a wallet payment"})
	}
	if err := attempt.TransitionTo(models.PaymentStatusProcessing); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment already completed"})
	}
	if err := database.DB.Save(attempt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update payment"})
	}

	var payer models.User
	var expense *models.Expense
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payer, "id = ?", attempt.PayerID).Error; err != nil {
			return err
		}
		if payer.WalletBalance < attempt.Amount {
			return errInsufficientFunds
		}

		payer.WalletBalance -= attempt.Amount
		if err := tx.Save(&payer).Error; err != nil {
			return err
		}

		debit := models.WalletTransaction{
			UserID:           payer.ID,
			Type:             models.WalletEntryDebit,
			Amount:           attempt.Amount,
			BalanceAfter:     payer.WalletBalance,
			PaymentAttemptID: &attempt.ID,
			Note:             attempt.Note,
		}
		if err := tx.Create(&debit).Error; err != nil {
			return err
		}

		var effErr error
		expense, effErr = applyPaymentEffects(tx, attempt)
		if effErr != nil {
			return effErr
		}

		if err := attempt.TransitionTo(models.PaymentStatusSucceeded); err != nil {
			return err
		}
		return tx.Save(attempt).Error
	})

	if err != nil {
		if errors.Is(err, errInsufficientFunds) {
			failAttempt(attempt, models.FailureReasonInsufficientFunds)
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Insufficient wallet balance"})
		}
		log.Printf("🔥 Wallet payment failed for attempt %s: %v", attempt.ID, err)
		failAttempt(attempt, models.FailureReasonVerificationFailed)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process wallet payment"})
	}

	publishPaymentEvents(attempt, payer.WalletBalance, expense)
	go sendPaymentReceiptEmail(attempt.ID)

	return c.JSON(fiber.Map{"status": "success", "payment": attempt})
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// VerifyGatewayPayment is the only path to "succeeded" for gateway payments.
// The widget's success callback is treated as a claim: the signature is
// checked locally and the payment is confirmed captured with the gateway
// before any money is recorded.
func VerifyGatewayPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var attempt models.PaymentAttempt
	if err := database.DB.Preload("Payer").Where("provider_order_id = ?", req.RazorpayOrderID).First(&attempt).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found for this order"})
	}
	if attempt.PayerID != currentUserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Payment belongs to another user"})
	}
	if attempt.Status == models.PaymentStatusSucceeded {
		return c.JSON(fiber.Map{"status": "success", "message": "Payment already verified"})
	}

	if err := attempt.TransitionTo(models.PaymentStatusProcessing); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment already completed"})
	}
	if err := database.DB.Save(&attempt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update payment"})
	}

	secret := config.Config("RAZORPAY_KEY_SECRET")
	if !payments.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, secret) {
		log.Printf("🔥 Signature mismatch verifying attempt %s", attempt.ID)
		failAttempt(&attempt, models.FailureReasonVerificationFailed)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payment verification failed: signature mismatch"})
	}

	gatewayPayment, err := payments.FetchRazorpayPayment(req.RazorpayPaymentID)
	if err != nil {
		log.Printf("🔥 Gateway payment lookup failed for attempt %s: %v", attempt.ID, err)
		failAttempt(&attempt, models.FailureReasonVerificationFailed)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment verification failed: could not confirm with gateway"})
	}
	if !gatewayPayment.Captured() {
		failAttempt(&attempt, models.FailureReasonVerificationFailed)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payment verification failed: payment not captured"})
	}
	if !gatewayPayment.MatchesOrder(req.RazorpayOrderID, payments.ToMinorUnits(attempt.Amount)) {
		log.Printf("🔥 Gateway mismatch for attempt %s: paid %d paise on order %s, expected %d",
			attempt.ID, gatewayPayment.Amount, gatewayPayment.OrderID, payments.ToMinorUnits(attempt.Amount))
		failAttempt(&attempt, models.FailureReasonVerificationFailed)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payment verification failed: amount or order mismatch"})
	}

	if err := finalizeGatewaySuccess(&attempt, req.RazorpayPaymentID); err != nil {
		log.Printf("🔥 Failed to finalize verified payment %s: %v", attempt.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to finalize payment"})
	}

	return c.JSON(fiber.Map{"status": "success", "payment": attempt})
}

// CancelPayment records that the user dismissed the checkout widget without
// paying. The attempt terminates as "failed" with the dismissal reason so
// the client's message differs from a verification failure.
func CancelPayment(c *fiber.Ctx) error {
	attempt, errResp := loadOwnAttempt(c)
	if attempt == nil {
		return errResp
	}

	if attempt.Status == models.PaymentStatusFailed {
		return c.JSON(fiber.Map{"status": "failed", "payment": attempt})
	}
	if attempt.Status == models.PaymentStatusSucceeded {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment already succeeded and cannot be cancelled"})
	}

	if err := attempt.Fail(models.FailureReasonDismissed); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment cannot be cancelled"})
	}
	if err := database.DB.Save(attempt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel payment"})
	}
	return c.JSON(fiber.Map{"status": "failed", "payment": attempt})
}

func GetPayment(c *fiber.Ctx) error {
	attempt, errResp := loadOwnAttempt(c)
	if attempt == nil {
		return errResp
	}
	return c.JSON(attempt)
}

func GetPaymentReceipt(c *fiber.Ctx) error {
	attempt, errResp := loadOwnAttempt(c)
	if attempt == nil {
		return errResp
	}

	if err := database.DB.Preload("Payer").Preload("Group").First(attempt, "id = ?", attempt.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load payment"})
	}

	url, err := services.GenerateReceipt(attempt)
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"receipt_number": attempt.ReceiptNumber, "receipt_url": url})
}

type razorpayWebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Amount  int64  `json:"amount"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleGatewayWebhook is the server-to-server confirmation path. It is
// idempotent with the client-driven verify endpoint: whichever lands first
// finalizes the attempt, the other is acknowledged without rework.
func HandleGatewayWebhook(c *fiber.Ctx) error {
	signature := c.Get("X-Razorpay-Signature")
	if !payments.VerifyWebhookSignature(c.Body(), signature, config.Config("RAZORPAY_WEBHOOK_SECRET")) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid webhook signature"})
	}

	var payload razorpayWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	entity := payload.Payload.Payment.Entity
	log.Printf("Received gateway webhook %s for order %s", payload.Event, entity.OrderID)

	if payload.Event != "payment.captured" {
		return c.JSON(fiber.Map{"message": "Event ignored"})
	}

	var attempt models.PaymentAttempt
	if err := database.DB.Preload("Payer").Where("provider_order_id = ?", entity.OrderID).First(&attempt).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}
	if attempt.Status == models.PaymentStatusSucceeded {
		return c.JSON(fiber.Map{"message": "Webhook already processed"})
	}
	if entity.Amount != payments.ToMinorUnits(attempt.Amount) {
		log.Printf("🔥 Webhook amount mismatch for attempt %s: captured %d paise, expected %d",
			attempt.ID, entity.Amount, payments.ToMinorUnits(attempt.Amount))
		failAttempt(&attempt, models.FailureReasonVerificationFailed)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Webhook amount does not match payment"})
	}

	if err := finalizeGatewaySuccess(&attempt, entity.ID); err != nil {
		log.Printf("🔥 CRITICAL: Error processing webhook for attempt %s: %v", attempt.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}

	return c.JSON(fiber.Map{"message": "Webhook processed successfully"})
}

var errInsufficientFunds = errors.New("insufficient wallet balance")

// loadOwnAttempt fetches the :id attempt and checks ownership. On failure it
// returns a nil attempt and the response already written.
func loadOwnAttempt(c *fiber.Ctx) (*models.PaymentAttempt, error) {
	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID format"})
	}

	var attempt models.PaymentAttempt
	if err := database.DB.First(&attempt, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if attempt.PayerID != currentUserID(c) {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Payment belongs to another user"})
	}
	return &attempt, nil
}

// validateSplitSelection checks the group exists, the payer belongs to it
// and every selected participant is a member. An empty selection is rejected
// outright: a group payment can never proceed without participants.
func validateSplitSelection(payerID uuid.UUID, groupIDStr string, participantIDs []string) (uuid.UUID, []uuid.UUID, error) {
	if groupIDStr == "" {
		return uuid.Nil, nil, errors.New("group_id is required for group split payments")
	}
	groupID, err := uuid.Parse(groupIDStr)
	if err != nil {
		return uuid.Nil, nil, errors.New("invalid group_id")
	}
	if len(participantIDs) == 0 {
		return uuid.Nil, nil, services.ErrNoParticipants
	}

	var group models.Group
	if err := database.DB.Preload("Members").First(&group, "id = ?", groupID).Error; err != nil {
		return uuid.Nil, nil, errors.New("group not found")
	}
	if !group.HasMember(payerID) {
		return uuid.Nil, nil, errors.New("you are not a member of this group")
	}

	participants := make([]uuid.UUID, 0, len(participantIDs))
	seen := make(map[uuid.UUID]bool)
	for _, idStr := range participantIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("invalid participant id: %s", idStr)
		}
		if !group.HasMember(id) {
			return uuid.Nil, nil, fmt.Errorf("participant %s is not a member of the group", idStr)
		}
		if !seen[id] {
			seen[id] = true
			participants = append(participants, id)
		}
	}
	return groupID, participants, nil
}

func joinParticipantIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

func parseParticipantIDs(joined string) []uuid.UUID {
	var ids []uuid.UUID
	for _, part := range strings.Split(joined, ",") {
		if id, err := uuid.Parse(strings.TrimSpace(part)); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// applyPaymentEffects records what a successful payment means, inside the
// caller's transaction: split payments create the group expense, self
// payments credit an internal recipient, top-ups credit the payer.
func applyPaymentEffects(tx *gorm.DB, attempt *models.PaymentAttempt) (*models.Expense, error) {
	switch attempt.Kind {
	case models.PaymentKindExpenseSplit:
		return createExpenseFromAttempt(tx, attempt)

	case models.PaymentKindSelf:
		if attempt.RecipientVPA == nil {
			return nil, nil
		}
		var recipient models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("vpa = ?", *attempt.RecipientVPA).First(&recipient).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// External VPA: funds moved through the gateway, nothing to credit here.
				return nil, nil
			}
			return nil, err
		}

		recipient.WalletBalance += attempt.Amount
		if err := tx.Save(&recipient).Error; err != nil {
			return nil, err
		}
		credit := models.WalletTransaction{
			UserID:           recipient.ID,
			Type:             models.WalletEntryCredit,
			Amount:           attempt.Amount,
			BalanceAfter:     recipient.WalletBalance,
			CounterpartyID:   &attempt.PayerID,
			PaymentAttemptID: &attempt.ID,
			Note:             attempt.Note,
		}
		return nil, tx.Create(&credit).Error

	case models.PaymentKindTopup:
		var payer models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payer, "id = ?", attempt.PayerID).Error; err != nil {
			return nil, err
		}
		payer.WalletBalance += attempt.Amount
		if err := tx.Save(&payer).Error; err != nil {
			return nil, err
		}
		topup := models.WalletTransaction{
			UserID:           payer.ID,
			Type:             models.WalletEntryTopup,
			Amount:           attempt.Amount,
			BalanceAfter:     payer.WalletBalance,
			PaymentAttemptID: &attempt.ID,
		}
		return nil, tx.Create(&topup).Error
	}

	return nil, nil
}

func createExpenseFromAttempt(tx *gorm.DB, attempt *models.PaymentAttempt) (*models.Expense, error) {
	if attempt.GroupID == nil || attempt.ParticipantIDs == nil {
		return nil, errors.New("split payment is missing group or participants")
	}

	participantIDs := parseParticipantIDs(*attempt.ParticipantIDs)
	shares, err := services.SplitEqually(attempt.Amount, participantIDs)
	if err != nil {
		return nil, err
	}

	expense := models.Expense{
		GroupID:          *attempt.GroupID,
		PaidByID:         attempt.PayerID,
		Amount:           attempt.Amount,
		Currency:         attempt.Currency,
		Note:             attempt.Note,
		PaymentAttemptID: &attempt.ID,
	}
	if err := tx.Create(&expense).Error; err != nil {
		return nil, err
	}

	for _, participantID := range participantIDs {
		participant := models.ExpenseParticipant{
			ExpenseID: expense.ID,
			UserID:    participantID,
			Share:     shares[participantID],
		}
		if err := tx.Create(&participant).Error; err != nil {
			return nil, err
		}
	}
	return &expense, nil
}

// finalizeGatewaySuccess commits the verified payment atomically and fires
// the follow-ups. Success is only recorded here, after verification passed.
// The attempt is re-read under a row lock so the verify endpoint and the
// webhook racing on the same attempt apply the money effects exactly once.
func finalizeGatewaySuccess(attempt *models.PaymentAttempt, providerPaymentID string) error {
	alreadyDone := false
	var expense *models.Expense
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var current models.PaymentAttempt
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", attempt.ID).Error; err != nil {
			return err
		}

		ok, err := current.Finalize()
		if err != nil {
			return err
		}
		if !ok {
			alreadyDone = true
			*attempt = current
			return nil
		}

		current.ProviderPaymentID = &providerPaymentID
		expense, err = applyPaymentEffects(tx, &current)
		if err != nil {
			return err
		}
		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		*attempt = current
		return nil
	})
	if err != nil {
		return err
	}
	if alreadyDone {
		return nil
	}

	var payer models.User
	if err := database.DB.First(&payer, "id = ?", attempt.PayerID).Error; err == nil {
		publishPaymentEvents(attempt, payer.WalletBalance, expense)
	}
	go sendPaymentReceiptEmail(attempt.ID)
	return nil
}

func failAttempt(attempt *models.PaymentAttempt, reason string) {
	if err := attempt.Fail(reason); err != nil {
		log.Printf("Attempt %s already terminal, not overwriting with %s", attempt.ID, reason)
		return
	}
	if err := database.DB.Save(attempt).Error; err != nil {
		log.Printf("🔥 Failed to persist failure for attempt %s: %v", attempt.ID, err)
	}
	events.Default.Publish(events.Event{
		Type:  events.TypePaymentCompleted,
		Users: []uuid.UUID{attempt.PayerID},
		Payload: events.PaymentCompleted{
			AttemptID: attempt.ID,
			PayerID:   attempt.PayerID,
			Status:    string(attempt.Status),
			Amount:    attempt.Amount,
			Kind:      attempt.Kind,
		},
	})
}

func publishPaymentEvents(attempt *models.PaymentAttempt, payerBalance float64, expense *models.Expense) {
	events.Default.Publish(events.Event{
		Type:  events.TypePaymentCompleted,
		Users: []uuid.UUID{attempt.PayerID},
		Payload: events.PaymentCompleted{
			AttemptID: attempt.ID,
			PayerID:   attempt.PayerID,
			Status:    string(attempt.Status),
			Amount:    attempt.Amount,
			Kind:      attempt.Kind,
		},
	})
	events.Default.Publish(events.Event{
		Type:    events.TypeWalletUpdated,
		Users:   []uuid.UUID{attempt.PayerID},
		Payload: events.WalletUpdated{UserID: attempt.PayerID, Balance: payerBalance},
	})

	if attempt.Kind == models.PaymentKindExpenseSplit && expense != nil && attempt.ParticipantIDs != nil {
		events.Default.Publish(events.Event{
			Type:  events.TypeExpenseAdded,
			Users: parseParticipantIDs(*attempt.ParticipantIDs),
			Payload: events.ExpenseAdded{
				GroupID:   expense.GroupID,
				ExpenseID: expense.ID,
				PaidByID:  attempt.PayerID,
				Amount:    expense.Amount,
			},
		})
	}
}

func sendPaymentReceiptEmail(attemptID uuid.UUID) {
	var attempt models.PaymentAttempt
	if err := database.DB.Preload("Payer").First(&attempt, "id = ?", attemptID).Error; err != nil {
		return
	}
	notifications.SendEmail(attempt.Payer.FullName, attempt.Payer.Email, "Payment Successful",
		fmt.Sprintf("<h1>Payment Successful</h1><p>Your payment of %s %.2f went through. Receipt reference: <b>%s</b>.</p>",
			attempt.Currency, attempt.Amount, attempt.ReceiptNumber))
}
