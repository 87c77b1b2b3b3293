package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	config "github.com/tejaa171419/paysplit/configs"
	"github.com/tejaa171419/paysplit/database"
	"github.com/tejaa171419/paysplit/models"
	"github.com/tejaa171419/paysplit/payments"
	"github.com/tejaa171419/paysplit/utils"
)

// GetWallet returns the caller's balance plus recent ledger entries.
func GetWallet(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var transactions []models.WalletTransaction
	if err := database.DB.
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch wallet transactions"})
	}

	return c.JSON(fiber.Map{
		"balance":      user.WalletBalance,
		"currency":     "INR",
		"vpa":          user.VPA,
		"transactions": transactions,
	})
}

type TopupRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// TopupWallet starts a gateway-backed top-up: it creates the attempt and the
// gateway order in one call. The wallet is credited only when verification
// or the webhook confirms the capture.
func TopupWallet(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req TopupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	attempt := models.PaymentAttempt{
		PayerID:       userID,
		Kind:          models.PaymentKindTopup,
		Method:        models.PaymentMethodGateway,
		Amount:        req.Amount,
		Currency:      "INR",
		Status:        models.PaymentStatusCreated,
		ReceiptNumber: utils.GenerateReceiptNumber(),
	}
	if err := database.DB.Create(&attempt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create top-up"})
	}

	order, err := payments.CreateRazorpayOrder(attempt.Amount, attempt.Currency, attempt.ReceiptNumber)
	if err != nil {
		failAttempt(&attempt, models.FailureReasonOrderCreation)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment gateway rejected the order, please try again"})
	}

	attempt.ProviderOrderID = &order.ID
	if err := database.DB.Save(&attempt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store gateway order"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment_id": attempt.ID,
		"order_id":   order.ID,
		"key_id":     config.Config("RAZORPAY_KEY_ID"),
		"amount":     payments.ToMinorUnits(attempt.Amount),
		"currency":   attempt.Currency,
	})
}
