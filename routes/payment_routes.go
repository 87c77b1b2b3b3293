package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tejaa171419/paysplit/handlers"
	"github.com/tejaa171419/paysplit/middleware"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/payments/webhook", handlers.HandleGatewayWebhook)

	paymentsGroup := api.Group("/payments", middleware.Protected())
	paymentsGroup.Post("", handlers.CreatePaymentAttempt)
	paymentsGroup.Post("/verify", handlers.VerifyGatewayPayment)
	paymentsGroup.Get("/:id", handlers.GetPayment)
	paymentsGroup.Put("/:id", handlers.UpdatePaymentAttempt)
	paymentsGroup.Post("/:id/order", handlers.CreateGatewayOrder)
	paymentsGroup.Post("/:id/pay/wallet", handlers.PayWithWallet)
	paymentsGroup.Post("/:id/cancel", handlers.CancelPayment)
	paymentsGroup.Get("/:id/receipt", handlers.GetPaymentReceipt)
}
