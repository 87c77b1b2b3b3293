package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tejaa171419/paysplit/handlers"
	"github.com/tejaa171419/paysplit/middleware"
)

func ScanRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	scan := api.Group("/scan", middleware.Protected())
	scan.Post("/decode", handlers.DecodeScanImage)
	scan.Post("/resolve", handlers.ResolveScannedPayload)
	scan.Post("/sessions", handlers.StartScanSession)
	scan.Post("/sessions/:id/frames", handlers.PushScanFrame)
	scan.Delete("/sessions/:id", handlers.StopScanSession)
}
