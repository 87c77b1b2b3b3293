package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tejaa171419/paysplit/handlers"
	"github.com/tejaa171419/paysplit/middleware"
)

func GroupRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	groups := api.Group("/groups", middleware.Protected())
	groups.Get("", handlers.ListMyGroups)
	groups.Post("", handlers.CreateGroup)
	groups.Get("/:id", handlers.GetGroup)
	groups.Post("/:id/members", handlers.AddGroupMember)
	groups.Delete("/:id/members/:userId", handlers.RemoveGroupMember)
	groups.Get("/:id/qr", handlers.GetGroupQR)
	groups.Get("/:id/balances", handlers.GetGroupBalances)
	groups.Get("/:id/settlements", handlers.GetGroupSettlements)
	groups.Post("/:id/split-preview", handlers.PreviewSplit)

	groups.Get("/:id/expenses", handlers.ListGroupExpenses)
	groups.Post("/:id/expenses", handlers.CreateExpense)
	groups.Get("/:id/expenses/:expenseId", handlers.GetExpense)
}
