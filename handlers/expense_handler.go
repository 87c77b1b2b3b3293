package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tejaa171419/paysplit/database"
	"github.com/tejaa171419/paysplit/events"
	"github.com/tejaa171419/paysplit/models"
	"github.com/tejaa171419/paysplit/services"
	"gorm.io/gorm"
)

type CreateExpenseRequest struct {
	Amount         float64  `json:"amount" validate:"required,gt=0"`
	Note           string   `json:"note,omitempty"`
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1,dive,uuid"`
}

// CreateExpense records a manually entered group expense paid by the caller
// and split equally among the selected participants.
func CreateExpense(c *fiber.Ctx) error {
	group, errResp := loadOwnGroup(c)
	if group == nil {
		return errResp
	}
	userID := currentUserID(c)

	var req CreateExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	_, participants, err := validateSplitSelection(userID, group.ID.String(), req.ParticipantIDs)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	shares, err := services.SplitEqually(req.Amount, participants)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var expense models.Expense
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		expense = models.Expense{
			GroupID:  group.ID,
			PaidByID: userID,
			Amount:   req.Amount,
			Currency: "INR",
		}
		if req.Note != "" {
			expense.Note = &req.Note
		}
		if err := tx.Create(&expense).Error; err != nil {
			return err
		}

		for _, participantID := range participants {
			participant := models.ExpenseParticipant{
				ExpenseID: expense.ID,
				UserID:    participantID,
				Share:     shares[participantID],
			}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record expense"})
	}

	events.Default.Publish(events.Event{
		Type:  events.TypeExpenseAdded,
		Users: participants,
		Payload: events.ExpenseAdded{
			GroupID:   group.ID,
			ExpenseID: expense.ID,
			PaidByID:  userID,
			Amount:    expense.Amount,
		},
	})

	return c.Status(fiber.StatusCreated).JSON(expense)
}

func ListGroupExpenses(c *fiber.Ctx) error {
	group, errResp := loadOwnGroup(c)
	if group == nil {
		return errResp
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var expenses []models.Expense
	if err := database.DB.
		Preload("PaidBy").
		Preload("Participants.User").
		Where("group_id = ?", group.ID).
		Order("created_at desc").
		Limit(pageSize).
		Offset(offset).
		Find(&expenses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch expenses"})
	}

	return c.JSON(expenses)
}

func GetExpense(c *fiber.Ctx) error {
	group, errResp := loadOwnGroup(c)
	if group == nil {
		return errResp
	}

	expenseID, err := uuid.Parse(c.Params("expenseId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expense ID format"})
	}

	var expense models.Expense
	if err := database.DB.
		Preload("PaidBy").
		Preload("Participants.User").
		Where("id = ? AND group_id = ?", expenseID, group.ID).
		First(&expense).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Expense not found"})
	}

	return c.JSON(expense)
}
