package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	qrgen "github.com/skip2/go-qrcode"
	"github.com/tejaa171419/paysplit/database"
	"github.com/tejaa171419/paysplit/models"
	"github.com/tejaa171419/paysplit/payments"
	"github.com/tejaa171419/paysplit/services"
	"gorm.io/gorm"
)

type CreateGroupRequest struct {
	Name         string   `json:"name" validate:"required,min=2,max=100"`
	MemberEmails []string `json:"member_emails,omitempty" validate:"omitempty,dive,email"`
}

func CreateGroup(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var group models.Group
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var creator models.User
		if err := tx.First(&creator, "id = ?", userID).Error; err != nil {
			return err
		}

		members := []*models.User{&creator}
		for _, email := range req.MemberEmails {
			var member models.User
			if err := tx.Where("email = ?", email).First(&member).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errors.New("no registered user with email " + email)
				}
				return err
			}
			if member.ID != creator.ID {
				members = append(members, &member)
			}
		}

		group = models.Group{Name: req.Name, CreatedBy: userID, Members: members}
		return tx.Create(&group).Error
	})

	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// ListMyGroups returns every group the caller belongs to, members included,
// which is the context the payment details screen needs.
func ListMyGroups(c *fiber.Ctx) error {
	var user models.User
	if err := database.DB.Preload("Groups.Members").First(&user, "id = ?", currentUserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user.Groups)
}

func GetGroup(c *fiber.Ctx) error {
	group, errResp := loadOwnGroup(c)
	if group == nil {
		return errResp
	}
	return c.JSON(group)
}

type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func AddGroupMember(c *fiber.Ctx) error {
	group, errResp := loadOwnGroup(c)
	if group == nil {
		return errResp
	}

	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var member models.User
	if err := database.DB.Where("email = ?", req.Email).First(&member).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No registered user with that email"})
	}
	if group.HasMember(member.ID) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User is already a member of this group"})
	}

	if err := database.DB.Model(group).Association("Members").Append(&member); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add member"})
	}
	return c.JSON(fiber.Map{"message": "Member added", "member": member})
}

func RemoveGroupMember(c *fiber.Ctx) error {
	group, errResp := loadOwnGroup(c)
	if group == nil {
		return errResp
	}

	memberID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member ID format"})
	}
	if !group.HasMember(memberID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User is not a member of this group"})
	}
	if len(group.Members) == 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot remove the last member of a group"})
	}

	if err := database.DB.Model(group).Association("Members").Delete(&models.User{ID: memberID}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove member"})
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}

// GetGroupQR renders the group's shareable split QR code as a PNG. Scanning
// it lands other members straight in the group payment flow.
func GetGroupQR(c *fiber.Ctx) error {
	group, errResp := loadOwnGroup(c)
	if group == nil {
		return errResp
	}

	png, err := qrgen.Encode(payments.SplitToken(group.ID), qrgen.Medium, 512)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate QR code"})
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

func GetGroupBalances(c *fiber.Ctx) error {
	group, errResp := loadOwnGroup(c)
	if group == nil {
		return errResp
	}

	summary, err := services.GroupBalances(group.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute group balances"})
	}
	return c.JSON(summary)
}

// GetGroupSettlements returns who-pays-whom suggestions that zero the group
// out. Display-only; settling up goes through the normal payment flow.
func GetGroupSettlements(c *fiber.Ctx) error {
	group, errResp := loadOwnGroup(c)
	if group == nil {
		return errResp
	}

	summary, err := services.GroupBalances(group.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute settlements"})
	}
	return c.JSON(fiber.Map{"group_id": group.ID, "suggestions": summary.Suggestions})
}

type SplitPreviewRequest struct {
	Amount         float64  `json:"amount" validate:"required,gt=0"`
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1,dive,uuid"`
}

// PreviewSplit computes the per-person figure for the current selection. The
// client re-calls this whenever the amount or the selection changes.
func PreviewSplit(c *fiber.Ctx) error {
	group, errResp := loadOwnGroup(c)
	if group == nil {
		return errResp
	}

	var req SplitPreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	_, participants, err := validateSplitSelection(currentUserID(c), group.ID.String(), req.ParticipantIDs)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	perPerson, err := services.PerPersonAmount(req.Amount, len(participants))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	shares, err := services.SplitEqually(req.Amount, participants)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"amount":            req.Amount,
		"selected_count":    len(participants),
		"per_person_amount": perPerson,
		"shares":            shares,
	})
}

func loadOwnGroup(c *fiber.Ctx) (*models.Group, error) {
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID format"})
	}

	var group models.Group
	if err := database.DB.Preload("Members").First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if !group.HasMember(currentUserID(c)) {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not a member of this group"})
	}
	return &group, nil
}
