package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tejaa171419/paysplit/database"
	"github.com/tejaa171419/paysplit/models"
	"github.com/tejaa171419/paysplit/payments"
	"github.com/tejaa171419/paysplit/scanner"
)

// 8 MB is plenty for a camera frame or an uploaded photo.
const maxScanImageBytes = 8 << 20

// ResolvedIntent is what the client renders on the payment details screen.
// The server-side resolution is authoritative and may correct fields the
// client parsed locally.
type ResolvedIntent struct {
	payments.ScannedPayload
	RecipientName       string        `json:"recipient_name,omitempty"`
	RecipientRegistered bool          `json:"recipient_registered"`
	Group               *models.Group `json:"group,omitempty"`
}

// DecodeScanImage decodes an uploaded image and resolves its intent in one
// call. A missing/unreadable QR is a 422 so the client tells the user to
// re-scan, never confused with a backend failure.
func DecodeScanImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing image file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read image file"})
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxScanImageBytes))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read image file"})
	}

	decoded, err := scanner.DecodeBytes(data)
	if err != nil {
		if errors.Is(err, scanner.ErrNoQRFound) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "No QR code found in image"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to decode image"})
	}

	resolved, status, errMsg := resolveIntent(currentUserID(c), decoded)
	if errMsg != "" {
		return c.Status(status).JSON(fiber.Map{"error": errMsg})
	}
	return c.JSON(resolved)
}

// ResolveScannedPayload classifies decoded QR text the client already has.
func ResolveScannedPayload(c *fiber.Ctx) error {
	type Request struct {
		Data string `json:"data" validate:"required"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resolved, status, errMsg := resolveIntent(currentUserID(c), req.Data)
	if errMsg != "" {
		return c.Status(status).JSON(fiber.Map{"error": errMsg})
	}
	return c.JSON(resolved)
}

func resolveIntent(userID uuid.UUID, decoded string) (*ResolvedIntent, int, string) {
	resolved := &ResolvedIntent{ScannedPayload: payments.ParseIntent(decoded)}

	switch resolved.Kind {
	case payments.IntentUPI:
		var recipient models.User
		if err := database.DB.Where("vpa = ?", resolved.RecipientVPA).First(&recipient).Error; err == nil {
			resolved.RecipientRegistered = true
			resolved.RecipientName = recipient.FullName
			// The registered name wins over whatever the QR claimed.
			resolved.PayeeName = recipient.FullName
		}

	case payments.IntentExpenseSplit:
		groupID, err := uuid.Parse(resolved.GroupID)
		if err != nil {
			resolved.Kind = payments.IntentUnknown
			return resolved, 0, ""
		}
		var group models.Group
		if err := database.DB.Preload("Members").First(&group, "id = ?", groupID).Error; err != nil {
			return nil, fiber.StatusNotFound, "Group in QR code no longer exists"
		}
		if !group.HasMember(userID) {
			return nil, fiber.StatusForbidden, "You are not a member of this group"
		}
		resolved.Group = &group
	}

	return resolved, 0, ""
}

// StartScanSession opens a scan session. Starting a new one always closes
// the caller's previous session, so two live scans can never overlap.
func StartScanSession(c *fiber.Ctx) error {
	session := scanner.Default.Start(currentUserID(c))
	return c.Status(fiber.StatusCreated).JSON(session)
}

// PushScanFrame feeds one sampled camera frame to a session. A frame with no
// QR code is a normal outcome, reported as found=false so the client keeps
// sampling.
func PushScanFrame(c *fiber.Ctx) error {
	userID := currentUserID(c)

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}
	if _, err := scanner.Default.Touch(sessionID, userID); err != nil {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "Scan session expired, start a new one"})
	}

	fileHeader, err := c.FormFile("frame")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing frame file"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read frame file"})
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxScanImageBytes))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read frame file"})
	}

	decoded, err := scanner.DecodeBytes(data)
	if err != nil {
		return c.JSON(fiber.Map{"found": false})
	}

	// Terminal decode: the session is done, mirroring the camera teardown
	// that follows a successful scan.
	scanner.Default.Stop(sessionID, userID)

	resolved, status, errMsg := resolveIntent(userID, decoded)
	if errMsg != "" {
		return c.Status(status).JSON(fiber.Map{"error": errMsg})
	}
	return c.JSON(fiber.Map{"found": true, "intent": resolved})
}

func StopScanSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}
	scanner.Default.Stop(sessionID, currentUserID(c))
	return c.JSON(fiber.Map{"message": "Scan session closed"})
}
