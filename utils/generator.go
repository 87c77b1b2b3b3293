package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/tejaa171419/paysplit/models"
	"gorm.io/gorm"
)

const vpaDomain = "paysplit"
const receiptDigits = "0123456789"

// GenerateUniqueVPA builds a virtual payment address from the user's name,
// e.g. "jane4821@paysplit", retrying until it does not collide.
func GenerateUniqueVPA(tx *gorm.DB, fullName string) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	handle := ""
	if fields := strings.Fields(fullName); len(fields) > 0 {
		handle = strings.ToLower(fields[0])
	}
	var clean strings.Builder
	for _, r := range handle {
		if r >= 'a' && r <= 'z' {
			clean.WriteRune(r)
		}
	}
	base := clean.String()
	if base == "" {
		base = "user"
	}

	for {
		vpa := fmt.Sprintf("%s%04d@%s", base, seededRand.Intn(10000), vpaDomain)

		var user models.User
		err := tx.Where("vpa = ?", vpa).First(&user).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return vpa, nil
			}
			return "", err
		}
	}
}

// GenerateReceiptNumber returns a receipt reference like "PS-20260830-483920".
func GenerateReceiptNumber() string {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := make([]byte, 6)
	for i := range b {
		b[i] = receiptDigits[seededRand.Intn(len(receiptDigits))]
	}
	return fmt.Sprintf("PS-%s-%s", time.Now().Format("20060102"), string(b))
}
