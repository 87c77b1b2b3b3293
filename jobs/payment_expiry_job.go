package jobs

import (
	"log"
	"time"

	"github.com/tejaa171419/paysplit/database"
	"github.com/tejaa171419/paysplit/models"
)

const paymentAttemptTTL = 30 * time.Minute

// ExpireStalePayments fails attempts abandoned in a non-terminal state, so
// no payment ever sits in "processing" indefinitely. Attempts the gateway
// later confirms via webhook were already terminal-checked there.
func ExpireStalePayments() {
	log.Println("Running job: ExpireStalePayments...")

	cutoff := time.Now().Add(-paymentAttemptTTL)

	var stale []models.PaymentAttempt
	err := database.DB.
		Where("status IN ? AND updated_at < ?",
			[]models.PaymentStatus{models.PaymentStatusCreated, models.PaymentStatusProcessing}, cutoff).
		Find(&stale).Error
	if err != nil {
		log.Printf("Error checking for stale payment attempts: %v", err)
		return
	}

	if len(stale) == 0 {
		return
	}

	for i := range stale {
		attempt := &stale[i]
		if err := attempt.Fail(models.FailureReasonExpired); err != nil {
			continue
		}
		if err := database.DB.Save(attempt).Error; err != nil {
			log.Printf("🔥 Failed to expire payment attempt %s: %v", attempt.ID, err)
			continue
		}
		log.Printf("Expired stale payment attempt %s (created %s)", attempt.ID, attempt.CreatedAt.Format(time.RFC3339))
	}
}
