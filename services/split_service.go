package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNoParticipants = errors.New("at least one participant must be selected")
var ErrInvalidAmount = errors.New("amount must be greater than zero")

var hundred = decimal.NewFromInt(100)

// PerPersonAmount is the display figure shown while the user is picking
// participants: total divided by the selection count, unrounded so that
// per-person x count always reproduces the total.
func PerPersonAmount(total float64, count int) (float64, error) {
	if total <= 0 {
		return 0, ErrInvalidAmount
	}
	if count <= 0 {
		return 0, ErrNoParticipants
	}
	return total / float64(count), nil
}

// SplitEqually divides the total among the participants in exact paise.
// Shares differ by at most one paisa and always sum back to the total;
// leftover paise go to the earliest participants in the given order.
func SplitEqually(total float64, participantIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	if total <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(participantIDs) == 0 {
		return nil, ErrNoParticipants
	}

	totalPaise := decimal.NewFromFloat(total).Mul(hundred).Round(0).IntPart()
	n := int64(len(participantIDs))
	base := totalPaise / n
	remainder := totalPaise % n

	shares := make(map[uuid.UUID]float64, len(participantIDs))
	for i, id := range participantIDs {
		paise := base
		if int64(i) < remainder {
			paise++
		}
		shares[id] = float64(paise) / 100
	}
	return shares, nil
}
