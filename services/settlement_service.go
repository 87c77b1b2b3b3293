package services

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// SettlementSuggestion recommends one payment that moves the group closer to
// zero. Suggestions are display-only; recording an actual settlement happens
// through the normal payment flow.
type SettlementSuggestion struct {
	FromUserID uuid.UUID `json:"from_user_id"`
	FromName   string    `json:"from_name"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	ToName     string    `json:"to_name"`
	Amount     float64   `json:"amount"`
}

// Balances below a paisa are treated as settled.
const settledEpsilon = 0.01

// SuggestSettlements greedily matches the largest debtor against the largest
// creditor until every balance is within a paisa of zero. The result is at
// most n-1 transfers for n members.
func SuggestSettlements(balances []MemberBalance) []SettlementSuggestion {
	working := make([]MemberBalance, len(balances))
	copy(working, balances)

	suggestions := []SettlementSuggestion{}
	for len(working) >= 2 {
		sort.Slice(working, func(i, j int) bool {
			return working[i].Balance < working[j].Balance
		})

		debtor := &working[0]
		creditor := &working[len(working)-1]
		if -debtor.Balance < settledEpsilon || creditor.Balance < settledEpsilon {
			break
		}

		amount := roundPaise(math.Min(-debtor.Balance, creditor.Balance))
		suggestions = append(suggestions, SettlementSuggestion{
			FromUserID: debtor.UserID,
			FromName:   debtor.Name,
			ToUserID:   creditor.UserID,
			ToName:     creditor.Name,
			Amount:     amount,
		})

		debtor.Balance = roundPaise(debtor.Balance + amount)
		creditor.Balance = roundPaise(creditor.Balance - amount)
	}
	return suggestions
}
