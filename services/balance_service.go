package services

import (
	"math"

	"github.com/google/uuid"
	"github.com/tejaa171419/paysplit/database"
	"github.com/tejaa171419/paysplit/models"
)

// MemberBalance is one member's net position in a group: positive means the
// group owes them, negative means they owe the group.
type MemberBalance struct {
	UserID  uuid.UUID `json:"user_id"`
	Name    string    `json:"name"`
	Balance float64   `json:"balance"`
}

type GroupBalanceSummary struct {
	GroupID     uuid.UUID              `json:"group_id"`
	GroupName   string                 `json:"group_name"`
	Balances    []MemberBalance        `json:"balances"`
	Suggestions []SettlementSuggestion `json:"suggestions"`
	TotalSpent  float64                `json:"total_spent"`
	Currency    string                 `json:"currency"`
}

// GroupBalances aggregates every expense in the group into per-member net
// balances plus settlement suggestions. This is the authoritative ledger the
// client displays read-only.
func GroupBalances(groupID uuid.UUID) (*GroupBalanceSummary, error) {
	var group models.Group
	if err := database.DB.Preload("Members").First(&group, "id = ?", groupID).Error; err != nil {
		return nil, err
	}

	var expenses []models.Expense
	if err := database.DB.Preload("Participants").Where("group_id = ?", groupID).Find(&expenses).Error; err != nil {
		return nil, err
	}

	net := make(map[uuid.UUID]float64, len(group.Members))
	names := make(map[uuid.UUID]string, len(group.Members))
	for _, m := range group.Members {
		net[m.ID] = 0
		names[m.ID] = m.FullName
	}

	var totalSpent float64
	for _, expense := range expenses {
		totalSpent += expense.Amount
		net[expense.PaidByID] += expense.Amount
		for _, p := range expense.Participants {
			net[p.UserID] -= p.Share
		}
	}

	summary := &GroupBalanceSummary{
		GroupID:    group.ID,
		GroupName:  group.Name,
		TotalSpent: roundPaise(totalSpent),
		Currency:   "INR",
	}
	for _, m := range group.Members {
		summary.Balances = append(summary.Balances, MemberBalance{
			UserID:  m.ID,
			Name:    m.FullName,
			Balance: roundPaise(net[m.ID]),
		})
	}
	summary.Suggestions = SuggestSettlements(summary.Balances)
	return summary, nil
}

func roundPaise(amount float64) float64 {
	return math.Round(amount*100) / 100
}
