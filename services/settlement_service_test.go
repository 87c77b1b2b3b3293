package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(name string, balance float64) MemberBalance {
	return MemberBalance{UserID: uuid.New(), Name: name, Balance: balance}
}

func applySuggestions(balances []MemberBalance, suggestions []SettlementSuggestion) map[uuid.UUID]float64 {
	net := make(map[uuid.UUID]float64)
	for _, b := range balances {
		net[b.UserID] = b.Balance
	}
	for _, s := range suggestions {
		net[s.FromUserID] += s.Amount
		net[s.ToUserID] -= s.Amount
	}
	return net
}

func TestSuggestSettlementsZeroesBalances(t *testing.T) {
	balances := []MemberBalance{
		member("Alice", 600),
		member("Bob", -250),
		member("Carol", -350),
	}

	suggestions := SuggestSettlements(balances)
	require.NotEmpty(t, suggestions)
	assert.LessOrEqual(t, len(suggestions), len(balances)-1)

	for id, remaining := range applySuggestions(balances, suggestions) {
		assert.InDelta(t, 0, remaining, settledEpsilon, "member %s not settled", id)
	}
}

func TestSuggestSettlementsDirection(t *testing.T) {
	alice := member("Alice", 500)
	bob := member("Bob", -500)

	suggestions := SuggestSettlements([]MemberBalance{alice, bob})
	require.Len(t, suggestions, 1)

	assert.Equal(t, bob.UserID, suggestions[0].FromUserID)
	assert.Equal(t, alice.UserID, suggestions[0].ToUserID)
	assert.InDelta(t, 500, suggestions[0].Amount, 1e-9)
}

func TestSuggestSettlementsSettledGroup(t *testing.T) {
	balances := []MemberBalance{
		member("Alice", 0),
		member("Bob", 0.004),
		member("Carol", -0.004),
	}
	assert.Empty(t, SuggestSettlements(balances))
	assert.Empty(t, SuggestSettlements(nil))
	assert.Empty(t, SuggestSettlements([]MemberBalance{member("Solo", 0)}))
}

func TestSuggestSettlementsUnevenPaise(t *testing.T) {
	balances := []MemberBalance{
		member("Alice", 66.67),
		member("Bob", -33.34),
		member("Carol", -33.33),
	}

	suggestions := SuggestSettlements(balances)
	for id, remaining := range applySuggestions(balances, suggestions) {
		assert.InDelta(t, 0, remaining, settledEpsilon, "member %s not settled", id)
	}
}
