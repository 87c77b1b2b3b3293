package services

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerPersonAmount(t *testing.T) {
	testCases := []struct {
		total    float64
		count    int
		expected float64
	}{
		{1000, 2, 500}, // 4-member group with 2 deselected
		{150, 1, 150},
		{100, 3, 100.0 / 3},
		{0.03, 3, 0.01},
	}

	for _, tc := range testCases {
		got, err := PerPersonAmount(tc.total, tc.count)
		require.NoError(t, err)
		assert.InDelta(t, tc.expected, got, 1e-9)

		// per-person x count must reproduce the total within float tolerance
		assert.InDelta(t, tc.total, got*float64(tc.count), 1e-6)
	}
}

func TestPerPersonAmountRejectsEmptySelection(t *testing.T) {
	_, err := PerPersonAmount(500, 0)
	assert.ErrorIs(t, err, ErrNoParticipants)

	_, err = PerPersonAmount(500, -1)
	assert.ErrorIs(t, err, ErrNoParticipants)

	_, err = PerPersonAmount(0, 2)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSplitEquallySumsExactly(t *testing.T) {
	testCases := []struct {
		total float64
		n     int
	}{
		{1000, 4},
		{100, 3},   // 33.34 + 33.33 + 33.33
		{0.05, 3},  // 0.02 + 0.02 + 0.01
		{199.99, 7},
		{1, 6},
	}

	for _, tc := range testCases {
		ids := make([]uuid.UUID, tc.n)
		for i := range ids {
			ids[i] = uuid.New()
		}

		shares, err := SplitEqually(tc.total, ids)
		require.NoError(t, err)
		require.Len(t, shares, tc.n)

		var sum float64
		var min, max = math.MaxFloat64, 0.0
		for _, share := range shares {
			sum += share
			min = math.Min(min, share)
			max = math.Max(max, share)
		}

		assert.InDelta(t, tc.total, sum, 1e-9, "total %v / %d", tc.total, tc.n)
		assert.LessOrEqual(t, max-min, 0.01+1e-9, "shares differ by more than a paisa")
	}
}

func TestSplitEquallyRejectsEmptySelection(t *testing.T) {
	_, err := SplitEqually(500, nil)
	assert.ErrorIs(t, err, ErrNoParticipants)

	_, err = SplitEqually(-5, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
