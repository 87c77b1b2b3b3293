package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(100), ToMinorUnits(1))
	assert.Equal(t, int64(15050), ToMinorUnits(150.50))
	assert.Equal(t, int64(1), ToMinorUnits(0.01))
	assert.Equal(t, int64(10000000), ToMinorUnits(100000))
}

func TestCaptured(t *testing.T) {
	assert.True(t, (&RazorpayPayment{Status: "captured"}).Captured())

	// Authorized funds can still be voided and must not settle an attempt.
	assert.False(t, (&RazorpayPayment{Status: "authorized"}).Captured())
	assert.False(t, (&RazorpayPayment{Status: "failed"}).Captured())
}

func TestMatchesOrderRejectsInflatedAmount(t *testing.T) {
	// One rupee actually captured on the order.
	payment := &RazorpayPayment{ID: "pay_Abc456", OrderID: "order_Nxy123", Amount: 100, Status: "captured"}

	assert.True(t, payment.MatchesOrder("order_Nxy123", ToMinorUnits(1)))

	// Attempt amount pushed up after the order was priced.
	assert.False(t, payment.MatchesOrder("order_Nxy123", ToMinorUnits(100000)))
	assert.False(t, payment.MatchesOrder("order_Other", ToMinorUnits(1)))
}
