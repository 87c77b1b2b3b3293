package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	config "github.com/tejaa171419/paysplit/configs"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type RazorpayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
}

// ToMinorUnits converts a rupee amount to paise, the unit the gateway bills in.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Captured reports whether the gateway has actually captured the funds.
// Authorized-only payments can still be voided and do not count as paid.
func (p *RazorpayPayment) Captured() bool {
	return p.Status == "captured"
}

// MatchesOrder reports whether the payment settles the given order for the
// expected amount in minor units. Verification compares against the stored
// attempt, never against figures the client supplies.
func (p *RazorpayPayment) MatchesOrder(orderID string, amountMinor int64) bool {
	return p.OrderID == orderID && p.Amount == amountMinor
}

// CreateRazorpayOrder registers an order with the gateway and returns its id.
// The checkout widget on the client is opened against this order.
func CreateRazorpayOrder(amount float64, currency, receipt string) (*RazorpayOrder, error) {
	payload := map[string]interface{}{
		"amount":   ToMinorUnits(amount),
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %v", err)
	}

	req, err := http.NewRequest("POST", razorpayBaseURL+"/orders", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(config.Config("RAZORPAY_KEY_ID"), config.Config("RAZORPAY_KEY_SECRET"))
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("Razorpay order API error: %s", string(respBody))
		return nil, fmt.Errorf("failed to create gateway order, status: %s", resp.Status)
	}

	var order RazorpayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

// FetchRazorpayPayment looks a payment up with the gateway. Verification
// checks the payment really is captured rather than trusting the client.
func FetchRazorpayPayment(paymentID string) (*RazorpayPayment, error) {
	req, err := http.NewRequest("GET", fmt.Sprintf("%s/payments/%s", razorpayBaseURL, paymentID), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(config.Config("RAZORPAY_KEY_ID"), config.Config("RAZORPAY_KEY_SECRET"))

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to fetch gateway payment: %s", string(respBody))
	}

	var payment RazorpayPayment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
