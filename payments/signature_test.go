package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "test_key_secret"
	orderID := "order_Nxy123"
	paymentID := "pay_Abc456"
	valid := sign(orderID+"|"+paymentID, secret)

	assert.True(t, VerifyPaymentSignature(orderID, paymentID, valid, secret))
	assert.False(t, VerifyPaymentSignature(orderID, paymentID, valid, "wrong_secret"))
	assert.False(t, VerifyPaymentSignature(orderID, "pay_Other", valid, secret))
	assert.False(t, VerifyPaymentSignature(orderID, paymentID, "", secret))
	assert.False(t, VerifyPaymentSignature(orderID, paymentID, "deadbeef", secret))
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event":"payment.captured","payload":{}}`)
	valid := sign(string(body), secret)

	assert.True(t, VerifyWebhookSignature(body, valid, secret))
	assert.False(t, VerifyWebhookSignature([]byte(`{"event":"tampered"}`), valid, secret))
	assert.False(t, VerifyWebhookSignature(body, valid, "other"))
}
