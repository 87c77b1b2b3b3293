package payments

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseIntentUPILink(t *testing.T) {
	payload := ParseIntent("upi://pay?pa=jane4821@paysplit&pn=Jane%20Doe&am=150.50&tn=Dinner&cu=INR")

	if payload.Kind != IntentUPI {
		t.Fatalf("expected kind upi, got %s", payload.Kind)
	}
	if payload.RecipientVPA != "jane4821@paysplit" {
		t.Errorf("unexpected VPA: %s", payload.RecipientVPA)
	}
	if payload.PayeeName != "Jane Doe" {
		t.Errorf("unexpected payee name: %s", payload.PayeeName)
	}
	if payload.Note != "Dinner" {
		t.Errorf("unexpected note: %s", payload.Note)
	}
	if payload.Amount == nil || *payload.Amount != 150.50 {
		t.Errorf("unexpected amount: %v", payload.Amount)
	}
}

func TestParseIntentUPILinkBadAmountIgnored(t *testing.T) {
	testCases := []string{
		"upi://pay?pa=jane@oksbi&am=abc",
		"upi://pay?pa=jane@oksbi&am=-20",
		"upi://pay?pa=jane@oksbi&am=0",
		"upi://pay?pa=jane@oksbi",
	}
	for _, raw := range testCases {
		payload := ParseIntent(raw)
		if payload.Kind != IntentUPI {
			t.Errorf("ParseIntent(%s): expected kind upi, got %s", raw, payload.Kind)
		}
		if payload.Amount != nil {
			t.Errorf("ParseIntent(%s): expected no amount, got %v", raw, *payload.Amount)
		}
	}
}

func TestParseIntentBareVPA(t *testing.T) {
	payload := ParseIntent("ravi.kumar@okaxis")
	if payload.Kind != IntentUPI || payload.RecipientVPA != "ravi.kumar@okaxis" {
		t.Errorf("expected bare VPA to classify as upi, got %+v", payload)
	}
}

func TestParseIntentMerchantCode(t *testing.T) {
	testCases := []struct {
		input    string
		expected IntentKind
	}{
		{"123456", IntentMerchant},
		{"999999999999", IntentMerchant},
		{"12345", IntentUnknown},         // too short
		{"1234567890123", IntentUnknown}, // too long
		{"12345a", IntentUnknown},
	}

	for _, tc := range testCases {
		payload := ParseIntent(tc.input)
		if payload.Kind != tc.expected {
			t.Errorf("ParseIntent(%s) kind = %s; expected %s", tc.input, payload.Kind, tc.expected)
		}
		if tc.expected == IntentMerchant && payload.MerchantCode != tc.input {
			t.Errorf("ParseIntent(%s) merchant code = %s", tc.input, payload.MerchantCode)
		}
	}
}

func TestParseIntentSplitToken(t *testing.T) {
	groupID := uuid.New()

	for _, raw := range []string{
		SplitToken(groupID),
		"paysplit://split/" + groupID.String() + "?am=1000&tn=Trip",
		"ps-" + groupID.String(),
	} {
		payload := ParseIntent(raw)
		if payload.Kind != IntentExpenseSplit {
			t.Errorf("ParseIntent(%s): expected expense_split, got %s", raw, payload.Kind)
			continue
		}
		if payload.GroupID != groupID.String() {
			t.Errorf("ParseIntent(%s): group id = %s", raw, payload.GroupID)
		}
	}
}

func TestParseIntentUnknownNeverPanics(t *testing.T) {
	garbage := []string{
		"",
		"   ",
		"hello world",
		"https://example.com/not-a-payment",
		"upi://collect?pa=someone@bank", // wrong host
		"upi://pay?pn=NoAddress",
		"paysplit://split/not-a-uuid",
		"ps-not-a-uuid",
		"ps-",
		"::::%%%",
		string([]byte{0x00, 0xff, 0xfe}),
	}

	for _, raw := range garbage {
		payload := ParseIntent(raw)
		if payload.Kind != IntentUnknown {
			t.Errorf("ParseIntent(%q): expected unknown, got %s", raw, payload.Kind)
		}
		if payload.Raw != raw {
			t.Errorf("ParseIntent(%q): raw string not preserved", raw)
		}
	}
}
