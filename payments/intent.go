package payments

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type IntentKind string

const (
	IntentUPI          IntentKind = "upi"
	IntentMerchant     IntentKind = "merchant"
	IntentExpenseSplit IntentKind = "expense_split"
	IntentUnknown      IntentKind = "unknown"
)

// ScannedPayload is the best-effort classification of one decoded QR string.
// Unknown formats keep the raw text so the client can still show it.
type ScannedPayload struct {
	Raw          string     `json:"raw"`
	Kind         IntentKind `json:"kind"`
	RecipientVPA string     `json:"recipient_vpa,omitempty"`
	PayeeName    string     `json:"payee_name,omitempty"`
	MerchantCode string     `json:"merchant_code,omitempty"`
	GroupID      string     `json:"group_id,omitempty"`
	Amount       *float64   `json:"amount,omitempty"`
	Note         string     `json:"note,omitempty"`
}

const splitScheme = "paysplit"
const splitTokenPrefix = "ps-"

var merchantCodePattern = regexp.MustCompile(`^[0-9]{6,12}$`)
var vpaPattern = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,}@[a-zA-Z]{2,}$`)

// ParseIntent classifies a decoded QR payload. It is a pure transform: it
// never errors and never panics, and it does not validate that the VPA or
// group actually exists. Semantic validation happens in the resolve handler
// against the database, which may correct these fields.
func ParseIntent(raw string) ScannedPayload {
	payload := ScannedPayload{Raw: raw, Kind: IntentUnknown}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return payload
	}

	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "upi://"):
		parseUPILink(trimmed, &payload)
	case strings.HasPrefix(lower, splitScheme+"://"):
		parseSplitLink(trimmed, &payload)
	case strings.HasPrefix(lower, splitTokenPrefix):
		if _, err := uuid.Parse(trimmed[len(splitTokenPrefix):]); err == nil {
			payload.Kind = IntentExpenseSplit
			payload.GroupID = trimmed[len(splitTokenPrefix):]
		}
	case merchantCodePattern.MatchString(trimmed):
		payload.Kind = IntentMerchant
		payload.MerchantCode = trimmed
	case vpaPattern.MatchString(trimmed):
		// A bare VPA without the deep-link wrapper still scans as a
		// person-to-person payment.
		payload.Kind = IntentUPI
		payload.RecipientVPA = trimmed
	}

	return payload
}

// parseUPILink handles the UPI deep-link syntax:
// upi://pay?pa=<vpa>&pn=<name>&am=<amount>&tn=<note>&cu=INR
func parseUPILink(raw string, payload *ScannedPayload) {
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Host, "pay") {
		return
	}

	q := u.Query()
	vpa := strings.TrimSpace(q.Get("pa"))
	if !vpaPattern.MatchString(vpa) {
		return
	}

	payload.Kind = IntentUPI
	payload.RecipientVPA = vpa
	payload.PayeeName = strings.TrimSpace(q.Get("pn"))
	payload.Note = strings.TrimSpace(q.Get("tn"))
	if amount, err := strconv.ParseFloat(q.Get("am"), 64); err == nil && amount > 0 {
		payload.Amount = &amount
	}
}

// parseSplitLink handles this platform's own group split tokens:
// paysplit://split/<group-uuid>?am=<amount>&tn=<note>
func parseSplitLink(raw string, payload *ScannedPayload) {
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Host, "split") {
		return
	}

	groupID := strings.Trim(u.Path, "/")
	if _, err := uuid.Parse(groupID); err != nil {
		return
	}

	payload.Kind = IntentExpenseSplit
	payload.GroupID = groupID
	q := u.Query()
	payload.Note = strings.TrimSpace(q.Get("tn"))
	if amount, err := strconv.ParseFloat(q.Get("am"), 64); err == nil && amount > 0 {
		payload.Amount = &amount
	}
}

// SplitToken builds the QR payload encoded into a group's shareable QR code.
func SplitToken(groupID uuid.UUID) string {
	return splitScheme + "://split/" + groupID.String()
}
