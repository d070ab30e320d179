package adyenwebhook

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/tapsnap/tapsnap-backend/pkg/enums"
)

// NotificationItem is one normalized PSP status change extracted from a
// delivery. TransactionID is zero when the merchant reference did not match
// the expected pattern; such items are skipped by the reconciler.
type NotificationItem struct {
	EventCode         enums.EventCode
	Success           bool
	PSPReference      string
	AmountCents       int64
	Currency          enums.Currency
	HasAmount         bool
	MerchantReference string
	TransactionID     int64
}

// Resolvable reports whether the item maps back to a known transaction id.
func (n NotificationItem) Resolvable() bool {
	return n.TransactionID > 0
}

var merchantRefPattern = regexp.MustCompile(`^tx_(\d+)$`)

const wrapperField = "NotificationRequestItem"

// rawItem mirrors the PSP item fields we care about; everything else in the
// payload is ignored.
type rawItem struct {
	EventCode         string          `json:"eventCode"`
	Success           json.RawMessage `json:"success"`
	PSPReference      string          `json:"pspReference"`
	MerchantReference string          `json:"merchantReference"`
	Amount            *rawAmount      `json:"amount"`
}

type rawAmount struct {
	Value    json.RawMessage `json:"value"`
	Currency string          `json:"currency"`
}

// ParseNotification extracts notification items from the raw body. It never
// fails: malformed JSON or an unrecognized shape yields an empty slice.
// Accepted shapes:
//   - the Adyen envelope {"notificationItems": [{"NotificationRequestItem": {...}}]}
//   - a top-level list of wrapper objects
//   - a single bare item object
//   - a bare list of items
func ParseNotification(rawBody []byte) []NotificationItem {
	trimmed := strings.TrimSpace(string(rawBody))
	if trimmed == "" {
		return nil
	}

	var envelope struct {
		NotificationItems []json.RawMessage `json:"notificationItems"`
	}
	if err := json.Unmarshal(rawBody, &envelope); err == nil && len(envelope.NotificationItems) > 0 {
		return normalizeAll(envelope.NotificationItems)
	}

	if strings.HasPrefix(trimmed, "[") {
		var entries []json.RawMessage
		if err := json.Unmarshal(rawBody, &entries); err != nil {
			return nil
		}
		return normalizeAll(entries)
	}

	if item, ok := normalizeEntry(json.RawMessage(rawBody)); ok {
		return []NotificationItem{item}
	}
	return nil
}

func normalizeAll(entries []json.RawMessage) []NotificationItem {
	items := make([]NotificationItem, 0, len(entries))
	for _, entry := range entries {
		if item, ok := normalizeEntry(entry); ok {
			items = append(items, item)
		}
	}
	return items
}

// normalizeEntry accepts either a wrapper object holding the item under the
// fixed field name, or the bare item itself.
func normalizeEntry(entry json.RawMessage) (NotificationItem, bool) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(entry, &wrapper); err != nil {
		return NotificationItem{}, false
	}
	if nested, ok := wrapper[wrapperField]; ok {
		entry = nested
	}

	var raw rawItem
	if err := json.Unmarshal(entry, &raw); err != nil {
		return NotificationItem{}, false
	}
	if raw.EventCode == "" && raw.MerchantReference == "" && raw.PSPReference == "" {
		return NotificationItem{}, false
	}

	item := NotificationItem{
		EventCode:         enums.EventCode(strings.ToUpper(raw.EventCode)),
		Success:           coerceSuccess(raw.Success),
		PSPReference:      raw.PSPReference,
		MerchantReference: raw.MerchantReference,
	}

	if cents, currency, ok := coerceAmount(raw.Amount); ok {
		item.AmountCents = cents
		item.Currency = currency
		item.HasAmount = true
	}

	if matches := merchantRefPattern.FindStringSubmatch(raw.MerchantReference); matches != nil {
		if id, err := strconv.ParseInt(matches[1], 10, 64); err == nil {
			item.TransactionID = id
		}
	}

	return item, true
}

// coerceSuccess accepts boolean true or the string "true" in any casing.
// Everything else, including absence, is false.
func coerceSuccess(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(s, "true")
	}
	return false
}

func coerceAmount(raw *rawAmount) (int64, enums.Currency, bool) {
	if raw == nil {
		return 0, "", false
	}

	var cents int64
	if err := json.Unmarshal(raw.Value, &cents); err != nil {
		return 0, "", false
	}
	if cents < 0 {
		return 0, "", false
	}

	currency, err := enums.ParseCurrency(raw.Currency)
	if err != nil {
		return 0, "", false
	}
	return cents, currency, true
}
