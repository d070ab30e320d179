package adyenwebhook

import (
	"testing"

	"github.com/tapsnap/tapsnap-backend/pkg/enums"
)

func TestParseNotificationAdyenEnvelope(t *testing.T) {
	body := []byte(`{
		"live": "false",
		"notificationItems": [
			{"NotificationRequestItem": {
				"eventCode": "AUTHORISATION",
				"success": "true",
				"pspReference": "psp_001",
				"merchantReference": "tx_42",
				"amount": {"value": 5000, "currency": "EUR"}
			}}
		]
	}`)

	items := ParseNotification(body)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.EventCode != enums.EventCodeAuthorisation {
		t.Fatalf("event code: got %q", item.EventCode)
	}
	if !item.Success {
		t.Fatal("expected success true")
	}
	if item.TransactionID != 42 {
		t.Fatalf("transaction id: got %d", item.TransactionID)
	}
	if !item.HasAmount || item.AmountCents != 5000 || item.Currency != enums.CurrencyEUR {
		t.Fatalf("amount not normalized: %+v", item)
	}
}

func TestParseNotificationWrapperList(t *testing.T) {
	body := []byte(`[
		{"NotificationRequestItem": {"eventCode": "capture", "success": true, "merchantReference": "tx_7"}},
		{"NotificationRequestItem": {"eventCode": "REFUND", "success": "True", "merchantReference": "tx_8"}}
	]`)

	items := ParseNotification(body)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].EventCode != enums.EventCodeCapture {
		t.Fatalf("expected uppercased event code, got %q", items[0].EventCode)
	}
	if !items[0].Success || !items[1].Success {
		t.Fatalf("success coercion failed: %+v", items)
	}
}

func TestParseNotificationSingleBareItem(t *testing.T) {
	body := []byte(`{"eventCode": "AUTHORISATION", "success": false, "merchantReference": "tx_9"}`)

	items := ParseNotification(body)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Success {
		t.Fatal("expected success false")
	}
	if items[0].TransactionID != 9 {
		t.Fatalf("transaction id: got %d", items[0].TransactionID)
	}
}

func TestParseNotificationBareItemList(t *testing.T) {
	body := []byte(`[
		{"eventCode": "CAPTURE", "success": "true", "merchantReference": "tx_1", "pspReference": "psp_a"},
		{"eventCode": "CAPTURE", "success": "yes", "merchantReference": "order-1"}
	]`)

	items := ParseNotification(body)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].PSPReference != "psp_a" {
		t.Fatalf("psp reference: got %q", items[0].PSPReference)
	}
	if items[1].Success {
		t.Fatal(`"yes" must coerce to false`)
	}
	if items[1].Resolvable() {
		t.Fatal("non-matching merchant reference must not resolve")
	}
}

func TestParseNotificationMalformedAmountDropped(t *testing.T) {
	body := []byte(`{"eventCode": "AUTHORISATION", "success": true, "merchantReference": "tx_5",
		"amount": {"value": "lots", "currency": "EUR"}}`)

	items := ParseNotification(body)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].HasAmount {
		t.Fatal("malformed amount must be treated as absent")
	}
}

func TestParseNotificationUnknownCurrencyDropped(t *testing.T) {
	body := []byte(`{"eventCode": "AUTHORISATION", "success": true, "merchantReference": "tx_5",
		"amount": {"value": 100, "currency": "XXX"}}`)

	items := ParseNotification(body)
	if len(items) != 1 || items[0].HasAmount {
		t.Fatalf("unrecognized currency must drop the amount: %+v", items)
	}
}

func TestParseNotificationNeverErrors(t *testing.T) {
	cases := map[string][]byte{
		"empty":        nil,
		"garbage":      []byte(`not json at all`),
		"number":       []byte(`42`),
		"empty object": []byte(`{}`),
		"empty list":   []byte(`[]`),
		"null entries": []byte(`[null, 17, "str"]`),
	}
	for name, body := range cases {
		if items := ParseNotification(body); len(items) != 0 {
			t.Fatalf("%s: expected no items, got %d", name, len(items))
		}
	}
}

func TestParseNotificationMerchantReferencePattern(t *testing.T) {
	cases := map[string]int64{
		"tx_123":   123,
		"tx_0":     0,
		"TX_123":   0,
		"tx_12a":   0,
		"txn_12":   0,
		"tx_12 ":   0,
		"tx_":      0,
		"prefix_1": 0,
	}
	for ref, want := range cases {
		body := []byte(`{"eventCode": "CAPTURE", "success": true, "merchantReference": "` + ref + `"}`)
		items := ParseNotification(body)
		if len(items) != 1 {
			t.Fatalf("%s: expected item", ref)
		}
		if items[0].TransactionID != want {
			t.Fatalf("%s: expected id %d, got %d", ref, want, items[0].TransactionID)
		}
	}
}
