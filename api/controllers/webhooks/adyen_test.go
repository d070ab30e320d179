package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	adyenwebhook "github.com/tapsnap/tapsnap-backend/internal/webhooks/adyen"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
	"github.com/tapsnap/tapsnap-backend/pkg/metrics"
)

type stubIngestService struct {
	result adyenwebhook.IngestResult
	err    error
	inputs []adyenwebhook.IngestInput
}

func (s *stubIngestService) Ingest(_ context.Context, input adyenwebhook.IngestInput) (adyenwebhook.IngestResult, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return adyenwebhook.IngestResult{}, s.err
	}
	return s.result, nil
}

func postWebhook(handler http.HandlerFunc, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/adyen", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var total float64
		for _, metric := range family.GetMetric() {
			if metric.GetCounter() != nil {
				total += metric.GetCounter().GetValue()
			}
		}
		return total
	}
	return 0
}

func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func TestAdyenWebhookSuccessAck(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWebhookMetrics(reg)
	svc := &stubIngestService{result: adyenwebhook.IngestResult{Handled: 2}}
	handler := AdyenWebhook(svc, m, nil)

	rec := postWebhook(handler, []byte(`{"eventCode":"CAPTURE"}`), map[string]string{
		"X-Signature":     "abc",
		"Idempotency-Key": "evt_1",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var ack map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack["ok"] != true {
		t.Fatalf("expected flat ok ack, got %v", ack)
	}
	if _, enveloped := ack["data"]; enveloped {
		t.Fatal("webhook ack must not be wrapped in the success envelope")
	}
	if ack["handled"] != float64(2) {
		t.Fatalf("handled: got %v", ack["handled"])
	}

	if len(svc.inputs) != 1 {
		t.Fatalf("expected one ingest call, got %d", len(svc.inputs))
	}
	input := svc.inputs[0]
	if string(input.RawBody) != `{"eventCode":"CAPTURE"}` {
		t.Fatalf("raw body altered: %q", input.RawBody)
	}
	if input.Signature != "abc" || input.IdempotencyKey != "evt_1" {
		t.Fatalf("headers not threaded: %+v", input)
	}

	if got := counterValue(t, reg, "webhook_received_total"); got != 1 {
		t.Fatalf("received counter: got %v", got)
	}
	if got := counterValue(t, reg, "webhook_handled_items_total"); got != 2 {
		t.Fatalf("handled counter: got %v", got)
	}
}

func TestAdyenWebhookDuplicateAck(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWebhookMetrics(reg)
	svc := &stubIngestService{result: adyenwebhook.IngestResult{Duplicate: true}}
	handler := AdyenWebhook(svc, m, nil)

	rec := postWebhook(handler, []byte(`{}`), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for duplicate, got %d", rec.Code)
	}
	var ack map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack["duplicate"] != true {
		t.Fatalf("expected duplicate flag, got %v", ack)
	}
	if got := counterValue(t, reg, "webhook_duplicate_total"); got != 1 {
		t.Fatalf("duplicate counter: got %v", got)
	}
}

func TestAdyenWebhookUnauthorized(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWebhookMetrics(reg)
	svc := &stubIngestService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature")}
	handler := AdyenWebhook(svc, m, nil)

	rec := postWebhook(handler, []byte(`{}`), map[string]string{"X-Signature": "bad"})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := counterValue(t, reg, "webhook_unauthorized_total"); got != 1 {
		t.Fatalf("unauthorized counter: got %v", got)
	}
	if family := gatherFamily(t, reg, "webhook_duration_seconds"); family == nil {
		t.Fatal("expected a duration observation even on rejection")
	}
}

func TestAdyenWebhookStorageFailureIs503(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWebhookMetrics(reg)
	svc := &stubIngestService{err: pkgerrors.New(pkgerrors.CodeDependency, "event store append")}
	handler := AdyenWebhook(svc, m, nil)

	rec := postWebhook(handler, []byte(`{}`), nil)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 so the PSP redelivers, got %d", rec.Code)
	}
}

func TestAdyenWebhookHeadersSerializedWithoutCredential(t *testing.T) {
	svc := &stubIngestService{}
	handler := AdyenWebhook(svc, nil, nil)

	postWebhook(handler, []byte(`{}`), map[string]string{
		"Authorization": "Basic c2VjcmV0",
		"X-Signature":   "abc",
	})

	if len(svc.inputs) != 1 {
		t.Fatalf("expected ingest call")
	}
	var stored map[string][]string
	if err := json.Unmarshal([]byte(svc.inputs[0].Headers), &stored); err != nil {
		t.Fatalf("headers not valid JSON: %v", err)
	}
	if _, ok := stored["Authorization"]; ok {
		t.Fatal("transport credential must not be persisted")
	}
	if _, ok := stored["X-Signature"]; !ok {
		t.Fatal("signature header should be kept for forensics")
	}
}
