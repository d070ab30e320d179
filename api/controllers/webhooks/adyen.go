package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/tapsnap/tapsnap-backend/api/responses"
	adyenwebhook "github.com/tapsnap/tapsnap-backend/internal/webhooks/adyen"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
	"github.com/tapsnap/tapsnap-backend/pkg/logger"
	"github.com/tapsnap/tapsnap-backend/pkg/metrics"
	"github.com/tapsnap/tapsnap-backend/pkg/types"
)

const (
	signatureHeader      = "X-Signature"
	idempotencyKeyHeader = "Idempotency-Key"

	// maxBodyBytes caps what we buffer for signing and auditing. PSP
	// notification batches are small; anything near this size is abuse.
	maxBodyBytes = 1 << 20
)

// IngestService runs the webhook pipeline for one delivery.
type IngestService interface {
	Ingest(ctx context.Context, input adyenwebhook.IngestInput) (adyenwebhook.IngestResult, error)
}

// AdyenWebhook receives PSP notifications. The raw body is read before any
// parsing so the signature covers the exact bytes the PSP sent.
func AdyenWebhook(svc IngestService, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()

		m.IncReceived(adyenwebhook.Provider)
		defer func() {
			m.ObserveDuration(adyenwebhook.Provider, time.Since(start))
		}()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}
		if len(rawBody) > maxBodyBytes {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large"))
			return
		}

		result, err := svc.Ingest(ctx, adyenwebhook.IngestInput{
			RawBody:        rawBody,
			Signature:      r.Header.Get(signatureHeader),
			IdempotencyKey: r.Header.Get(idempotencyKeyHeader),
			Headers:        serializeHeaders(r.Header),
		})
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeUnauthorized {
				m.IncUnauthorized(adyenwebhook.Provider)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if result.Duplicate {
			m.IncDuplicate(adyenwebhook.Provider)
		}
		m.AddHandledItems(adyenwebhook.Provider, result.Handled)

		responses.WriteRaw(w, http.StatusOK, types.WebhookAck{
			OK:        true,
			Duplicate: result.Duplicate,
			Handled:   result.Handled,
		})
	}
}

// serializeHeaders stores the inbound headers for forensics, minus the
// transport credential.
func serializeHeaders(headers http.Header) string {
	cloned := headers.Clone()
	cloned.Del("Authorization")

	encoded, err := json.Marshal(cloned)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}
