package adyenwebhook

import (
	"context"

	"gorm.io/gorm"

	"github.com/tapsnap/tapsnap-backend/pkg/db/models"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
	"github.com/tapsnap/tapsnap-backend/pkg/logger"
)

// Provider is the PSP identity recorded on every stored event.
const Provider = "adyen"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// IngestInput carries one inbound delivery through the pipeline. RawBody must
// be the exact bytes read off the wire.
type IngestInput struct {
	RawBody        []byte
	Signature      string
	IdempotencyKey string
	Headers        string
}

// IngestResult reports the outcome of one accepted delivery.
type IngestResult struct {
	Duplicate bool
	Handled   int
	EventKey  string
}

type ServiceParams struct {
	Repo              Repository
	Reconciler        *Reconciler
	TransactionRunner txRunner
	SigningSecret     string
	Logger            *logger.Logger
}

// Service runs the webhook pipeline: signature check, dedup, durable event
// append, parse, reconcile.
type Service struct {
	repo       Repository
	reconciler *Reconciler
	txRunner   txRunner
	secret     string
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook repo required")
	}
	if params.Reconciler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reconciler required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		repo:       params.Repo,
		reconciler: params.Reconciler,
		txRunner:   params.TransactionRunner,
		secret:     params.SigningSecret,
		logg:       params.Logger,
	}, nil
}

// Ingest processes one delivery. Unauthorized deliveries return a typed
// unauthorized error and leave no trace in the event store. Storage errors
// return dependency errors so the PSP's retry policy redelivers. Everything
// else, including payloads with nothing actionable in them, succeeds.
func (s *Service) Ingest(ctx context.Context, input IngestInput) (IngestResult, error) {
	if !VerifySignature(s.secret, input.RawBody, input.Signature) {
		return IngestResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature")
	}

	eventKey := ResolveEventKey(input.IdempotencyKey, input.RawBody)
	result := IngestResult{EventKey: eventKey}

	if s.logg != nil {
		ctx = s.logg.WithEventKey(s.logg.WithProvider(ctx, Provider), eventKey)
	}

	exists, err := s.repo.EventExists(ctx, eventKey)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "event store lookup")
	}
	if exists {
		result.Duplicate = true
		return result, nil
	}

	// The append commits on its own, before reconciliation. A delivery that
	// fails later still leaves the raw event durably recorded for replay.
	event := &models.WebhookEvent{
		Provider:  Provider,
		EventKey:  eventKey,
		Signature: input.Signature,
		RawBody:   input.RawBody,
		Headers:   input.Headers,
	}
	if err := s.repo.AppendEvent(ctx, event); err != nil {
		if err == ErrDuplicateEvent {
			// Lost the insert race to a concurrent delivery of the same key.
			result.Duplicate = true
			return result, nil
		}
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "event store append")
	}

	items := ParseNotification(input.RawBody)
	if len(items) == 0 {
		if s.logg != nil {
			s.logg.Info(ctx, "webhook.no_actionable_items")
		}
		return result, nil
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		handled, applyErr := s.reconciler.Apply(ctx, tx, items)
		result.Handled = handled
		return applyErr
	})
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconciliation commit")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "handled", result.Handled), "webhook.reconciled")
	}
	return result, nil
}
