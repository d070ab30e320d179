package controllers

import (
	"net/http"
	"strconv"

	"github.com/tapsnap/tapsnap-backend/api/responses"
	"github.com/tapsnap/tapsnap-backend/api/validators"
	"github.com/tapsnap/tapsnap-backend/internal/transactions"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
	"github.com/tapsnap/tapsnap-backend/pkg/logger"
)

type createTransactionRequest struct {
	MerchantID  int64  `json:"merchant_id" validate:"required,gte=1"`
	AmountCents int64  `json:"amount_cents" validate:"gte=0"`
	Currency    string `json:"currency" validate:"required,len=3"`
}

// TransactionCreate records a new payment attempt.
func TransactionCreate(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		var req createTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Create(r.Context(), transactions.CreateTransactionInput{
			MerchantID:  req.MerchantID,
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

// TransactionList returns transactions newest first. Supports merchant_id and
// limit query filters.
func TransactionList(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		filter, err := listFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txns, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, txns)
	}
}

// TransactionGet fetches a single transaction by id.
func TransactionGet(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		id, err := pathID(r, "transactionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, txn)
	}
}

type confirmTransactionRequest struct {
	Status       string `json:"status" validate:"required"`
	PSPReference string `json:"psp_reference,omitempty"`
}

// TransactionConfirm applies a synchronous confirmation outcome.
func TransactionConfirm(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		id, err := pathID(r, "transactionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req confirmTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Confirm(r.Context(), transactions.ConfirmInput{
			TransactionID: id,
			Status:        req.Status,
			PSPReference:  req.PSPReference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, txn)
	}
}

type refundTransactionRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"required,gte=1"`
	RequestedBy string `json:"requested_by" validate:"required,min=1,max=200"`
}

// TransactionRefund opens a refund request for a settled transaction.
func TransactionRefund(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		id, err := pathID(r, "transactionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req refundTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refund, err := svc.RequestRefund(r.Context(), transactions.RefundRequestInput{
			TransactionID: id,
			AmountCents:   req.AmountCents,
			RequestedBy:   req.RequestedBy,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, refund)
	}
}

// TransactionExportCSV streams all matching transactions as a CSV download.
func TransactionExportCSV(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		filter, err := listFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
		if err := svc.ExportCSV(r.Context(), w, filter); err != nil {
			// Headers may already be out; log instead of double-writing.
			if logg != nil {
				logg.Error(r.Context(), "csv export failed", err)
			}
		}
	}
}

func listFilterFromQuery(r *http.Request) (transactions.ListFilter, error) {
	var filter transactions.ListFilter
	if raw := r.URL.Query().Get("merchant_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid merchant_id")
		}
		filter.MerchantID = id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid limit")
		}
		filter.Limit = limit
	}
	return filter, nil
}
