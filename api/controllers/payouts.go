package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tapsnap/tapsnap-backend/api/responses"
	"github.com/tapsnap/tapsnap-backend/api/validators"
	"github.com/tapsnap/tapsnap-backend/internal/payouts"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
	"github.com/tapsnap/tapsnap-backend/pkg/logger"
)

type schedulePayoutRequest struct {
	MerchantID   int64  `json:"merchant_id" validate:"required,gte=1"`
	AmountCents  int64  `json:"amount_cents" validate:"required,gte=1"`
	Currency     string `json:"currency" validate:"required,len=3"`
	ScheduledFor string `json:"scheduled_for,omitempty"`
}

// PayoutSchedule schedules a payout to a merchant.
func PayoutSchedule(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		var req schedulePayoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payouts.ScheduleInput{
			MerchantID:  req.MerchantID,
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
		}
		if req.ScheduledFor != "" {
			when, err := time.Parse(time.RFC3339, req.ScheduledFor)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_for must be RFC 3339"))
				return
			}
			input.ScheduledFor = &when
		}

		payout, err := svc.Schedule(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, payout)
	}
}

// PayoutList returns payouts newest first, optionally for one merchant.
func PayoutList(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		var merchantID int64
		if raw := r.URL.Query().Get("merchant_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid merchant_id"))
				return
			}
			merchantID = id
		}

		listed, err := svc.List(r.Context(), merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listed)
	}
}
