package controllers

import (
	"net/http"

	"github.com/tapsnap/tapsnap-backend/api/responses"
	"github.com/tapsnap/tapsnap-backend/api/validators"
	"github.com/tapsnap/tapsnap-backend/internal/checkout"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
	"github.com/tapsnap/tapsnap-backend/pkg/logger"
)

type checkoutRequest struct {
	MerchantID int64  `json:"merchant_id" validate:"required,gte=1"`
	Amount     string `json:"amount" validate:"required"`
	Currency   string `json:"currency" validate:"required,len=3"`
}

// CheckoutSimulate runs the sandbox checkout flow: the transaction is
// created and immediately authorised with a test PSP reference.
func CheckoutSimulate(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Simulate(r.Context(), checkout.SimulateInput{
			MerchantID: req.MerchantID,
			Amount:     req.Amount,
			Currency:   req.Currency,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}
