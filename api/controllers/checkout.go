package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketcore-backend/api/responses"
	"github.com/angelmondragon/marketcore-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/marketcore-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
	"github.com/angelmondragon/marketcore-backend/pkg/logger"
)

type checkoutRequest struct {
	AddressID uuid.UUID `json:"address_id" validate:"required"`
}

type buyNowRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
	AddressID uuid.UUID `json:"address_id" validate:"required"`
}

// Checkout turns the caller's open cart into a pending order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.CreateOrderFromCart(r.Context(), userID, payload.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// BuyNow orders a single product without touching the cart.
func BuyNow(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload buyNowRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.BuyNow(r.Context(), checkoutsvc.BuyNowInput{
			UserID:    userID,
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
			AddressID: payload.AddressID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
