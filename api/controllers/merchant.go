package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketcore-backend/api/middleware"
	"github.com/angelmondragon/marketcore-backend/api/responses"
	"github.com/angelmondragon/marketcore-backend/api/validators"
	orderssvc "github.com/angelmondragon/marketcore-backend/internal/orders"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
	"github.com/angelmondragon/marketcore-backend/pkg/logger"
)

type shipOrderRequest struct {
	CourierName string `json:"courier_name" validate:"required,notblank,max=64"`
	TrackingNo  string `json:"tracking_no" validate:"required,notblank,max=64"`
}

// MerchantOrdersList returns orders containing the merchant's products.
func MerchantOrdersList(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		merchantID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseOrderStatus(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListMerchant(r.Context(), merchantID, orderssvc.ListFilters{Status: status}, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// MerchantShipOrder records courier details and moves a paid order to shipped.
// Admins may ship any order.
func MerchantShipOrder(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		caller, orderID, err := callerAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload shipOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchantID := caller
		if middleware.RoleFromContext(r.Context()) == enums.RoleAdmin {
			merchantID = uuid.Nil
		}
		ctx := logg.WithOrderID(r.Context(), orderID.String())
		err = svc.ShipOrder(ctx, orderssvc.ShipOrderInput{
			OrderID:     orderID,
			MerchantID:  merchantID,
			CourierName: validators.SanitizeString(payload.CourierName, 64),
			TrackingNo:  validators.SanitizeString(payload.TrackingNo, 64),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"order_id": orderID,
			"status":   enums.OrderStatusShipped,
		})
	}
}
