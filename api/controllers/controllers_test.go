package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/marketcore-backend/api/middleware"
	"github.com/angelmondragon/marketcore-backend/api/responses"
	checkoutsvc "github.com/angelmondragon/marketcore-backend/internal/checkout"
	orderssvc "github.com/angelmondragon/marketcore-backend/internal/orders"
	"github.com/angelmondragon/marketcore-backend/pkg/config"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
	"github.com/angelmondragon/marketcore-backend/pkg/pagination"
)

type stubCheckout struct {
	buyNowInput checkoutsvc.BuyNowInput
	cartUser    uuid.UUID
	cartAddress uuid.UUID
	err         error
}

func (s *stubCheckout) CreateOrderFromCart(ctx context.Context, userID, addressID uuid.UUID) (*orderssvc.OrderView, error) {
	s.cartUser, s.cartAddress = userID, addressID
	if s.err != nil {
		return nil, s.err
	}
	return &orderssvc.OrderView{ID: uuid.New(), UserID: userID, AddressID: addressID, Status: enums.OrderStatusPending}, nil
}

func (s *stubCheckout) BuyNow(ctx context.Context, input checkoutsvc.BuyNowInput) (*orderssvc.OrderView, error) {
	s.buyNowInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &orderssvc.OrderView{ID: uuid.New(), UserID: input.UserID, Status: enums.OrderStatusPending}, nil
}

type stubOrders struct {
	orderssvc.Service
	calls    []string
	shipped  orderssvc.ShipOrderInput
	filters  orderssvc.ListFilters
	params   pagination.Params
	err      error
	detailOf uuid.UUID
}

func (s *stubOrders) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) error {
	s.calls = append(s.calls, "cancel")
	return s.err
}

func (s *stubOrders) PayOrder(ctx context.Context, userID, orderID uuid.UUID) error {
	s.calls = append(s.calls, "pay")
	return s.err
}

func (s *stubOrders) ReceiptOrder(ctx context.Context, userID, orderID uuid.UUID) error {
	s.calls = append(s.calls, "receipt")
	return s.err
}

func (s *stubOrders) ShipOrder(ctx context.Context, input orderssvc.ShipOrderInput) error {
	s.shipped = input
	return s.err
}

func (s *stubOrders) Detail(ctx context.Context, userID, orderID uuid.UUID) (*orderssvc.OrderView, error) {
	s.calls = append(s.calls, "detail")
	s.detailOf = orderID
	return &orderssvc.OrderView{ID: orderID, UserID: userID, Status: enums.OrderStatusCancelled}, nil
}

func (s *stubOrders) ListMine(ctx context.Context, userID uuid.UUID, filters orderssvc.ListFilters, params pagination.Params) (*orderssvc.OrderList, error) {
	s.filters, s.params = filters, params
	return &orderssvc.OrderList{}, nil
}

type stubViews struct {
	counted bool
	err     error
}

func (s stubViews) RecordView(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.counted, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func serve(t *testing.T, method, pattern, target string, body any, role enums.Role, userID uuid.UUID, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	router := chi.NewRouter()
	router.Method(method, pattern, h)
	req := httptest.NewRequest(method, target, reader)
	if userID != uuid.Nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), userID, role))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) responses.APIError {
	t.Helper()
	var env responses.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env.Error
}

func TestCheckoutCreatesOrder(t *testing.T) {
	svc := &stubCheckout{}
	user, addr := uuid.New(), uuid.New()

	w := serve(t, http.MethodPost, "/checkout", "/checkout", map[string]any{"address_id": addr}, enums.RoleBuyer, user, Checkout(svc, nil))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", w.Code, w.Body.String())
	}
	if svc.cartUser != user || svc.cartAddress != addr {
		t.Fatalf("service received %s/%s", svc.cartUser, svc.cartAddress)
	}
}

func TestCheckoutRequiresIdentity(t *testing.T) {
	w := serve(t, http.MethodPost, "/checkout", "/checkout", map[string]any{"address_id": uuid.New()}, "", uuid.Nil, Checkout(&stubCheckout{}, nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}

func TestCheckoutMapsBusinessRule(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeBusinessRule, "insufficient stock").WithDetails(map[string]any{"available": 1})}
	w := serve(t, http.MethodPost, "/checkout", "/checkout", map[string]any{"address_id": uuid.New()}, enums.RoleBuyer, uuid.New(), Checkout(svc, nil))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", w.Code)
	}
	if got := decodeError(t, w); got.Message != "insufficient stock" || got.Details == nil {
		t.Fatalf("unexpected error body %+v", got)
	}
}

func TestBuyNowValidatesBody(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"zero quantity", map[string]any{"product_id": uuid.New(), "quantity": 0, "address_id": uuid.New()}},
		{"missing product", map[string]any{"quantity": 1, "address_id": uuid.New()}},
		{"unknown field", map[string]any{"product_id": uuid.New(), "quantity": 1, "address_id": uuid.New(), "price": "1.00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubCheckout{}
			w := serve(t, http.MethodPost, "/buy-now", "/buy-now", tt.body, enums.RoleBuyer, uuid.New(), BuyNow(svc, nil))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", w.Code)
			}
			if svc.buyNowInput.UserID != uuid.Nil {
				t.Fatalf("service should not be called")
			}
		})
	}
}

func TestBuyNowPassesInput(t *testing.T) {
	svc := &stubCheckout{}
	user, product, addr := uuid.New(), uuid.New(), uuid.New()
	body := map[string]any{"product_id": product, "quantity": 3, "address_id": addr}

	w := serve(t, http.MethodPost, "/buy-now", "/buy-now", body, enums.RoleBuyer, user, BuyNow(svc, nil))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", w.Code)
	}
	want := checkoutsvc.BuyNowInput{UserID: user, ProductID: product, Quantity: 3, AddressID: addr}
	if svc.buyNowInput != want {
		t.Fatalf("unexpected input %+v", svc.buyNowInput)
	}
}

func TestBuyerTransitionsReturnRefreshedOrder(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		handler func(orderssvc.Service) http.HandlerFunc
		call    string
	}{
		{"cancel", "/orders/{orderId}/cancel", func(s orderssvc.Service) http.HandlerFunc { return OrderCancel(s, nil) }, "cancel"},
		{"pay", "/orders/{orderId}/pay", func(s orderssvc.Service) http.HandlerFunc { return OrderPay(s, nil) }, "pay"},
		{"receipt", "/orders/{orderId}/receipt", func(s orderssvc.Service) http.HandlerFunc { return OrderReceipt(s, nil) }, "receipt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubOrders{}
			orderID := uuid.New()
			target := "/orders/" + orderID.String() + "/" + tc.name

			w := serve(t, http.MethodPost, tc.path, target, nil, enums.RoleBuyer, uuid.New(), tc.handler(svc))

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
			}
			if len(svc.calls) != 2 || svc.calls[0] != tc.call || svc.calls[1] != "detail" {
				t.Fatalf("unexpected calls %v", svc.calls)
			}
			if svc.detailOf != orderID {
				t.Fatalf("detail loaded %s", svc.detailOf)
			}
		})
	}
}

func TestTransitionFailureSkipsDetail(t *testing.T) {
	svc := &stubOrders{err: pkgerrors.New(pkgerrors.CodeConflict, "order is not pending")}
	orderID := uuid.New()

	w := serve(t, http.MethodPost, "/orders/{orderId}/pay", "/orders/"+orderID.String()+"/pay", nil, enums.RoleBuyer, uuid.New(), OrderPay(svc, nil))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", w.Code)
	}
	if len(svc.calls) != 1 {
		t.Fatalf("unexpected calls %v", svc.calls)
	}
}

func TestOrderRoutesRejectBadID(t *testing.T) {
	w := serve(t, http.MethodPost, "/orders/{orderId}/cancel", "/orders/not-a-uuid/cancel", nil, enums.RoleBuyer, uuid.New(), OrderCancel(&stubOrders{}, nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestNilOrdersServiceIsInternal(t *testing.T) {
	w := serve(t, http.MethodPost, "/orders/{orderId}/cancel", "/orders/"+uuid.NewString()+"/cancel", nil, enums.RoleBuyer, uuid.New(), OrderCancel(nil, nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", w.Code)
	}
}

func TestOrdersListParsesFilters(t *testing.T) {
	svc := &stubOrders{}
	w := serve(t, http.MethodGet, "/orders", "/orders?status=paid&limit=5", nil, enums.RoleBuyer, uuid.New(), OrdersList(svc, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	if svc.filters.Status == nil || *svc.filters.Status != enums.OrderStatusPaid {
		t.Fatalf("unexpected status filter %v", svc.filters.Status)
	}
	if svc.params.Limit != 5 {
		t.Fatalf("unexpected limit %d", svc.params.Limit)
	}
}

func TestMerchantShipScopesByRole(t *testing.T) {
	body := map[string]any{"courier_name": "  SF Express ", "tracking_no": "SF123"}

	merchant := uuid.New()
	svc := &stubOrders{}
	orderID := uuid.New()
	w := serve(t, http.MethodPost, "/merchant/orders/{orderId}/ship", "/merchant/orders/"+orderID.String()+"/ship", body, enums.RoleMerchant, merchant, MerchantShipOrder(svc, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	if svc.shipped.MerchantID != merchant || svc.shipped.OrderID != orderID || svc.shipped.CourierName != "SF Express" {
		t.Fatalf("unexpected ship input %+v", svc.shipped)
	}

	admin := &stubOrders{}
	w = serve(t, http.MethodPost, "/merchant/orders/{orderId}/ship", "/merchant/orders/"+orderID.String()+"/ship", body, enums.RoleAdmin, uuid.New(), MerchantShipOrder(admin, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if admin.shipped.MerchantID != uuid.Nil {
		t.Fatalf("admin ship should skip ownership, got %s", admin.shipped.MerchantID)
	}
}

func TestMerchantShipRejectsBlankCourier(t *testing.T) {
	body := map[string]any{"courier_name": "   ", "tracking_no": "SF123"}
	w := serve(t, http.MethodPost, "/merchant/orders/{orderId}/ship", "/merchant/orders/"+uuid.NewString()+"/ship", body, enums.RoleMerchant, uuid.New(), MerchantShipOrder(&stubOrders{}, nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestProductView(t *testing.T) {
	target := "/products/" + uuid.NewString() + "/views"
	w := serve(t, http.MethodPost, "/products/{productId}/views", target, nil, enums.RoleBuyer, uuid.New(), ProductView(stubViews{counted: true}, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var env struct {
		Data map[string]bool `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Data["counted"] {
		t.Fatalf("expected counted view")
	}

	w = serve(t, http.MethodPost, "/products/{productId}/views", target, nil, enums.RoleBuyer, uuid.New(), ProductView(stubViews{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	w := serve(t, http.MethodGet, "/health/ready", "/health/ready", nil, "", uuid.Nil, HealthReady(cfg, nil, map[string]Pinger{"db": stubPinger{}, "redis": stubPinger{}}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}

	w = serve(t, http.MethodGet, "/health/ready", "/health/ready", nil, "", uuid.Nil, HealthReady(cfg, nil, map[string]Pinger{"redis": stubPinger{err: errors.New("dial tcp: refused")}}))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", w.Code)
	}
	if got := decodeError(t, w); got.Code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %s", got.Code)
	}
}
