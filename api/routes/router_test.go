package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/marketcore-backend/api/controllers"
	"github.com/angelmondragon/marketcore-backend/internal/cart"
	"github.com/angelmondragon/marketcore-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/marketcore-backend/pkg/auth"
	"github.com/angelmondragon/marketcore-backend/pkg/config"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
	"github.com/angelmondragon/marketcore-backend/pkg/metrics"
	"github.com/angelmondragon/marketcore-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct {
	cart.Service
}

func (stubCartService) GetActive(ctx context.Context, userID uuid.UUID) (*cart.CartView, error) {
	return &cart.CartView{}, nil
}

type stubOrdersService struct {
	orders.Service
}

func (stubOrdersService) ListMine(ctx context.Context, userID uuid.UUID, filters orders.ListFilters, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrdersService) ListMerchant(ctx context.Context, merchantID uuid.UUID, filters orders.ListFilters, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "marketcore", ExpirationMinutes: 30},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	metrics.NewOrderMetrics(reg).ObserveCheckout("cart", nil)
	router := NewRouter(
		cfg,
		nil,
		map[string]controllers.Pinger{"db": stubPinger{}, "redis": stubPinger{}},
		nil,
		reg,
		stubCartService{},
		nil,
		stubOrdersService{},
		nil,
	)
	return router, cfg
}

func bearer(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthRoutesArePublic(t *testing.T) {
	router, _ := newTestRouter(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if resp.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: request id header missing", path)
		}
	}
}

func TestMetricsEndpointExposesCheckoutCounter(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "marketcore_checkout_total") {
		t.Fatalf("checkout counter not exported")
	}
}

func TestAPIRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestBuyerRoutes(t *testing.T) {
	router, cfg := newTestRouter(t)
	token := bearer(t, cfg, enums.RoleBuyer)
	for _, path := range []string{"/api/v1/cart", "/api/v1/orders"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d: %s", path, resp.Code, resp.Body.String())
		}
	}
}

func TestMerchantRoutesRequireRole(t *testing.T) {
	router, cfg := newTestRouter(t)
	cases := map[enums.Role]int{
		enums.RoleBuyer:    http.StatusForbidden,
		enums.RoleMerchant: http.StatusOK,
		enums.RoleAdmin:    http.StatusOK,
	}
	for role, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/merchant/orders", nil)
		req.Header.Set("Authorization", bearer(t, cfg, role))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("%s: expected %d got %d", role, want, resp.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/checkout", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
