package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shirtforge-backend/internal/designorders"
	"github.com/angelmondragon/shirtforge-backend/internal/inventory"
	"github.com/angelmondragon/shirtforge-backend/pkg/auth"
	"github.com/angelmondragon/shirtforge-backend/pkg/config"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
	"github.com/angelmondragon/shirtforge-backend/pkg/metrics"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubDesignService struct{}

func (stubDesignService) Catalog(ctx context.Context, productID uuid.UUID) (*designorders.CatalogView, error) {
	return &designorders.CatalogView{ProductID: productID.String()}, nil
}

func (stubDesignService) Quote(ctx context.Context, productID uuid.UUID, raw []byte) (*designorders.QuoteResult, error) {
	return &designorders.QuoteResult{}, nil
}

func (stubDesignService) Validate(ctx context.Context, productID uuid.UUID, raw []byte) (*pricing.ValidationResult, error) {
	return &pricing.ValidationResult{OK: true}, nil
}

func (stubDesignService) Finalize(ctx context.Context, input designorders.FinalizeInput) (*designorders.OrderDTO, error) {
	return &designorders.OrderDTO{ID: uuid.New(), OrderRef: input.OrderRef}, nil
}

func (stubDesignService) GetOrder(ctx context.Context, orderID uuid.UUID) (*designorders.OrderDTO, error) {
	return &designorders.OrderDTO{ID: orderID}, nil
}

func (stubDesignService) ListOrders(ctx context.Context, orderRef string) ([]designorders.OrderDTO, error) {
	return []designorders.OrderDTO{{ID: uuid.New(), OrderRef: orderRef}}, nil
}

func (stubDesignService) AdjustPlacement(current *pricing.Placement, edit pricing.PlacementEdit) (pricing.Placement, error) {
	return pricing.DefaultPlacement(), nil
}

type stubCatalogService struct{}

func (stubCatalogService) GetConfig(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error) {
	cfg := pricing.DefaultConfigTemplate(productID.String())
	return &cfg, nil
}

func (s stubCatalogService) LoadForPricing(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error) {
	return s.GetConfig(ctx, productID)
}

func (stubCatalogService) SaveConfig(ctx context.Context, productID uuid.UUID, cfg pricing.ProductDesignConfig) (*pricing.ProductDesignConfig, error) {
	return &cfg, nil
}

func (stubCatalogService) Template(productID uuid.UUID) pricing.ProductDesignConfig {
	return pricing.DefaultConfigTemplate(productID.String())
}

func (stubCatalogService) Invalidate(ctx context.Context, productID uuid.UUID) {}

type stubInventoryService struct{}

func (stubInventoryService) ListLevels(ctx context.Context, productID uuid.UUID) ([]inventory.LevelDTO, error) {
	return []inventory.LevelDTO{}, nil
}

func (stubInventoryService) ReplaceLevels(ctx context.Context, productID uuid.UUID, input inventory.ReplaceLevelsInput) ([]inventory.LevelDTO, error) {
	return []inventory.LevelDTO{}, nil
}

func (stubInventoryService) Restock(ctx context.Context, productID uuid.UUID, input inventory.RestockInput) (*inventory.LevelDTO, error) {
	return &inventory.LevelDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"https://shop.example.com"}},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "shirtforge", ExpirationMinutes: 10},
		RateLimit: config.RateLimitConfig{
			Window:        time.Minute,
			QuotePerIP:    100,
			FinalizePerIP: 10,
		},
		Idempotency: config.IdempotencyConfig{FinalizeTTL: 168 * time.Hour},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.NewDesignerMetrics(reg).Observe("quote", metrics.OutcomeOK, time.Millisecond)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		nil,
		stubDesignService{},
		stubCatalogService{},
		stubInventoryService{},
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)
}

func staffToken(t *testing.T, role enums.StaffRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(testConfig().JWT, time.Now(), auth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "designer_operations_total") {
		t.Fatalf("expected designer metrics in exposition")
	}
}

func TestPublicDesignerRoutes(t *testing.T) {
	router := newTestRouter(t)
	productID := uuid.NewString()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/designer/products/"+productID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog: expected 200 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/designer/products/"+productID+"/quote", strings.NewReader(`{"selection":{}}`))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("quote: expected 200 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	body := `{"product_id":"` + productID + `","order_ref":"wc-1","selection":{}}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/design-orders", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("finalize: expected 201 got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)
	path := "/api/v1/admin/products/" + uuid.NewString() + "/config"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+staffToken(t, enums.StaffRoleViewer))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("viewer read: expected 200 got %d", rec.Code)
	}
}

func TestAdminWritesRequireEditor(t *testing.T) {
	router := newTestRouter(t)
	path := "/api/v1/admin/products/" + uuid.NewString() + "/inventory/restock"
	body := `{"color_key":"white","size":"M","quantity":5}`

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+staffToken(t, enums.StaffRoleViewer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer write: expected 403 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+staffToken(t, enums.StaffRoleCatalogManager))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("manager write: expected 200 got %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
