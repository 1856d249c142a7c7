package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shirtforge-backend/internal/designorders"
	"github.com/angelmondragon/shirtforge-backend/internal/inventory"
	"github.com/angelmondragon/shirtforge-backend/pkg/config"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type stubDesignService struct {
	quoteRaw      []byte
	finalizeInput designorders.FinalizeInput
	finalizeErr   error
	order         *designorders.OrderDTO
	listedRef     string
}

func (s *stubDesignService) Catalog(ctx context.Context, productID uuid.UUID) (*designorders.CatalogView, error) {
	return &designorders.CatalogView{ProductID: productID.String()}, nil
}

func (s *stubDesignService) Quote(ctx context.Context, productID uuid.UUID, raw []byte) (*designorders.QuoteResult, error) {
	s.quoteRaw = raw
	if _, err := pricing.ParseSelection(raw); err != nil {
		return nil, err
	}
	return &designorders.QuoteResult{
		Breakdown:  pricing.PriceBreakdown{FinalTotal: decimal.RequireFromString("1375.90")},
		Validation: pricing.ValidationResult{OK: true},
	}, nil
}

func (s *stubDesignService) Validate(ctx context.Context, productID uuid.UUID, raw []byte) (*pricing.ValidationResult, error) {
	return &pricing.ValidationResult{OK: false, Violations: []pricing.Violation{{Kind: enums.ViolationKindBelowMinimumQuantity}}}, nil
}

func (s *stubDesignService) Finalize(ctx context.Context, input designorders.FinalizeInput) (*designorders.OrderDTO, error) {
	s.finalizeInput = input
	if s.finalizeErr != nil {
		return nil, s.finalizeErr
	}
	return &designorders.OrderDTO{ID: uuid.New(), OrderRef: input.OrderRef, ProductID: input.ProductID}, nil
}

func (s *stubDesignService) GetOrder(ctx context.Context, orderID uuid.UUID) (*designorders.OrderDTO, error) {
	if s.order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design order not found")
	}
	return s.order, nil
}

func (s *stubDesignService) ListOrders(ctx context.Context, orderRef string) ([]designorders.OrderDTO, error) {
	if strings.TrimSpace(orderRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_ref is required")
	}
	s.listedRef = orderRef
	if s.order == nil {
		return []designorders.OrderDTO{}, nil
	}
	return []designorders.OrderDTO{*s.order}, nil
}

func (s *stubDesignService) AdjustPlacement(current *pricing.Placement, edit pricing.PlacementEdit) (pricing.Placement, error) {
	base := pricing.DefaultPlacement()
	if current != nil {
		base = *current
	}
	next, err := base.Apply(edit)
	if err != nil {
		return base, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid placement operation")
	}
	return next, nil
}

const selectionJSON = `{"colors":["white"],"quantities":{"white":{"M":150}},"decoration_method":"screen_printing","positions":["front","back"]}`

func TestDesignerQuoteAcceptsObjectAndString(t *testing.T) {
	productID := uuid.New()
	encoded, err := json.Marshal(selectionJSON)
	require.NoError(t, err)

	bodies := map[string]string{
		"object": `{"selection":` + selectionJSON + `}`,
		"string": `{"selection":` + string(encoded) + `}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			svc := &stubDesignService{}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			req = withURLParams(req, map[string]string{"productID": productID.String()})
			rec := httptest.NewRecorder()
			DesignerQuote(svc, testLogger()).ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.JSONEq(t, selectionJSON, string(svc.quoteRaw))
			assert.Contains(t, rec.Body.String(), `"final_total":"1375.9"`)
		})
	}
}

func TestDesignerQuoteRejectsMissingSelection(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"selection":""}`))
	req = withURLParams(req, map[string]string{"productID": uuid.NewString()})
	rec := httptest.NewRecorder()
	DesignerQuote(&stubDesignService{}, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDesignerQuoteRejectsBadProductID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"selection":{}}`))
	req = withURLParams(req, map[string]string{"productID": "shirt-1"})
	rec := httptest.NewRecorder()
	DesignerQuote(&stubDesignService{}, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDesignerValidateReturnsViolations(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"selection":`+selectionJSON+`}`))
	req = withURLParams(req, map[string]string{"productID": uuid.NewString()})
	rec := httptest.NewRecorder()
	DesignerValidate(&stubDesignService{}, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), string(enums.ViolationKindBelowMinimumQuantity))
}

func TestDesignerPlacement(t *testing.T) {
	body := `{"current":{"x":50,"y":50,"scale":1,"rotation":0},"edit":{"op":"move","dx":5,"dy":-5}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	DesignerPlacement(&stubDesignService{}, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var placement pricing.Placement
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &placement))
	assert.Equal(t, 55.0, placement.X)
	assert.Equal(t, 45.0, placement.Y)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"edit":{"op":"spin"}}`))
	rec = httptest.NewRecorder()
	DesignerPlacement(&stubDesignService{}, testLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFinalizeDesignOrder(t *testing.T) {
	productID := uuid.New()
	body := `{"product_id":"` + productID.String() + `","order_ref":" wc-1001 ","line_ref":"7",` +
		`"selection":` + selectionJSON + `,"composites":{"Front":"https://cdn.example.com/front.png"}}`

	svc := &stubDesignService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/design-orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	FinalizeDesignOrder(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, productID, svc.finalizeInput.ProductID)
	assert.Equal(t, "wc-1001", svc.finalizeInput.OrderRef)
	assert.Equal(t, "7", svc.finalizeInput.LineRef)
	assert.Equal(t, "https://cdn.example.com/front.png", svc.finalizeInput.Composites[enums.PrintPositionFront])
	assert.JSONEq(t, selectionJSON, svc.finalizeInput.Selection)
}

func TestFinalizeDesignOrderValidation(t *testing.T) {
	cases := map[string]string{
		"missing order ref": `{"product_id":"` + uuid.NewString() + `","selection":{}}`,
		"bad product id":    `{"product_id":"abc","order_ref":"wc-1","selection":{}}`,
		"bad position":      `{"product_id":"` + uuid.NewString() + `","order_ref":"wc-1","selection":{},"composites":{"sleeve":"x.png"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubDesignService{}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/design-orders", strings.NewReader(body))
			rec := httptest.NewRecorder()
			FinalizeDesignOrder(svc, testLogger()).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.finalizeInput.OrderRef)
		})
	}
}

func TestFinalizeDesignOrderSurfacesViolations(t *testing.T) {
	svc := &stubDesignService{
		finalizeErr: pkgerrors.New(pkgerrors.CodeStateConflict, "design selection cannot be ordered").
			WithDetails(map[string]any{"violations": []string{"insufficient_stock"}}),
	}
	body := `{"product_id":"` + uuid.NewString() + `","order_ref":"wc-1","selection":{}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/design-orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	FinalizeDesignOrder(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), env.Error.Code)
	assert.Contains(t, env.Error.Details, "violations")
}

func TestGetDesignOrder(t *testing.T) {
	orderID := uuid.New()

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"orderID": orderID.String()})
	rec := httptest.NewRecorder()
	GetDesignOrder(&stubDesignService{}, testLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc := &stubDesignService{order: &designorders.OrderDTO{ID: orderID, OrderRef: "wc-1"}}
	rec = httptest.NewRecorder()
	GetDesignOrder(svc, testLogger()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), orderID.String())
}

func TestListDesignOrders(t *testing.T) {
	rec := httptest.NewRecorder()
	ListDesignOrders(&stubDesignService{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	orderID := uuid.New()
	svc := &stubDesignService{order: &designorders.OrderDTO{ID: orderID, OrderRef: "WC-7"}}
	rec = httptest.NewRecorder()
	ListDesignOrders(svc, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?order_ref=WC-7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "WC-7", svc.listedRef)

	var orders []designorders.OrderDTO
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0].ID)
}

type stubCatalogService struct {
	saved pricing.ProductDesignConfig
}

func (s *stubCatalogService) GetConfig(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error) {
	return nil, pkgerrors.New(pkgerrors.CodeMissingConfig, "no designer configuration for product")
}

func (s *stubCatalogService) LoadForPricing(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error) {
	return s.GetConfig(ctx, productID)
}

func (s *stubCatalogService) SaveConfig(ctx context.Context, productID uuid.UUID, cfg pricing.ProductDesignConfig) (*pricing.ProductDesignConfig, error) {
	s.saved = cfg
	return &cfg, nil
}

func (s *stubCatalogService) Template(productID uuid.UUID) pricing.ProductDesignConfig {
	return pricing.DefaultConfigTemplate(productID.String())
}

func (s *stubCatalogService) Invalidate(ctx context.Context, productID uuid.UUID) {}

func TestAdminSaveConfigUsesPathProductID(t *testing.T) {
	productID := uuid.New()
	body := `{"product_id":"other","enabled":true,"product_type":"shirt","unit_price":"10.00","sizes":["S","M"],` +
		`"colors":[{"key":"white","display_name":"White"}],"inventory_enabled":false,` +
		`"decoration_methods":[{"key":"screen_printing","display_name":"Screen Printing"}],` +
		`"setup_fees":{"screen_printing":"12.95"},"tier_pricing":[]}`

	svc := &stubCatalogService{}
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req = withURLParams(req, map[string]string{"productID": productID.String()})
	rec := httptest.NewRecorder()
	AdminSaveConfig(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, productID.String(), svc.saved.ProductID)
	assert.True(t, svc.saved.SetupFees["screen_printing"].Equal(decimal.RequireFromString("12.95")))
}

func TestAdminGetConfigMissing(t *testing.T) {
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"productID": uuid.NewString()})
	rec := httptest.NewRecorder()
	AdminGetConfig(&stubCatalogService{}, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeMissingConfig), decodeEnvelope(t, rec).Error.Code)
}

func TestAdminConfigTemplate(t *testing.T) {
	productID := uuid.New()
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"productID": productID.String()})
	rec := httptest.NewRecorder()
	AdminConfigTemplate(&stubCatalogService{}, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), productID.String())
}

type stubInventoryService struct {
	restock inventory.RestockInput
}

func (s *stubInventoryService) ListLevels(ctx context.Context, productID uuid.UUID) ([]inventory.LevelDTO, error) {
	return []inventory.LevelDTO{{ColorKey: "white", Size: "M", Quantity: 100}}, nil
}

func (s *stubInventoryService) ReplaceLevels(ctx context.Context, productID uuid.UUID, input inventory.ReplaceLevelsInput) ([]inventory.LevelDTO, error) {
	if len(input.Levels) == 0 {
		return nil, errors.New("unexpected empty levels")
	}
	return []inventory.LevelDTO{}, nil
}

func (s *stubInventoryService) Restock(ctx context.Context, productID uuid.UUID, input inventory.RestockInput) (*inventory.LevelDTO, error) {
	s.restock = input
	return &inventory.LevelDTO{ColorKey: input.ColorKey, Size: input.Size, Quantity: input.Quantity}, nil
}

func TestAdminRestock(t *testing.T) {
	productID := uuid.New()

	svc := &stubInventoryService{}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"color_key":"white","size":"M","quantity":25}`))
	req = withURLParams(req, map[string]string{"productID": productID.String()})
	rec := httptest.NewRecorder()
	AdminRestock(svc, testLogger()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, svc.restock.Quantity)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"color_key":"white","size":"M","quantity":0}`))
	req = withURLParams(req, map[string]string{"productID": productID.String()})
	rec = httptest.NewRecorder()
	AdminRestock(&stubInventoryService{}, testLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminReplaceAndListInventory(t *testing.T) {
	productID := uuid.New()
	params := map[string]string{"productID": productID.String()}

	req := withURLParams(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"levels":{"white":{"M":10}}}`)), params)
	rec := httptest.NewRecorder()
	AdminReplaceInventory(&stubInventoryService{}, testLogger()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), params)
	rec = httptest.NewRecorder()
	AdminListInventory(&stubInventoryService{}, testLogger()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quantity":100`)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, testLogger(), stubPinger{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"disabled"`)

	rec = httptest.NewRecorder()
	HealthReady(cfg, testLogger(), stubPinger{}, stubPinger{err: errors.New("down")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "test", rec.Header().Get("X-ShirtForge-Env"))
}
