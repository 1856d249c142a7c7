package catalog

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/shirtforge-backend/pkg/db"
	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

func TestSaveAndLoadConfigRoundTrip(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()
	productID := uuid.New()

	saved, err := svc.SaveConfig(ctx, productID, sampleConfig())
	require.NoError(t, err)

	assert.Equal(t, productID.String(), saved.ProductID)
	require.Len(t, saved.Colors, 2)
	assert.Equal(t, pricing.ColorKey("#FFFFFF"), saved.Colors[0].Key, "color keys are canonicalized and order kept")
	assert.Equal(t, pricing.ColorKey("navy"), saved.Colors[1].Key)
	assert.Equal(t, []string{"S", "M", "L"}, saved.Sizes)
	assert.Equal(t, []string{"M", "L"}, saved.ColorSizes["navy"])
	assert.True(t, saved.UnitPrice.Equal(decimal.RequireFromString("10")))
	assert.True(t, saved.SetupFees["screen_printing"].Equal(decimal.RequireFromString("12.95")))
	_, hasDTGFee := saved.SetupFees["dtg"]
	assert.False(t, hasDTGFee, "method without fee stays absent from fee map")
	require.Len(t, saved.TierPricing, 2)
	assert.Equal(t, 100, saved.TierPricing[1].Min)
	assert.Equal(t, 7, saved.Inventory["#FFFFFF"]["M"])
	require.NoError(t, saved.Validate())
}

func TestSaveConfigReplacesChildren(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()
	productID := uuid.New()

	_, err := svc.SaveConfig(ctx, productID, sampleConfig())
	require.NoError(t, err)

	next := sampleConfig()
	next.Colors = next.Colors[:1]
	next.ColorSizes = nil
	next.TierPricing = nil
	next.Inventory = nil
	saved, err := svc.SaveConfig(ctx, productID, next)
	require.NoError(t, err)

	assert.Len(t, saved.Colors, 1)
	assert.Empty(t, saved.ColorSizes)
	assert.Empty(t, saved.TierPricing)
	assert.Equal(t, 7, saved.Inventory["#FFFFFF"]["M"], "nil inventory leaves stock untouched")
}

func TestSaveConfigRejectsInvalidConfiguration(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, nil)
	cfg := sampleConfig()
	cfg.SetupFees["screen_printing"] = decimal.NewFromInt(-1)
	cfg.Colors = append(cfg.Colors, pricing.ColorOption{Key: "#fff", DisplayName: "Dup"})
	cfg.Colors[2].Key = "#ffffff"

	_, err := svc.SaveConfig(context.Background(), uuid.New(), cfg)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	issues := typed.Details().(map[string]any)["issues"].([]string)
	assert.Len(t, issues, 2)
}

func TestSaveConfigRejectsUnparseableColor(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, nil)
	cfg := sampleConfig()
	cfg.Colors[0].Key = "#zz"

	_, err := svc.SaveConfig(context.Background(), uuid.New(), cfg)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMissingConfigFailsClosed(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, nil)
	_, err := svc.LoadForPricing(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeMissingConfig), "got %v", err)

	_, err = svc.GetConfig(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeMissingConfig), "got %v", err)
}

func TestLoadForPricingRejectsDisabledConfig(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()
	productID := uuid.New()
	cfg := sampleConfig()
	cfg.Enabled = false
	_, err := svc.SaveConfig(ctx, productID, cfg)
	require.NoError(t, err)

	_, err = svc.LoadForPricing(ctx, productID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	stored, err := svc.GetConfig(ctx, productID)
	require.NoError(t, err)
	assert.False(t, stored.Enabled)
}

func TestSaveConfigCanDisableExistingProduct(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()
	productID := uuid.New()
	_, err := svc.SaveConfig(ctx, productID, sampleConfig())
	require.NoError(t, err)
	_, err = svc.LoadForPricing(ctx, productID)
	require.NoError(t, err)

	next := sampleConfig()
	next.Enabled = false
	saved, err := svc.SaveConfig(ctx, productID, next)
	require.NoError(t, err)
	assert.False(t, saved.Enabled)

	_, err = svc.LoadForPricing(ctx, productID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
}

func TestSaveConfigDropsStockForRemovedColor(t *testing.T) {
	t.Parallel()

	svc, conn, _ := newTestService(t, nil)
	ctx := context.Background()
	productID := uuid.New()
	_, err := svc.SaveConfig(ctx, productID, sampleConfig())
	require.NoError(t, err)

	next := sampleConfig()
	next.Colors = next.Colors[1:]
	next.Inventory = nil
	_, err = svc.SaveConfig(ctx, productID, next)
	require.NoError(t, err)

	cfg, err := svc.LoadForPricing(ctx, productID)
	require.NoError(t, err)
	assert.Empty(t, cfg.Inventory["#FFFFFF"])

	var count int64
	require.NoError(t, conn.Model(&models.DesignInventory{}).Where("product_id = ?", productID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSaveConfigRejectsDuplicateInventoryKeys(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, nil)
	cfg := sampleConfig()
	cfg.Inventory = map[pricing.ColorKey]map[string]int{
		"#ffffff": {"M": 1},
		"#FFFFFF": {"M": 2},
	}
	_, err := svc.SaveConfig(context.Background(), uuid.New(), cfg)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestLoadForPricingRejectsInvalidStoredConfig(t *testing.T) {
	t.Parallel()

	svc, conn, _ := newTestService(t, nil)
	ctx := context.Background()
	productID := uuid.New()
	_, err := svc.SaveConfig(ctx, productID, sampleConfig())
	require.NoError(t, err)

	require.NoError(t, conn.Model(&models.DesignerTier{}).
		Where("product_id = ? AND position = ?", productID, 0).
		Update("discount_percent", decimal.NewFromInt(150)).Error)

	_, err = svc.LoadForPricing(ctx, productID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidConfiguration), "got %v", err)
}

func TestCachedRepositoryOverlaysFreshStock(t *testing.T) {
	t.Parallel()

	cache := newMemoryCache()
	svc, conn, _ := newTestService(t, cache)
	ctx := context.Background()
	productID := uuid.New()
	_, err := svc.SaveConfig(ctx, productID, sampleConfig())
	require.NoError(t, err)

	first, err := svc.LoadForPricing(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 7, first.Inventory["#FFFFFF"]["M"])
	assert.Equal(t, 1, cache.sets, "structure is cached after the first read")

	require.NoError(t, conn.Model(&models.DesignInventory{}).
		Where("product_id = ? AND color_key = ? AND size = ?", productID, "#FFFFFF", "M").
		Update("quantity", 2).Error)
	require.NoError(t, conn.Model(&models.DesignerProduct{}).
		Where("product_id = ?", productID).
		Update("unit_price", decimal.NewFromInt(99)).Error)

	second, err := svc.LoadForPricing(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Inventory["#FFFFFF"]["M"], "stock is read live")
	assert.True(t, second.UnitPrice.Equal(decimal.NewFromInt(10)), "structure served from cache")

	svc.Invalidate(ctx, productID)
	third, err := svc.LoadForPricing(ctx, productID)
	require.NoError(t, err)
	assert.True(t, third.UnitPrice.Equal(decimal.NewFromInt(99)))
}

func TestSaveConfigInvalidatesCache(t *testing.T) {
	t.Parallel()

	cache := newMemoryCache()
	svc, _, _ := newTestService(t, cache)
	ctx := context.Background()
	productID := uuid.New()
	_, err := svc.SaveConfig(ctx, productID, sampleConfig())
	require.NoError(t, err)

	cfg := sampleConfig()
	cfg.UnitPrice = decimal.NewFromInt(12)
	_, err = svc.SaveConfig(ctx, productID, cfg)
	require.NoError(t, err)

	loaded, err := svc.LoadForPricing(ctx, productID)
	require.NoError(t, err)
	assert.True(t, loaded.UnitPrice.Equal(decimal.NewFromInt(12)))
	assert.GreaterOrEqual(t, cache.dels, 2)
}

func TestTemplateIsNotStored(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, nil)
	productID := uuid.New()

	tpl := svc.Template(productID)
	assert.Equal(t, productID.String(), tpl.ProductID)
	assert.Len(t, tpl.DecorationMethods, 4)

	_, err := svc.LoadForPricing(context.Background(), productID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeMissingConfig))
}

func sampleConfig() pricing.ProductDesignConfig {
	return pricing.ProductDesignConfig{
		Enabled:     true,
		ProductType: enums.ProductTypeShirt,
		UnitPrice:   decimal.NewFromInt(10),
		Sizes:       []string{"S", " M ", "L"},
		Colors: []pricing.ColorOption{
			{Key: "#ffffff", DisplayName: "White"},
			{Key: "Navy", DisplayName: "Navy"},
		},
		ColorSizes:       map[pricing.ColorKey][]string{"navy": {"M", "L"}},
		InventoryEnabled: true,
		Inventory: map[pricing.ColorKey]map[string]int{
			"#FFFFFF": {"M": 7},
		},
		DecorationMethods: []pricing.DecorationMethod{
			{Key: "screen_printing", DisplayName: "Screen Printing"},
			{Key: "dtg", DisplayName: "DTG"},
		},
		SetupFees: map[string]decimal.Decimal{"screen_printing": decimal.RequireFromString("12.95")},
		TierPricing: []pricing.Tier{
			{Min: 50, Max: 99, DiscountPercent: decimal.NewFromInt(5)},
			{Min: 100, Max: 0, DiscountPercent: decimal.NewFromInt(10)},
		},
	}
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
	dels    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.entries[key] = string(v)
	case string:
		m.entries[key] = v
	}
	m.sets++
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.dels++
	return nil
}

func (m *memoryCache) CatalogKey(productID string) string {
	return "sf:catalog:" + productID
}

func newTestService(t *testing.T, cache cacheStore) (Service, *gorm.DB, *CachedRepository) {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.DesignerProduct{},
		&models.DesignerColor{},
		&models.DesignerSize{},
		&models.DesignerDecorationMethod{},
		&models.DesignerTier{},
		&models.DesignInventory{},
	))

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	store := NewCachedRepository(NewRepository(conn), cache, 5*time.Minute, logg)
	svc, err := NewService(store, db.NewFromConn(conn), logg)
	require.NoError(t, err)
	return svc, conn, store
}
