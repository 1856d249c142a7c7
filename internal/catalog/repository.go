package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shirtforge-backend/internal/inventory"
	"github.com/angelmondragon/shirtforge-backend/internal/repo"
	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

// Repository stores designer configurations in the relational database.
type Repository struct {
	repo.Base
	stock *inventory.Repository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db), stock: inventory.NewRepository(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx), stock: r.stock.WithTx(tx)}
}

// LoadStructure returns the configuration without stock levels.
func (r *Repository) LoadStructure(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error) {
	byPosition := func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

	var row models.DesignerProduct
	err := r.DB(ctx).
		Preload("Colors", byPosition).
		Preload("Sizes", byPosition).
		Preload("Methods", byPosition).
		Preload("Tiers", byPosition).
		First(&row, "product_id = ?", productID).Error
	if err != nil {
		return nil, repo.NotFound(err, pkgerrors.CodeMissingConfig, fmt.Sprintf("no designer configuration for product %s", productID))
	}
	cfg := toConfig(row)
	return &cfg, nil
}

// Levels returns current sellable stock for a product.
func (r *Repository) Levels(ctx context.Context, productID uuid.UUID) (map[pricing.ColorKey]map[string]int, error) {
	return r.stock.Levels(ctx, productID)
}

// GetConfig returns the configuration with live stock levels overlaid.
func (r *Repository) GetConfig(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error) {
	cfg, err := r.LoadStructure(ctx, productID)
	if err != nil {
		return nil, err
	}
	levels, err := r.stock.Levels(ctx, productID)
	if err != nil {
		return nil, err
	}
	cfg.Inventory = levels
	return cfg, nil
}

// SaveConfig replaces the stored configuration. Stock levels are replaced
// when cfg.Inventory is non-nil; otherwise only rows for pairs the new
// configuration no longer offers are removed. Callers wrap this in a transaction.
func (r *Repository) SaveConfig(ctx context.Context, productID uuid.UUID, cfg pricing.ProductDesignConfig) error {
	row := fromConfig(productID, cfg)
	db := r.DB(ctx)

	err := r.Upsert(ctx, &row, []string{"product_id"}, []string{"enabled", "product_type", "unit_price", "inventory_enabled", "updated_at"})
	if err != nil {
		return fmt.Errorf("upsert designer product: %w", err)
	}

	err = r.ReplaceChildren(ctx, "product_id", productID,
		&models.DesignerColor{},
		&models.DesignerSize{},
		&models.DesignerDecorationMethod{},
		&models.DesignerTier{},
	)
	if err != nil {
		return err
	}

	if len(row.Colors) > 0 {
		if err := db.Create(&row.Colors).Error; err != nil {
			return fmt.Errorf("insert colors: %w", err)
		}
	}
	if len(row.Sizes) > 0 {
		if err := db.Create(&row.Sizes).Error; err != nil {
			return fmt.Errorf("insert sizes: %w", err)
		}
	}
	if len(row.Methods) > 0 {
		if err := db.Create(&row.Methods).Error; err != nil {
			return fmt.Errorf("insert decoration methods: %w", err)
		}
	}
	if len(row.Tiers) > 0 {
		if err := db.Create(&row.Tiers).Error; err != nil {
			return fmt.Errorf("insert tiers: %w", err)
		}
	}

	if cfg.Inventory != nil {
		return r.stock.ReplaceLevels(ctx, productID, cfg.Inventory)
	}
	// stock for colors or sizes no longer offered would fail validation on load
	if _, err := r.stock.PruneLevels(ctx, productID, cfg.Offers); err != nil {
		return err
	}
	return nil
}
