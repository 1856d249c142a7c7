package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shirtforge-backend/internal/repo"
	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

// Repository persists per-(product, color, size) stock.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// List returns every stock row for a product ordered by color and size.
func (r *Repository) List(ctx context.Context, productID uuid.UUID) ([]models.DesignInventory, error) {
	var rows []models.DesignInventory
	err := r.DB(ctx).
		Where("product_id = ?", productID).
		Order("color_key ASC").
		Order("size ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return rows, nil
}

// Levels returns sellable stock as a color -> size -> quantity map.
func (r *Repository) Levels(ctx context.Context, productID uuid.UUID) (map[pricing.ColorKey]map[string]int, error) {
	rows, err := r.List(ctx, productID)
	if err != nil {
		return nil, err
	}
	levels := make(map[pricing.ColorKey]map[string]int)
	for _, row := range rows {
		key := pricing.ColorKey(row.ColorKey)
		if levels[key] == nil {
			levels[key] = make(map[string]int)
		}
		levels[key][row.Size] = row.Quantity
	}
	return levels, nil
}

// ReplaceLevels upserts the given quantities and deletes rows absent from
// levels. Reserved counts on surviving rows are kept.
func (r *Repository) ReplaceLevels(ctx context.Context, productID uuid.UUID, levels map[pricing.ColorKey]map[string]int) error {
	now := time.Now().UTC()
	rows := make([]models.DesignInventory, 0)
	for color, bySize := range levels {
		for size, qty := range bySize {
			rows = append(rows, models.DesignInventory{
				ProductID: productID,
				ColorKey:  string(color),
				Size:      size,
				Quantity:  qty,
				UpdatedAt: now,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ColorKey != rows[j].ColorKey {
			return rows[i].ColorKey < rows[j].ColorKey
		}
		return rows[i].Size < rows[j].Size
	})

	if len(rows) > 0 {
		err := r.Upsert(ctx, &rows, []string{"product_id", "color_key", "size"}, []string{"quantity", "updated_at"})
		if err != nil {
			return fmt.Errorf("upsert inventory: %w", err)
		}
	}

	_, err := r.PruneLevels(ctx, productID, func(color pricing.ColorKey, size string) bool {
		_, ok := levels[color][size]
		return ok
	})
	return err
}

// PruneLevels deletes the stock rows keep rejects and returns how many went.
func (r *Repository) PruneLevels(ctx context.Context, productID uuid.UUID, keep func(pricing.ColorKey, string) bool) (int, error) {
	existing, err := r.List(ctx, productID)
	if err != nil {
		return 0, err
	}
	db := r.DB(ctx)
	removed := 0
	for _, row := range existing {
		if keep(pricing.ColorKey(row.ColorKey), row.Size) {
			continue
		}
		err := db.Where("product_id = ? AND color_key = ? AND size = ?", productID, row.ColorKey, row.Size).
			Delete(&models.DesignInventory{}).Error
		if err != nil {
			return removed, fmt.Errorf("delete inventory row: %w", err)
		}
		removed++
	}
	return removed, nil
}

// Decrement moves qty from sellable to reserved only when enough stock is
// left. It reports false when no row was updated.
func (r *Repository) Decrement(ctx context.Context, productID uuid.UUID, color pricing.ColorKey, size string, qty int) (bool, error) {
	res := r.DB(ctx).
		Model(&models.DesignInventory{}).
		Where("product_id = ? AND color_key = ? AND size = ? AND quantity >= ?", productID, string(color), size, qty).
		Updates(map[string]any{
			"quantity":          gorm.Expr("quantity - ?", qty),
			"reserved_quantity": gorm.Expr("reserved_quantity + ?", qty),
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("decrement inventory: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Available reads the current sellable quantity; a missing row is 0.
func (r *Repository) Available(ctx context.Context, productID uuid.UUID, color pricing.ColorKey, size string) (int, error) {
	var row models.DesignInventory
	err := r.DB(ctx).
		Where("product_id = ? AND color_key = ? AND size = ?", productID, string(color), size).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return 0, fmt.Errorf("read inventory: %w", err)
	}
	return row.Quantity, nil
}

// Restock adds qty to a row, creating it when missing.
func (r *Repository) Restock(ctx context.Context, productID uuid.UUID, color pricing.ColorKey, size string, qty int) (*models.DesignInventory, error) {
	row := models.DesignInventory{
		ProductID: productID,
		ColorKey:  string(color),
		Size:      size,
		Quantity:  qty,
		UpdatedAt: time.Now().UTC(),
	}
	db := r.DB(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "color_key"}, {Name: "size"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("design_inventory.quantity + ?", qty),
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("restock inventory: %w", err)
	}

	var out models.DesignInventory
	if err := db.Where("product_id = ? AND color_key = ? AND size = ?", productID, string(color), size).First(&out).Error; err != nil {
		return nil, fmt.Errorf("reload inventory: %w", err)
	}
	return &out, nil
}
