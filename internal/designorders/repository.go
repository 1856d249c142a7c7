package designorders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shirtforge-backend/internal/repo"
	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
)

// Repository persists finalized design orders.
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

// Create inserts the order together with its lines and positions. A second
// order for the same (order_ref, line_ref) is a CONFLICT.
func (r *Repository) Create(ctx context.Context, order *models.DesignOrder) error {
	err := r.DB(ctx).Create(order).Error
	if err == nil {
		return nil
	}
	if conflict := repo.Conflict(err, fmt.Sprintf("order %s line %q already has a design", order.OrderRef, order.LineRef)); conflict != err {
		return conflict
	}
	return fmt.Errorf("create design order: %w", err)
}

// FindByID loads an order with its lines and positions.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DesignOrder, error) {
	var order models.DesignOrder
	err := r.DB(ctx).
		Preload("Lines").
		Preload("Positions").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, repo.NotFound(err, pkgerrors.CodeNotFound, "design order not found")
	}
	return &order, nil
}

// ListByOrderRef returns every design line recorded for a storefront order.
func (r *Repository) ListByOrderRef(ctx context.Context, orderRef string) ([]models.DesignOrder, error) {
	var orders []models.DesignOrder
	err := r.DB(ctx).
		Preload("Lines").
		Preload("Positions").
		Where("order_ref = ?", orderRef).
		Order("line_ref ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list design orders: %w", err)
	}
	return orders, nil
}
