package models

import (
	"time"

	"github.com/google/uuid"
)

// DesignInventory tracks stock per (product, color, size). Quantity is what
// can still be sold; ReservedQuantity counts units committed by finalized orders.
type DesignInventory struct {
	ProductID        uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	ColorKey         string    `gorm:"column:color_key;primaryKey"`
	Size             string    `gorm:"column:size;primaryKey"`
	Quantity         int       `gorm:"column:quantity;not null;default:0"`
	ReservedQuantity int       `gorm:"column:reserved_quantity;not null;default:0"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (DesignInventory) TableName() string {
	return "design_inventory"
}
