package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
)

// DesignerProduct is the root row of a product's designer configuration.
type DesignerProduct struct {
	ProductID        uuid.UUID                  `gorm:"column:product_id;type:uuid;primaryKey"`
	Enabled          bool                       `gorm:"column:enabled;not null"`
	ProductType      enums.ProductType          `gorm:"column:product_type;not null"`
	UnitPrice        decimal.Decimal            `gorm:"column:unit_price;type:numeric(12,2);not null"`
	InventoryEnabled bool                       `gorm:"column:inventory_enabled;not null;default:false"`
	Colors           []DesignerColor            `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Sizes            []DesignerSize             `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Methods          []DesignerDecorationMethod `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Tiers            []DesignerTier             `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

// DesignerColor is one selectable color, ordered by Position.
type DesignerColor struct {
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	ColorKey    string    `gorm:"column:color_key;primaryKey"`
	DisplayName string    `gorm:"column:display_name;not null"`
	Position    int       `gorm:"column:position;not null"`
}

// DesignerSize lists a size offered for a color. An empty ColorKey marks the
// product-wide default size run.
type DesignerSize struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	ColorKey  string    `gorm:"column:color_key;primaryKey"`
	Size      string    `gorm:"column:size;primaryKey"`
	Position  int       `gorm:"column:position;not null"`
}

// DesignerDecorationMethod is a printing technique and its per-position setup fee.
type DesignerDecorationMethod struct {
	ProductID   uuid.UUID           `gorm:"column:product_id;type:uuid;primaryKey"`
	MethodKey   string              `gorm:"column:method_key;primaryKey"`
	DisplayName string              `gorm:"column:display_name;not null"`
	SetupFee    decimal.NullDecimal `gorm:"column:setup_fee;type:numeric(12,2)"`
	Position    int                 `gorm:"column:position;not null"`
}

// DesignerTier is one volume discount range. MaxQty of 0 is unbounded.
type DesignerTier struct {
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;primaryKey"`
	Position        int             `gorm:"column:position;primaryKey"`
	MinQty          int             `gorm:"column:min_qty;not null"`
	MaxQty          int             `gorm:"column:max_qty;not null;default:0"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null"`
}
