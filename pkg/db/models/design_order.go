package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
)

// DesignOrder is the order-level record of a finalized design: the priced
// breakdown plus the raw selection it was computed from.
type DesignOrder struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderRef         string                  `gorm:"column:order_ref;not null;uniqueIndex:idx_design_orders_order_line"`
	LineRef          string                  `gorm:"column:line_ref;not null;default:'';uniqueIndex:idx_design_orders_order_line"`
	ProductID        uuid.UUID               `gorm:"column:product_id;type:uuid;not null"`
	Status           enums.DesignOrderStatus `gorm:"column:status;not null"`
	Selection        string                  `gorm:"column:selection;type:text;not null"`
	DecorationMethod *string                 `gorm:"column:decoration_method"`
	TotalQuantity    int                     `gorm:"column:total_quantity;not null"`
	UnitPrice        decimal.Decimal         `gorm:"column:unit_price;type:numeric(12,2);not null"`
	ProductTotal     decimal.Decimal         `gorm:"column:product_total;type:numeric(12,2);not null"`
	SetupFeeTotal    decimal.Decimal         `gorm:"column:setup_fee_total;type:numeric(12,2);not null"`
	DiscountPercent  decimal.Decimal         `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	DiscountAmount   decimal.Decimal         `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	FinalTotal       decimal.Decimal         `gorm:"column:final_total;type:numeric(12,2);not null"`
	StockReserved    bool                    `gorm:"column:stock_reserved;not null;default:false"`
	Lines            []DesignOrderLine       `gorm:"foreignKey:DesignOrderID;constraint:OnDelete:CASCADE"`
	Positions        []DesignOrderPosition   `gorm:"foreignKey:DesignOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
}

// DesignOrderLine is one color/size quantity of a finalized design.
type DesignOrderLine struct {
	DesignOrderID uuid.UUID `gorm:"column:design_order_id;type:uuid;primaryKey"`
	ColorKey      string    `gorm:"column:color_key;primaryKey"`
	Size          string    `gorm:"column:size;primaryKey"`
	ColorName     string    `gorm:"column:color_name;not null"`
	Quantity      int       `gorm:"column:quantity;not null"`
}

// DesignOrderPosition stores the artwork and placement for one print position.
type DesignOrderPosition struct {
	DesignOrderID    uuid.UUID           `gorm:"column:design_order_id;type:uuid;primaryKey"`
	Position         enums.PrintPosition `gorm:"column:position;primaryKey"`
	AssetRef         string              `gorm:"column:asset_ref;type:text;not null;default:''"`
	CompositeRef     *string             `gorm:"column:composite_ref;type:text"`
	DecorationMethod *string             `gorm:"column:decoration_method"`
	X                float64             `gorm:"column:x;not null"`
	Y                float64             `gorm:"column:y;not null"`
	Scale            float64             `gorm:"column:scale;not null"`
	Rotation         float64             `gorm:"column:rotation;not null"`
}
