package designorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

// CatalogView is the shopper-facing slice of a product configuration.
type CatalogView struct {
	ProductID         string                              `json:"product_id"`
	ProductType       enums.ProductType                   `json:"product_type"`
	UnitPrice         decimal.Decimal                     `json:"unit_price"`
	Colors            []ColorView                         `json:"colors"`
	DecorationMethods []MethodView                        `json:"decoration_methods"`
	TierPricing       []pricing.Tier                      `json:"tier_pricing"`
	MinOrderQuantity  int                                 `json:"min_order_quantity"`
	InventoryEnabled  bool                                `json:"inventory_enabled"`
	Inventory         map[pricing.ColorKey]map[string]int `json:"inventory,omitempty"`
	Positions         []enums.PrintPosition               `json:"positions"`
}

// ColorView lists a color with the sizes it comes in.
type ColorView struct {
	Key         pricing.ColorKey `json:"key"`
	DisplayName string           `json:"display_name"`
	Sizes       []string         `json:"sizes"`
}

// MethodView is a decoration method with its fee line.
type MethodView struct {
	Key          string          `json:"key"`
	DisplayName  string          `json:"display_name"`
	SetupFee     decimal.Decimal `json:"setup_fee"`
	SetupFeeInfo string          `json:"setup_fee_info"`
}

// QuoteResult is the live preview for a selection.
type QuoteResult struct {
	Breakdown       pricing.PriceBreakdown   `json:"breakdown"`
	Validation      pricing.ValidationResult `json:"validation"`
	DisplayLines    []string                 `json:"display_lines"`
	SetupFeeInfo    string                   `json:"setup_fee_info"`
	NextTierMessage string                   `json:"next_tier_message,omitempty"`
}

// FinalizeInput is one cart line being turned into an order design.
type FinalizeInput struct {
	ProductID  uuid.UUID
	OrderRef   string
	LineRef    string
	Selection  string
	Composites map[enums.PrintPosition]string
}

// OrderDTO is a persisted order design.
type OrderDTO struct {
	ID               uuid.UUID               `json:"id"`
	OrderRef         string                  `json:"order_ref"`
	LineRef          string                  `json:"line_ref,omitempty"`
	ProductID        uuid.UUID               `json:"product_id"`
	Status           enums.DesignOrderStatus `json:"status"`
	DecorationMethod *string                 `json:"decoration_method,omitempty"`
	TotalQuantity    int                     `json:"total_quantity"`
	UnitPrice        decimal.Decimal         `json:"unit_price"`
	ProductTotal     decimal.Decimal         `json:"product_total"`
	SetupFeeTotal    decimal.Decimal         `json:"setup_fee_total"`
	DiscountPercent  decimal.Decimal         `json:"discount_percent"`
	DiscountAmount   decimal.Decimal         `json:"discount_amount"`
	FinalTotal       decimal.Decimal         `json:"final_total"`
	StockReserved    bool                    `json:"stock_reserved"`
	Lines            []OrderLineDTO          `json:"lines"`
	Positions        []OrderPositionDTO      `json:"positions"`
	Selection        string                  `json:"selection"`
	CreatedAt        time.Time               `json:"created_at"`
}

// OrderLineDTO is one color/size quantity.
type OrderLineDTO struct {
	ColorKey  string `json:"color_key"`
	ColorName string `json:"color_name"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// OrderPositionDTO is the artwork recorded for one print position.
type OrderPositionDTO struct {
	Position         enums.PrintPosition `json:"position"`
	AssetRef         string              `json:"asset_ref"`
	CompositeRef     *string             `json:"composite_ref,omitempty"`
	DecorationMethod *string             `json:"decoration_method,omitempty"`
	Placement        pricing.Placement   `json:"placement"`
}

func toOrderDTO(order models.DesignOrder) OrderDTO {
	dto := OrderDTO{
		ID:               order.ID,
		OrderRef:         order.OrderRef,
		LineRef:          order.LineRef,
		ProductID:        order.ProductID,
		Status:           order.Status,
		DecorationMethod: order.DecorationMethod,
		TotalQuantity:    order.TotalQuantity,
		UnitPrice:        order.UnitPrice,
		ProductTotal:     order.ProductTotal,
		SetupFeeTotal:    order.SetupFeeTotal,
		DiscountPercent:  order.DiscountPercent,
		DiscountAmount:   order.DiscountAmount,
		FinalTotal:       order.FinalTotal,
		StockReserved:    order.StockReserved,
		Selection:        order.Selection,
		CreatedAt:        order.CreatedAt,
		Lines:            make([]OrderLineDTO, 0, len(order.Lines)),
		Positions:        make([]OrderPositionDTO, 0, len(order.Positions)),
	}
	for _, l := range order.Lines {
		dto.Lines = append(dto.Lines, OrderLineDTO{ColorKey: l.ColorKey, ColorName: l.ColorName, Size: l.Size, Quantity: l.Quantity})
	}
	for _, p := range order.Positions {
		dto.Positions = append(dto.Positions, OrderPositionDTO{
			Position:         p.Position,
			AssetRef:         p.AssetRef,
			CompositeRef:     p.CompositeRef,
			DecorationMethod: p.DecorationMethod,
			Placement:        pricing.Placement{X: p.X, Y: p.Y, Scale: p.Scale, Rotation: p.Rotation},
		})
	}
	return dto
}
