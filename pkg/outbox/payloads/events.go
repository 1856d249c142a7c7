package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
)

// DesignOrderFinalizedEvent announces a design order recorded at checkout so
// production and fulfilment systems can pick up the artwork.
type DesignOrderFinalizedEvent struct {
	DesignOrderID    uuid.UUID                  `json:"design_order_id"`
	OrderRef         string                     `json:"order_ref"`
	LineRef          string                     `json:"line_ref,omitempty"`
	ProductID        uuid.UUID                  `json:"product_id"`
	DecorationMethod *string                    `json:"decoration_method,omitempty"`
	TotalQuantity    int                        `json:"total_quantity"`
	FinalTotal       decimal.Decimal            `json:"final_total"`
	StockReserved    bool                       `json:"stock_reserved"`
	Lines            []DesignOrderLine          `json:"lines"`
	Positions        []DesignOrderPositionEvent `json:"positions"`
}

// DesignOrderLine is one color/size quantity.
type DesignOrderLine struct {
	ColorKey  string `json:"color_key"`
	ColorName string `json:"color_name"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// DesignOrderPositionEvent references the artwork printed at one position.
// Inline data URIs are not forwarded; consumers fetch them from the order.
type DesignOrderPositionEvent struct {
	Position         enums.PrintPosition `json:"position"`
	AssetRef         string              `json:"asset_ref,omitempty"`
	CompositeRef     string              `json:"composite_ref,omitempty"`
	DecorationMethod *string             `json:"decoration_method,omitempty"`
	InlineAsset      bool                `json:"inline_asset,omitempty"`
}
