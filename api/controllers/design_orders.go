package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/shirtforge-backend/api/responses"
	"github.com/angelmondragon/shirtforge-backend/api/validators"
	"github.com/angelmondragon/shirtforge-backend/internal/designorders"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
)

const maxRefLength = 128

type finalizeRequest struct {
	ProductID  string            `json:"product_id" validate:"required,uuid"`
	OrderRef   string            `json:"order_ref" validate:"required,max=128"`
	LineRef    string            `json:"line_ref" validate:"max=128"`
	Selection  json.RawMessage   `json:"selection" validate:"required"`
	Composites map[string]string `json:"composites,omitempty"`
}

func (p finalizeRequest) toInput() (designorders.FinalizeInput, error) {
	productID, err := uuid.Parse(p.ProductID)
	if err != nil {
		return designorders.FinalizeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
	}
	raw, err := selectionBytes(p.Selection)
	if err != nil {
		return designorders.FinalizeInput{}, err
	}

	var composites map[enums.PrintPosition]string
	if len(p.Composites) > 0 {
		composites = make(map[enums.PrintPosition]string, len(p.Composites))
		for key, ref := range p.Composites {
			pos, err := enums.ParsePrintPosition(strings.ToLower(strings.TrimSpace(key)))
			if err != nil {
				return designorders.FinalizeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid composite position")
			}
			composites[pos] = ref
		}
	}

	return designorders.FinalizeInput{
		ProductID:  productID,
		OrderRef:   validators.SanitizeString(p.OrderRef, maxRefLength),
		LineRef:    validators.SanitizeString(p.LineRef, maxRefLength),
		Selection:  string(raw),
		Composites: composites,
	}, nil
}

// FinalizeDesignOrder re-validates and re-prices a cart line when the order
// is placed, reserves stock and stores the design with the order.
func FinalizeDesignOrder(svc designorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "design order service unavailable"))
			return
		}

		var payload finalizeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderRef(ctx, input.OrderRef)
		}

		order, err := svc.Finalize(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListDesignOrders returns the designed lines recorded for ?order_ref=.
func ListDesignOrders(svc designorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "design order service unavailable"))
			return
		}
		orderRef := r.URL.Query().Get("order_ref")
		ctx := r.Context()
		if logg != nil && orderRef != "" {
			ctx = logg.WithOrderRef(ctx, orderRef)
		}

		orders, err := svc.ListOrders(ctx, orderRef)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func GetDesignOrder(svc designorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "design order service unavailable"))
			return
		}
		orderID, err := uuidParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
