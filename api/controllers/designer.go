package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/shirtforge-backend/api/responses"
	"github.com/angelmondragon/shirtforge-backend/api/validators"
	"github.com/angelmondragon/shirtforge-backend/internal/designorders"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

type selectionRequest struct {
	Selection json.RawMessage `json:"selection" validate:"required"`
}

type placementRequest struct {
	Current *pricing.Placement    `json:"current,omitempty"`
	Edit    pricing.PlacementEdit `json:"edit"`
}

// DesignerCatalog returns the options the designer renders for a product.
func DesignerCatalog(svc designorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "designer service unavailable"))
			return
		}
		productID, err := uuidParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Catalog(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// DesignerQuote prices a selection for the live preview. Violations are part
// of a successful response; only malformed input or a broken configuration
// is an error.
func DesignerQuote(svc designorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "designer service unavailable"))
			return
		}
		productID, raw, err := decodeSelection(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), productID, raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// DesignerValidate runs the add-to-cart gate and reports every violation.
func DesignerValidate(svc designorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "designer service unavailable"))
			return
		}
		productID, raw, err := decodeSelection(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), productID, raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func DesignerPlacement(svc designorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "designer service unavailable"))
			return
		}
		var payload placementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next, err := svc.AdjustPlacement(payload.Current, payload.Edit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, next)
	}
}

func decodeSelection(r *http.Request) (uuid.UUID, []byte, error) {
	id, err := uuidParam(r, "productID")
	if err != nil {
		return id, nil, err
	}
	var payload selectionRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return id, nil, err
	}
	raw, err := selectionBytes(payload.Selection)
	return id, raw, err
}
