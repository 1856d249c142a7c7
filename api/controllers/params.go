package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
)

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

// selectionBytes accepts the selection either as a JSON object or as the
// JSON-encoded string the storefront keeps on its cart line.
func selectionBytes(raw json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selection is required")
	}
	if trimmed[0] != '"' {
		return trimmed, nil
	}
	var encoded string
	if err := json.Unmarshal(trimmed, &encoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid selection string")
	}
	if strings.TrimSpace(encoded) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selection is required")
	}
	return []byte(encoded), nil
}
