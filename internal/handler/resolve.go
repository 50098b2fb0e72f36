package handler

import (
	"net/http"

	"github.com/sinharash/entitypick/internal/filter"
	"github.com/sinharash/entitypick/internal/resolve"
)

// ResolveHandler exposes the decode action over HTTP. It runs in a
// pipeline context: errors propagate as HTTP errors instead of being
// softened into view state.
type ResolveHandler struct {
	resolver *resolve.Resolver
}

// NewResolveHandler creates a ResolveHandler.
func NewResolveHandler(resolver *resolve.Resolver) *ResolveHandler {
	return &ResolveHandler{resolver: resolver}
}

type resolveRequest struct {
	DisplayValue string        `json:"displayValue"`
	Filter       []filter.Spec `json:"filter"`
	Template     string        `json:"template,omitempty"`
	Namespace    string        `json:"namespace,omitempty"`
}

// Resolve handles POST /v1/resolve.
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.DisplayValue == "" {
		writeError(w, http.StatusBadRequest, "EMPTY_VALUE", "displayValue is required")
		return
	}

	res, err := h.resolver.ResolveFromDisplay(r.Context(), resolve.Input{
		DisplayValue: req.DisplayValue,
		Filter:       req.Filter,
		Template:     req.Template,
		Namespace:    req.Namespace,
	})
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
