package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/eventbus"
	"github.com/sinharash/entitypick/internal/filter"
)

// RecordsHandler implements HTTP handlers for the record catalog.
type RecordsHandler struct {
	store catalog.Store
	bus   *eventbus.Bus
}

// NewRecordsHandler creates a RecordsHandler. The bus may be nil in
// tests; mutations then publish nothing.
func NewRecordsHandler(store catalog.Store, bus *eventbus.Bus) *RecordsHandler {
	return &RecordsHandler{store: store, bus: bus}
}

type queryRecordsRequest struct {
	Filter       []filter.Spec `json:"filter,omitempty"`
	AllowedKinds []string      `json:"allowedKinds,omitempty"`
}

type queryRecordsResponse struct {
	Records []catalog.Record `json:"records"`
	Count   int              `json:"count"`
}

// QueryRecords handles POST /v1/records/query.
func (h *RecordsHandler) QueryRecords(w http.ResponseWriter, r *http.Request) {
	var req queryRecordsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	q, err := filter.Build(req.Filter, req.AllowedKinds)
	if err != nil {
		errorToHTTP(w, err)
		return
	}

	records, err := h.store.FindRecords(r.Context(), q)
	if err != nil {
		errorToHTTP(w, err)
		return
	}

	p := parsePagination(r)
	total := len(records)
	if p.Offset < total {
		records = records[p.Offset:]
	} else {
		records = nil
	}
	if len(records) > p.Limit {
		records = records[:p.Limit]
	}

	writeJSON(w, http.StatusOK, queryRecordsResponse{Records: records, Count: total})
}

// GetRecord handles GET /v1/records/{ref}. The ref path parameter is
// the canonical kind:namespace/name identifier, URL-escaped.
func (h *RecordsHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REF", err.Error())
		return
	}
	ref, err := catalog.ParseRef(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REF", err.Error())
		return
	}

	rec, err := h.store.ResolveByRef(r.Context(), ref)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type upsertRecordsRequest struct {
	Records []catalog.Record `json:"records"`
}

// UpsertRecords handles POST /v1/records. On success a change event is
// published so dependent caches refresh.
func (h *RecordsHandler) UpsertRecords(w http.ResponseWriter, r *http.Request) {
	var req upsertRecordsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if len(req.Records) == 0 {
		writeError(w, http.StatusBadRequest, "EMPTY_BATCH", "no records to upsert")
		return
	}
	for _, rec := range req.Records {
		if err := rec.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_RECORD", err.Error())
			return
		}
	}

	if err := h.store.UpsertRecords(r.Context(), req.Records); err != nil {
		errorToHTTP(w, err)
		return
	}

	if h.bus != nil {
		kinds := map[string]bool{}
		var kindList []string
		for _, rec := range req.Records {
			if k := rec.Kind(); !kinds[k] {
				kinds[k] = true
				kindList = append(kindList, k)
			}
		}
		h.bus.Publish(r.Context(), eventbus.Event{
			ID:         uuid.New().String(),
			Type:       "records.upserted",
			Kinds:      kindList,
			Count:      len(req.Records),
			OccurredAt: time.Now(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": len(req.Records)})
}
