package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"waiterserver/internal/filter"
	"waiterserver/internal/stock"
)

type StockHandler struct {
	Store stock.Store
}

func (h *StockHandler) Register(r *chi.Mux) {
	r.Post("/stock-list", h.create)
	r.Get("/stock-list/count", h.count)
	r.Get("/stock-list", h.list)
	r.Get("/stock-list/{id}", h.get)
	r.Patch("/stock-list", h.updateAll)
	r.Patch("/stock-list/{id}", h.update)
	r.Put("/stock-list/{id}", h.replace)
	r.Delete("/stock-list/{id}", h.del)
}

func (h *StockHandler) create(w http.ResponseWriter, r *http.Request) {
	var req stock.NewStock
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Quantity < 0 {
		writeErr(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	created, err := h.Store.Create(ctx, req)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *StockHandler) count(w http.ResponseWriter, r *http.Request) {
	where, err := filter.ParseWhere(r.URL.Query().Get("where"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	n, err := h.Store.Count(ctx, where)
	if err != nil {
		h.storeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *StockHandler) list(w http.ResponseWriter, r *http.Request) {
	f, err := filter.Parse(r.URL.Query().Get("filter"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.Store.Find(ctx, f)
	if err != nil {
		h.storeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project(items, f.Fields))
}

func (h *StockHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	// The by-id filter only carries a field projection; where is excluded.
	f, err := filter.Parse(r.URL.Query().Get("filter"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(f.Where) > 0 {
		writeErr(w, http.StatusBadRequest, "where is not supported on a by-id lookup")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Store.FindByID(ctx, id)
	if err != nil {
		h.storeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project(s, f.Fields))
}

func (h *StockHandler) updateAll(w http.ResponseWriter, r *http.Request) {
	where, err := filter.ParseWhere(r.URL.Query().Get("where"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, ok := h.decodePatch(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	n, err := h.Store.UpdateAll(ctx, patch, where)
	if err != nil {
		h.storeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *StockHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	patch, ok := h.decodePatch(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.UpdateByID(ctx, id, patch); err != nil {
		h.storeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StockHandler) replace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req stock.NewStock
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Quantity < 0 {
		writeErr(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.ReplaceByID(ctx, id, req); err != nil {
		h.storeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StockHandler) del(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.DeleteByID(ctx, id); err != nil {
		h.storeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StockHandler) decodePatch(w http.ResponseWriter, r *http.Request) (stock.Patch, bool) {
	var p stock.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return stock.Patch{}, false
	}
	if p.Empty() {
		writeErr(w, http.StatusBadRequest, "empty patch")
		return stock.Patch{}, false
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		writeErr(w, http.StatusBadRequest, "quantity must not be negative")
		return stock.Patch{}, false
	}
	return p, true
}

func (h *StockHandler) storeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stock.ErrNotFound):
		writeErr(w, http.StatusNotFound, "stock item not found")
	case filterErr(err):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}
