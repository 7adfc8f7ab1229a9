package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"waiterserver/internal/filter"
)

func filterErr(err error) bool {
	return errors.Is(err, filter.ErrBad)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// project keeps only the requested fields of an object or array response.
func project(v any, fields []string) any {
	if len(fields) == 0 {
		return v
	}
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return v
	}
	switch t := raw.(type) {
	case []any:
		for i, e := range t {
			t[i] = pick(e, fields)
		}
		return t
	case map[string]any:
		return pick(t, fields)
	}
	return v
}

func pick(e any, fields []string) any {
	m, ok := e.(map[string]any)
	if !ok {
		return e
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := m[f]; ok {
			out[f] = v
		}
	}
	return out
}
