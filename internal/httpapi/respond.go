package httpapi

import (
	"encoding/json"
	"net/http"

	"tradegate/internal/coreerr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

// writeError maps a coreerr.Kind to an HTTP status and writes a
// {"error": "..."} body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch coreerr.KindOf(err) {
	case coreerr.Validation:
		status = http.StatusBadRequest
	case coreerr.State:
		status = http.StatusConflict
	case coreerr.Policy:
		status = http.StatusForbidden
	case coreerr.Resource:
		status = http.StatusNotFound
	case coreerr.Concurrency:
		status = http.StatusConflict
	case coreerr.Internal:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
