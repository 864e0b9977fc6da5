package httpapi

import (
	"net/http"

	"tradegate/internal/coreerr"
)

func (s *Server) registerKillSwitch() {
	s.mux.HandleFunc("/api/v1/kill-switch/activate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Reason string `json:"reason"`
			Actor  string `json:"actor"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		if err := s.core.KillSwitch.Activate(r.Context(), req.Reason, req.Actor); err != nil {
			writeError(w, err)
			return
		}
		writeKillSwitchStatus(w, s)
	})

	s.mux.HandleFunc("/api/v1/kill-switch/deactivate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Actor string `json:"actor"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		if err := s.core.KillSwitch.Release(r.Context(), req.Actor); err != nil {
			writeError(w, err)
			return
		}
		writeKillSwitchStatus(w, s)
	})

	s.mux.HandleFunc("/api/v1/kill-switch/status", func(w http.ResponseWriter, r *http.Request) {
		writeKillSwitchStatus(w, s)
	})
}

func writeKillSwitchStatus(w http.ResponseWriter, s *Server) {
	enabled, reason, actor := s.core.KillSwitch.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": enabled,
		"reason":  reason,
		"actor":   actor,
	})
}
