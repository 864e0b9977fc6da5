package httpapi

import "net/http"

// registerFeatureFlags exposes the boolean toggles loaded at startup —
// auto-approval, read-only mode, strict validation — as a flat flag set.
func (s *Server) registerFeatureFlags() {
	s.mux.HandleFunc("/api/v1/feature-flags", func(w http.ResponseWriter, r *http.Request) {
		cfg := s.core.Config
		writeJSON(w, http.StatusOK, map[string]any{
			"auto_approval":     s.core.AutoApproval.Current().Enabled,
			"read_only_mode":    cfg.ReadOnlyMode,
			"strict_validation": cfg.StrictValidation,
		})
	})
}
