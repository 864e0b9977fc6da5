package httpapi

import "net/http"

// registerHealth mirrors internal/infra/http/handlers_health.go's
// {"ok": true} shape, extended to report each dependency's status:
// broker, audit, kill_switch (true while the kill switch is released).
func (s *Server) registerHealth() {
	s.mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		brokerOK := s.core.Broker.HealthCheck(r.Context()) == nil
		enabled, _, _ := s.core.KillSwitch.Status()
		writeJSON(w, http.StatusOK, map[string]any{
			"ok": brokerOK,
			"components": map[string]any{
				"broker":      brokerOK,
				"audit":       s.core.Audit != nil,
				"kill_switch": !enabled,
			},
		})
	})
}
