package httpapi

import (
	"net/http"
	"strings"

	"tradegate/internal/coreerr"
)

func (s *Server) registerOrders() {
	s.mux.HandleFunc("/api/v1/orders/submit", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProposalID string `json:"proposal_id"`
			TokenID    string `json:"token_id"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		order, err := s.core.Submitter.Submit(r.Context(), req.ProposalID, req.TokenID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, order)
	})

	s.mux.HandleFunc("/api/v1/orders/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		brokerOrderID := strings.TrimPrefix(r.URL.Path, "/api/v1/orders/")
		brokerOrderID = strings.Trim(brokerOrderID, "/")
		if brokerOrderID == "" {
			http.NotFound(w, r)
			return
		}
		order, err := s.core.Broker.GetOrderStatus(r.Context(), brokerOrderID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	})
}
