package httpapi

import (
	"net/http"

	"tradegate/internal/contracts"
	"tradegate/internal/coreerr"
)

func (s *Server) registerCancelModify() {
	s.mux.HandleFunc("/api/v1/cancel/request", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BrokerOrderID string `json:"broker_order_id"`
			Reason        string `json:"reason"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		intent, err := s.core.CancelModify.RequestCancel(r.Context(), req.BrokerOrderID, req.Reason)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, intent)
	})

	s.mux.HandleFunc("/api/v1/cancel/grant", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MutationID string `json:"mutation_id"`
			Actor      string `json:"actor"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		intent, err := s.core.CancelModify.GrantCancel(r.Context(), req.MutationID, req.Actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, intent)
	})

	s.mux.HandleFunc("/api/v1/cancel/deny", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MutationID string `json:"mutation_id"`
			Reason     string `json:"reason"`
			Actor      string `json:"actor"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		intent, err := s.core.CancelModify.DenyCancel(r.Context(), req.MutationID, req.Reason, req.Actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, intent)
	})

	s.mux.HandleFunc("/api/v1/modify/request", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BrokerOrderID string  `json:"broker_order_id"`
			NewQuantity   *string `json:"new_quantity"`
			NewLimitPrice *string `json:"new_limit_price"`
			NewStopPrice  *string `json:"new_stop_price"`
			Reason        string  `json:"reason"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		newQty, err := parseOptionalDecimalPtr(req.NewQuantity)
		if err != nil {
			writeError(w, err)
			return
		}
		newLimit, err := parseOptionalDecimalPtr(req.NewLimitPrice)
		if err != nil {
			writeError(w, err)
			return
		}
		newStop, err := parseOptionalDecimalPtr(req.NewStopPrice)
		if err != nil {
			writeError(w, err)
			return
		}
		intent, err := s.core.CancelModify.RequestModify(r.Context(), req.BrokerOrderID, newQty, newLimit, newStop, req.Reason)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, intent)
	})

	s.mux.HandleFunc("/api/v1/modify/grant", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MutationID string                `json:"mutation_id"`
			Actor      string                `json:"actor"`
			Intent     contracts.OrderIntent `json:"intent"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		intent, err := s.core.CancelModify.GrantModify(r.Context(), req.MutationID, req.Actor, req.Intent)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, intent)
	})

	s.mux.HandleFunc("/api/v1/modify/deny", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MutationID string `json:"mutation_id"`
			Reason     string `json:"reason"`
			Actor      string `json:"actor"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		intent, err := s.core.CancelModify.DenyModify(r.Context(), req.MutationID, req.Reason, req.Actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, intent)
	})
}
