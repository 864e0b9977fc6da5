package httpapi

import (
	"net/http"
	"strconv"

	"tradegate/internal/coreerr"
)

func (s *Server) registerApproval() {
	s.mux.HandleFunc("/api/v1/approval/request", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProposalID string `json:"proposal_id"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		proposal, token, err := s.core.Approval.Request(r.Context(), req.ProposalID)
		if err != nil {
			writeError(w, err)
			return
		}
		resp := map[string]any{"proposal": proposal}
		if token != nil {
			resp["token_id"] = token.TokenID
			resp["expires_at"] = token.ExpiresAt
		}
		writeJSON(w, http.StatusOK, resp)
	})

	s.mux.HandleFunc("/api/v1/approval/grant", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProposalID string `json:"proposal_id"`
			Reason     string `json:"reason"`
			Actor      string `json:"actor"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		proposal, token, err := s.core.Approval.Grant(r.Context(), req.ProposalID, req.Reason, req.Actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"proposal":   proposal,
			"token_id":   token.TokenID,
			"expires_at": token.ExpiresAt,
		})
	})

	s.mux.HandleFunc("/api/v1/approval/deny", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProposalID string `json:"proposal_id"`
			Reason     string `json:"reason"`
			Actor      string `json:"actor"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		proposal, err := s.core.Approval.Deny(r.Context(), req.ProposalID, req.Reason, req.Actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, proposal)
	})

	s.mux.HandleFunc("/api/v1/approval/pending", func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, coreerr.Validationf("limit must be a positive integer"))
				return
			}
			limit = n
		}
		writeJSON(w, http.StatusOK, s.core.Approval.Pending(r.Context(), limit))
	})
}
