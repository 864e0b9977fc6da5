package httpapi

import (
	"net/http"
	"time"

	"tradegate/internal/contracts"
	"tradegate/internal/coreerr"
	"tradegate/internal/risk"
	"tradegate/internal/simulator"
)

// registerPipeline wires the propose -> simulate -> risk/evaluate ->
// proposals/create sequence. simulate reads the quote and portfolio from
// the broker and risk/evaluate reads the portfolio; propose and
// risk/evaluate write audit events; no proposal is stored until
// /proposals/create.
func (s *Server) registerPipeline() {
	s.mux.HandleFunc("/api/v1/propose", func(w http.ResponseWriter, r *http.Request) {
		var intent contracts.OrderIntent
		if err := decodeJSON(r, &intent); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		if err := intent.Validate(); err != nil {
			_, _ = s.core.Audit.Log(r.Context(), contracts.EventOrderValidationFailed, map[string]any{"error": err.Error()})
			writeError(w, err)
			return
		}
		intent.Instrument = intent.Instrument.Normalize()
		_, _ = s.core.Audit.Log(r.Context(), contracts.EventOrderProposed, map[string]any{"account_id": intent.AccountID, "symbol": intent.Instrument.Symbol})
		writeJSON(w, http.StatusOK, intent)
	})

	s.mux.HandleFunc("/api/v1/simulate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Intent      contracts.OrderIntent `json:"intent"`
			MarketPrice string                `json:"market_price"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		if err := req.Intent.Validate(); err != nil {
			writeError(w, err)
			return
		}
		snapshot, err := s.core.Broker.GetMarketSnapshot(r.Context(), req.Intent.Instrument)
		if err != nil {
			writeError(w, err)
			return
		}
		portfolio, err := s.core.Broker.GetPortfolio(r.Context(), req.Intent.AccountID)
		if err != nil {
			writeError(w, err)
			return
		}
		result := simulator.Simulate(portfolio, &snapshot, req.Intent, s.core.SimulatorConfig)
		writeJSON(w, http.StatusOK, result)
	})

	s.mux.HandleFunc("/api/v1/risk/evaluate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Intent         contracts.OrderIntent      `json:"intent"`
			Simulation     contracts.SimulationResult `json:"simulation"`
			PortfolioValue string                     `json:"portfolio_value"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		portfolio, err := s.core.Broker.GetPortfolio(r.Context(), req.Intent.AccountID)
		if err != nil {
			writeError(w, err)
			return
		}
		decision := s.core.RiskEvaluator.Evaluate(risk.Inputs{
			Intent:            req.Intent,
			Portfolio:         portfolio,
			Simulation:        req.Simulation,
			Now:               time.Now().UTC(),
			KillSwitchEnabled: s.core.KillSwitch.IsEnabled(),
		})
		_, _ = s.core.Audit.Log(r.Context(), contracts.EventRiskGateEvaluated, map[string]any{"decision": decision.Decision})
		writeJSON(w, http.StatusOK, decision)
	})

	s.mux.HandleFunc("/api/v1/proposals/create", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Intent       contracts.OrderIntent      `json:"intent"`
			Simulation   contracts.SimulationResult `json:"simulation"`
			RiskDecision contracts.RiskDecision     `json:"risk_decision"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, coreerr.Validationf("invalid request body: %v", err))
			return
		}
		if req.RiskDecision.Decision == contracts.RiskReject {
			writeError(w, coreerr.Policyf("proposal rejected by risk gate: %s", req.RiskDecision.Reason).WithRules(ruleStrings(req.RiskDecision.ViolatedRules)...))
			return
		}
		proposal, err := s.core.Approval.CreateWithEvaluation(r.Context(), req.Intent, req.Simulation, req.RiskDecision)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, proposal)
	})
}

func ruleStrings(rules []contracts.RuleID) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = string(r)
	}
	return out
}
