package httpapi

import (
	"net/http"
	"strconv"

	"tradegate/internal/broker"
	"tradegate/internal/contracts"
	"tradegate/internal/coreerr"
)

func (s *Server) registerPortfolio() {
	s.mux.HandleFunc("/api/v1/portfolio", func(w http.ResponseWriter, r *http.Request) {
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			writeError(w, coreerr.Validationf("account_id is required"))
			return
		}
		portfolio, err := s.core.Broker.GetPortfolio(r.Context(), accountID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, portfolio)
	})

	s.mux.HandleFunc("/api/v1/positions", func(w http.ResponseWriter, r *http.Request) {
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			writeError(w, coreerr.Validationf("account_id is required"))
			return
		}
		positions, err := s.core.Broker.GetPositions(r.Context(), accountID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, positions)
	})
}

func (s *Server) registerMarket() {
	s.mux.HandleFunc("/api/v1/market/snapshot", func(w http.ResponseWriter, r *http.Request) {
		instrument, err := instrumentFromQuery(r)
		if err != nil {
			writeError(w, err)
			return
		}
		snapshot, err := s.core.Broker.GetMarketSnapshot(r.Context(), instrument)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	})

	s.mux.HandleFunc("/api/v1/market/bars", func(w http.ResponseWriter, r *http.Request) {
		instrument, err := instrumentFromQuery(r)
		if err != nil {
			writeError(w, err)
			return
		}
		q := r.URL.Query()
		limit, err := strconv.Atoi(q.Get("limit"))
		if err != nil || limit <= 0 {
			writeError(w, coreerr.Validationf("limit must be a positive integer"))
			return
		}
		bars, err := s.core.Broker.GetMarketBars(r.Context(), instrument, broker.Timeframe(q.Get("timeframe")), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bars)
	})

	s.mux.HandleFunc("/api/v1/instruments/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query := q.Get("q")
		filters := broker.SearchFilters{
			InstrumentType: contracts.InstrumentType(q.Get("type")),
			Exchange:       q.Get("exchange"),
		}
		candidates, err := s.core.Broker.InstrumentSearch(r.Context(), query, filters)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, candidates)
	})
}

func instrumentFromQuery(r *http.Request) (contracts.Instrument, error) {
	symbol := r.URL.Query().Get("instrument")
	if symbol == "" {
		return contracts.Instrument{}, coreerr.Validationf("instrument is required")
	}
	return contracts.Instrument{Symbol: symbol}.Normalize(), nil
}
