// Package httpapi is the net/http surface: portfolio/market reads, the
// propose -> simulate -> risk -> approve -> submit pipeline, cancel/modify,
// kill-switch control, and feature flags. One register method per
// resource adds its routes to the Server's mux, each against a *core.Core.
package httpapi

import (
	"net/http"

	"tradegate/internal/core"
)

// Server holds the mux and every resource handler's dependencies.
type Server struct {
	mux  *http.ServeMux
	core *core.Core
}

// NewServer builds a Server wired against c and registers every route.
func NewServer(c *core.Core) *Server {
	s := &Server{mux: http.NewServeMux(), core: c}
	s.registerHealth()
	s.registerPortfolio()
	s.registerMarket()
	s.registerPipeline()
	s.registerApproval()
	s.registerOrders()
	s.registerCancelModify()
	s.registerKillSwitch()
	s.registerFeatureFlags()
	return s
}

// Handler returns the fully wrapped http.Handler: correlation-id
// propagation around the route mux.
func (s *Server) Handler() http.Handler {
	return correlationID(s.mux)
}
