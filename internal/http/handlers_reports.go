package http

import "net/http"

const (
	defaultTrendMonths = 6
	maxTrendMonths     = 36
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p := s.monthParams(r)
	NewJSONResponse().Body(s.finance.Dashboard(p.Month, p.Year)).Write(w)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	p := s.monthParams(r)
	NewJSONResponse().Body(s.finance.Analysis(p.Month, p.Year)).Write(w)
}

// handleTrend returns ?months= snapshots ending with the requested month.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	p := s.monthParams(r)
	n := ParseBoundedInt(r.URL.Query(), "months", defaultTrendMonths, 1, maxTrendMonths)
	NewJSONResponse().Body(s.finance.TrendReport(n, p.Month, p.Year)).Write(w)
}
