package http

import (
	"net/http"
	"strconv"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	charts := s.finance.Charts()
	if charts == nil {
		charts = []core.ChartConfig{}
	}
	NewJSONResponse().Body(charts).Write(w)
}

func (s *Server) handleCreateChart(w http.ResponseWriter, r *http.Request) {
	var cfg core.ChartConfig
	if err := DecodeJSON(w, r, &cfg); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	cfg.ID = 0
	cfg.Title = sanitizeInput(cfg.Title)

	saved, err := s.finance.SaveChart(r.Context(), cfg)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/charts/"+strconv.FormatInt(saved.ID, 10)).
		Body(saved).
		Write(w)
}

// handleUpdateChart replaces an existing chart; it never creates one.
func (s *Server) handleUpdateChart(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	var cfg core.ChartConfig
	if err := DecodeJSON(w, r, &cfg); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	if _, err := s.finance.Chart(id); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	cfg.ID = id
	cfg.Title = sanitizeInput(cfg.Title)

	saved, err := s.finance.SaveChart(r.Context(), cfg)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(saved).Write(w)
}

func (s *Server) handleDeleteChart(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.finance.DeleteChart(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleChartSeries(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	data, err := s.finance.ChartSeries(r.Context(), id)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(data).Write(w)
}

// handlePreviewChart renders a configuration without saving it.
func (s *Server) handlePreviewChart(w http.ResponseWriter, r *http.Request) {
	var cfg core.ChartConfig
	if err := DecodeJSON(w, r, &cfg); err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	data, err := s.finance.PreviewChart(cfg)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(data).Write(w)
}
