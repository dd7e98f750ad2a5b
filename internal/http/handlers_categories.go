package http

import (
	"context"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

type labelRequest struct {
	Group string `json:"group"`
	Label string `json:"label"`
}

type groupRequest struct {
	Group string `json:"group"`
}

func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.finance.Categories()).Write(w)
}

// handleReplaceCategories replaces the whole taxonomy. Kinds missing from
// the body are left without categories.
func (s *Server) handleReplaceCategories(w http.ResponseWriter, r *http.Request) {
	var t core.Taxonomy
	if err := DecodeJSON(w, r, &t); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	if err := s.finance.UpdateCategories(r.Context(), t); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.handleGetCategories(w, r)
}

func (s *Server) handleResetCategories(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.ResetCategories(r.Context()); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.handleGetCategories(w, r)
}

func (s *Server) handleAddLabel(w http.ResponseWriter, r *http.Request) {
	s.editLabel(w, r, s.finance.AddCategory)
}

func (s *Server) handleRemoveLabel(w http.ResponseWriter, r *http.Request) {
	s.editLabel(w, r, s.finance.RemoveCategory)
}

func (s *Server) editLabel(w http.ResponseWriter, r *http.Request, edit func(ctx context.Context, kind core.Kind, group, label string) error) {
	var req labelRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	kind := core.Kind(r.PathValue("kind"))
	if err := edit(r.Context(), kind, sanitizeInput(req.Group), sanitizeInput(req.Label)); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.handleGetCategories(w, r)
}

func (s *Server) handleAddGroup(w http.ResponseWriter, r *http.Request) {
	s.editGroup(w, r, s.finance.AddCategoryGroup)
}

func (s *Server) handleRemoveGroup(w http.ResponseWriter, r *http.Request) {
	s.editGroup(w, r, s.finance.RemoveCategoryGroup)
}

func (s *Server) editGroup(w http.ResponseWriter, r *http.Request, edit func(ctx context.Context, kind core.Kind, group string) error) {
	var req groupRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	kind := core.Kind(r.PathValue("kind"))
	if err := edit(r.Context(), kind, sanitizeInput(req.Group)); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.handleGetCategories(w, r)
}
