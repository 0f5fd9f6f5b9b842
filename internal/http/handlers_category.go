package http

import (
	"net/http"

	"pennywise/internal/log"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Categories.List(r.Context())
	if err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpList)
		return
	}
	NewJSONResponse().Body(cats).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpCreate)
		return
	}
	c, err := s.svc.Categories.Create(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpCreate)
		return
	}
	Created(c).Write(w)
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpUpdate)
		return
	}
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpUpdate)
		return
	}
	c, err := s.svc.Categories.Rename(r.Context(), id, sanitizeInput(req.Name))
	if err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpUpdate)
		return
	}
	NewJSONResponse().Body(c).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpDelete)
		return
	}
	if err := s.svc.Categories.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpDelete)
		return
	}
	NoContent().Write(w)
}
