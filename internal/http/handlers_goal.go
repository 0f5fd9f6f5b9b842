package http

import (
	"net/http"

	"pennywise/internal/core"
	"pennywise/internal/log"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.Goals.List(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpList)
		return
	}
	NewJSONResponse().Body(goals).Write(w)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpRead)
		return
	}
	g, err := s.svc.Goals.Get(r.Context(), owner(r), id)
	if err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpRead)
		return
	}
	NewJSONResponse().Body(g).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := DecodeJSON(w, r, &g); err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpCreate)
		return
	}
	saved, err := s.svc.Goals.Create(r.Context(), owner(r), g)
	if err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpCreate)
		return
	}
	Created(saved).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpUpdate)
		return
	}
	var g core.Goal
	if err := DecodeJSON(w, r, &g); err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpUpdate)
		return
	}
	saved, err := s.svc.Goals.Update(r.Context(), owner(r), id, g)
	if err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpUpdate)
		return
	}
	NewJSONResponse().Body(saved).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpDelete)
		return
	}
	if err := s.svc.Goals.Delete(r.Context(), owner(r), id); err != nil {
		s.writeError(w, r, err, log.ComponentApp, log.OpDelete)
		return
	}
	NoContent().Write(w)
}
