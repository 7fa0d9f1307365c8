package web

import (
	"net/http"

	"github.com/vbonduro/beautytracker/internal/auth"
)

type userStepRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (s *Server) handleListUserSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := s.svc.UserSteps.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, steps)
}

func (s *Server) handleCreateUserStep(w http.ResponseWriter, r *http.Request) {
	var req userStepRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	step, err := s.svc.UserSteps.Create(r.Context(), auth.UserID(r.Context()), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, step)
}

func (s *Server) handleRenameUserStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req userStepRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	step, err := s.svc.UserSteps.Rename(r.Context(), auth.UserID(r.Context()), id, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, step)
}

func (s *Server) handleDeleteUserStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.UserSteps.Delete(r.Context(), auth.UserID(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, nil)
}
