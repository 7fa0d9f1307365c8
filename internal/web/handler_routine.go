package web

import (
	"net/http"

	"github.com/vbonduro/beautytracker/internal/auth"
	"github.com/vbonduro/beautytracker/internal/domain"
	"github.com/vbonduro/beautytracker/internal/service"
)

type createRoutineRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	TimeOfDay   string `json:"time_of_day" validate:"required,oneof=morning evening both"`
}

type updateRoutineRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type stepRequest struct {
	StepName   string `json:"step_name" validate:"max=200"`
	UserStepID *int64 `json:"user_step_id" validate:"omitempty,min=1"`
}

type reorderRequest struct {
	Steps []domain.StepOrder `json:"steps" validate:"required,min=1,dive"`
}

type addStepProductRequest struct {
	StepID        *int64 `json:"step_id" validate:"omitempty,min=1"`
	StepName      string `json:"step_name" validate:"max=200"`
	UserProductID int64  `json:"user_product_id" validate:"required,min=1"`
	Notes         string `json:"notes" validate:"max=2000"`
}

type notesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

func (s *Server) handleListRoutines(w http.ResponseWriter, r *http.Request) {
	routines, err := s.svc.Routines.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, routines)
}

func (s *Server) handleCreateRoutine(w http.ResponseWriter, r *http.Request) {
	var req createRoutineRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	routine, err := s.svc.Routines.Create(r.Context(), auth.UserID(r.Context()), req.Name, req.Description, req.TimeOfDay)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, routine)
}

func (s *Server) handleGetRoutine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	routine, err := s.svc.Routines.Get(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, routine)
}

func (s *Server) handleUpdateRoutine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateRoutineRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	routine, err := s.svc.Routines.Update(r.Context(), auth.UserID(r.Context()), id, req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, routine)
}

func (s *Server) handleDeleteRoutine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Routines.Delete(r.Context(), auth.UserID(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, nil)
}

func (s *Server) handleAddStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req stepRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	step, err := s.svc.Routines.AddStep(r.Context(), auth.UserID(r.Context()), id, req.StepName, req.UserStepID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, step)
}

func (s *Server) handleRenameStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stepID, err := pathID(r, "stepId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req stepRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	step, err := s.svc.Routines.RenameStep(r.Context(), auth.UserID(r.Context()), id, stepID, req.StepName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, step)
}

func (s *Server) handleDeleteStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stepID, err := pathID(r, "stepId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Routines.DeleteStep(r.Context(), auth.UserID(r.Context()), id, stepID); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, nil)
}

func (s *Server) handleReorderSteps(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req reorderRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	routine, err := s.svc.Routines.ReorderSteps(r.Context(), auth.UserID(r.Context()), id, req.Steps)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, routine)
}

func (s *Server) handleAddStepProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req addStepProductRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sp, err := s.svc.Routines.AddProduct(r.Context(), auth.UserID(r.Context()), id, service.AddStepProductInput{
		StepID:        req.StepID,
		StepName:      req.StepName,
		UserProductID: req.UserProductID,
		Notes:         req.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, sp)
}

// stepProductIDs parses the routine, step and user product IDs of a step
// product route.
func stepProductIDs(r *http.Request) (routineID, stepID, productID int64, err error) {
	if routineID, err = pathID(r, "id"); err != nil {
		return
	}
	if stepID, err = pathID(r, "stepId"); err != nil {
		return
	}
	productID, err = pathID(r, "productId")
	return
}

func (s *Server) handleUpdateStepProduct(w http.ResponseWriter, r *http.Request) {
	routineID, stepID, productID, err := stepProductIDs(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req notesRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Routines.UpdateProductNotes(r.Context(), auth.UserID(r.Context()), routineID, stepID, productID, req.Notes); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, nil)
}

func (s *Server) handleRemoveStepProduct(w http.ResponseWriter, r *http.Request) {
	routineID, stepID, productID, err := stepProductIDs(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Routines.RemoveProduct(r.Context(), auth.UserID(r.Context()), routineID, stepID, productID); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, nil)
}
