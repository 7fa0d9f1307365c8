package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vbonduro/beautytracker/internal/domain"
)

// AddStepProductInput links an owned product to a step, either an existing
// one (StepID) or a new step created from StepName.
type AddStepProductInput struct {
	StepID        *int64
	StepName      string
	UserProductID int64
	Notes         string
}

type RoutineService struct {
	routines     routineRepository
	userProducts userProductRepository
	userSteps    userStepRepository
	logger       *slog.Logger
}

func NewRoutineService(
	routines routineRepository,
	userProducts userProductRepository,
	userSteps userStepRepository,
	logger *slog.Logger,
) *RoutineService {
	return &RoutineService{
		routines:     routines,
		userProducts: userProducts,
		userSteps:    userSteps,
		logger:       logger,
	}
}

func (s *RoutineService) List(ctx context.Context, userID string) ([]*domain.Routine, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	routines, err := s.routines.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if routines == nil {
		routines = []*domain.Routine{}
	}
	return routines, nil
}

// Get returns the routine with its steps if userID owns it.
func (s *RoutineService) Get(ctx context.Context, userID string, id int64) (*domain.Routine, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	r, err := s.routines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil || r.UserID != userID {
		return nil, notFound("routine")
	}
	return r, nil
}

func (s *RoutineService) Create(ctx context.Context, userID, name, description, timeOfDay string) (*domain.Routine, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	if !domain.ValidTimeOfDay(timeOfDay) {
		return nil, invalidf("time_of_day must be morning, evening or both")
	}
	r, err := s.routines.Create(ctx, userID, name, description, timeOfDay)
	if err != nil {
		return nil, err
	}
	s.logger.Info("routine created", "routine_id", r.ID, "user_id", userID)
	return r, nil
}

func (s *RoutineService) Update(ctx context.Context, userID string, id int64, name string, description *string) (*domain.Routine, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	if err := s.routines.Update(ctx, id, userID, name, description); err != nil {
		return nil, translate(err, "routine")
	}
	return s.Get(ctx, userID, id)
}

func (s *RoutineService) Delete(ctx context.Context, userID string, id int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return translate(s.routines.Delete(ctx, id, userID), "routine")
}

// AddStep appends a step to an owned routine. When userStepID is set the
// step takes its name from the user's step library unless name overrides it.
func (s *RoutineService) AddStep(ctx context.Context, userID string, routineID int64, name string, userStepID *int64) (*domain.RoutineStep, error) {
	if _, err := s.Get(ctx, userID, routineID); err != nil {
		return nil, err
	}
	return s.addStep(ctx, userID, routineID, name, userStepID)
}

func (s *RoutineService) addStep(ctx context.Context, userID string, routineID int64, name string, userStepID *int64) (*domain.RoutineStep, error) {
	name = strings.TrimSpace(name)
	if userStepID != nil {
		us, err := s.userSteps.GetByID(ctx, *userStepID)
		if err != nil {
			return nil, err
		}
		if us == nil || us.UserID != userID {
			return nil, notFound("user step")
		}
		if name == "" {
			name = us.Name
		}
	}
	if name == "" {
		return nil, invalidf("step name is required")
	}
	return s.routines.CreateStep(ctx, routineID, name, userStepID)
}

func (s *RoutineService) RenameStep(ctx context.Context, userID string, routineID, stepID int64, name string) (*domain.RoutineStep, error) {
	if _, err := s.Get(ctx, userID, routineID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("step name is required")
	}
	if err := s.routines.RenameStep(ctx, routineID, stepID, name); err != nil {
		return nil, translate(err, "routine step")
	}
	return s.routines.GetStep(ctx, routineID, stepID)
}

func (s *RoutineService) DeleteStep(ctx context.Context, userID string, routineID, stepID int64) error {
	if _, err := s.Get(ctx, userID, routineID); err != nil {
		return err
	}
	return translate(s.routines.DeleteStep(ctx, routineID, stepID), "routine step")
}

// ReorderSteps assigns new positions to every step of an owned routine. The
// request must name each step once and use the orders 1..n.
func (s *RoutineService) ReorderSteps(ctx context.Context, userID string, routineID int64, orders []domain.StepOrder) (*domain.Routine, error) {
	r, err := s.Get(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}
	if err := validateOrder(r.Steps, orders); err != nil {
		return nil, err
	}
	if err := s.routines.ReorderSteps(ctx, routineID, orders); err != nil {
		return nil, translate(err, "routine")
	}
	s.logger.Info("routine steps reordered", "routine_id", routineID, "steps", len(orders))
	return s.Get(ctx, userID, routineID)
}

func validateOrder(steps []*domain.RoutineStep, orders []domain.StepOrder) error {
	if len(orders) != len(steps) {
		return invalidf("expected %d steps, got %d", len(steps), len(orders))
	}
	known := make(map[int64]bool, len(steps))
	for _, st := range steps {
		known[st.ID] = true
	}
	seenID := make(map[int64]bool, len(orders))
	seenOrder := make(map[int]bool, len(orders))
	for _, o := range orders {
		if !known[o.ID] {
			return invalidf("step %d does not belong to this routine", o.ID)
		}
		if seenID[o.ID] {
			return invalidf("step %d listed more than once", o.ID)
		}
		if o.Order < 1 || o.Order > len(orders) || seenOrder[o.Order] {
			return invalidf("step orders must be 1..%d without gaps", len(orders))
		}
		seenID[o.ID] = true
		seenOrder[o.Order] = true
	}
	return nil
}

// AddProduct links an owned product to a step of an owned routine, creating
// the step first when only a name is given.
func (s *RoutineService) AddProduct(ctx context.Context, userID string, routineID int64, in AddStepProductInput) (*domain.RoutineStepProduct, error) {
	if _, err := s.Get(ctx, userID, routineID); err != nil {
		return nil, err
	}
	if err := s.checkOwnedProduct(ctx, userID, in.UserProductID); err != nil {
		return nil, err
	}

	if in.StepID == nil {
		name := strings.TrimSpace(in.StepName)
		if name == "" {
			return nil, invalidf("step_id or step_name is required")
		}
		return s.routines.CreateStepWithProduct(ctx, routineID, name, in.UserProductID, in.Notes)
	}

	st, err := s.routines.GetStep(ctx, routineID, *in.StepID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, notFound("routine step")
	}
	return s.routines.AddProductToStep(ctx, st.ID, in.UserProductID, in.Notes)
}

func (s *RoutineService) UpdateProductNotes(ctx context.Context, userID string, routineID, stepID, userProductID int64, notes string) error {
	if err := s.checkOwnedStep(ctx, userID, routineID, stepID); err != nil {
		return err
	}
	return translate(s.routines.UpdateStepProductNotes(ctx, stepID, userProductID, notes), "step product")
}

func (s *RoutineService) RemoveProduct(ctx context.Context, userID string, routineID, stepID, userProductID int64) error {
	if err := s.checkOwnedStep(ctx, userID, routineID, stepID); err != nil {
		return err
	}
	return translate(s.routines.RemoveProductFromStep(ctx, stepID, userProductID), "step product")
}

func (s *RoutineService) checkOwnedStep(ctx context.Context, userID string, routineID, stepID int64) error {
	if _, err := s.Get(ctx, userID, routineID); err != nil {
		return err
	}
	st, err := s.routines.GetStep(ctx, routineID, stepID)
	if err != nil {
		return err
	}
	if st == nil {
		return notFound("routine step")
	}
	return nil
}

func (s *RoutineService) checkOwnedProduct(ctx context.Context, userID string, userProductID int64) error {
	up, err := s.userProducts.GetByID(ctx, userProductID)
	if err != nil {
		return err
	}
	if up == nil || up.UserID != userID {
		return notFound("user product")
	}
	return nil
}
