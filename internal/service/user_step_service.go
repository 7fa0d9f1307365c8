package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vbonduro/beautytracker/internal/domain"
)

// DefaultUserSteps seed a user's step library the first time it is listed.
var DefaultUserSteps = []string{"Cleansing", "Toning", "Moisturizing"}

type UserStepService struct {
	steps  userStepRepository
	logger *slog.Logger
}

func NewUserStepService(steps userStepRepository, logger *slog.Logger) *UserStepService {
	return &UserStepService{steps: steps, logger: logger}
}

// List returns the user's step library, creating the default steps when the
// library is empty.
func (s *UserStepService) List(ctx context.Context, userID string) ([]*domain.UserStep, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	steps, err := s.steps.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(steps) > 0 {
		return steps, nil
	}

	if err := s.steps.CreateMany(ctx, userID, DefaultUserSteps); err != nil {
		return nil, err
	}
	s.logger.Info("seeded default user steps", "user_id", userID)
	return s.steps.ListByUser(ctx, userID)
}

func (s *UserStepService) Create(ctx context.Context, userID, name string) (*domain.UserStep, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	return s.steps.Create(ctx, userID, name)
}

func (s *UserStepService) Rename(ctx context.Context, userID string, id int64, name string) (*domain.UserStep, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	if err := s.steps.Update(ctx, id, userID, name); err != nil {
		return nil, translate(err, "user step")
	}
	return s.steps.GetByID(ctx, id)
}

func (s *UserStepService) Delete(ctx context.Context, userID string, id int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return translate(s.steps.Delete(ctx, id, userID), "user step")
}
