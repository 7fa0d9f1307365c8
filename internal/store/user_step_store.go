package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/vbonduro/beautytracker/internal/domain"
)

type UserStepStore struct {
	db *sql.DB
}

func NewUserStepStore(db *sql.DB) *UserStepStore {
	return &UserStepStore{db: db}
}

func (s *UserStepStore) Create(ctx context.Context, userID, name string) (*domain.UserStep, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO user_steps (uuid, user_id, name) VALUES (?, ?, ?)
	`, uuid.NewString(), userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create user step: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// CreateMany inserts names for userID in one transaction.
func (s *UserStepStore) CreateMany(ctx context.Context, userID string, names []string) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, name := range names {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO user_steps (uuid, user_id, name) VALUES (?, ?, ?)
			`, uuid.NewString(), userID, name); err != nil {
				return fmt.Errorf("failed to create user step %q: %w", name, err)
			}
		}
		return nil
	})
}

func (s *UserStepStore) GetByID(ctx context.Context, id int64) (*domain.UserStep, error) {
	st := &domain.UserStep{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, uuid, user_id, name, created_at FROM user_steps WHERE id = ?
	`, id).Scan(&st.ID, &st.UUID, &st.UserID, &st.Name, &st.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user step: %w", err)
	}

	return st, nil
}

func (s *UserStepStore) ListByUser(ctx context.Context, userID string) ([]*domain.UserStep, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uuid, user_id, name, created_at FROM user_steps
		WHERE user_id = ? ORDER BY name COLLATE NOCASE ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user steps: %w", err)
	}
	defer closeRows(rows)

	var steps []*domain.UserStep
	for rows.Next() {
		st := &domain.UserStep{}
		if err := rows.Scan(&st.ID, &st.UUID, &st.UserID, &st.Name, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user step: %w", err)
		}
		steps = append(steps, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user steps: %w", err)
	}

	return steps, nil
}

func (s *UserStepStore) Update(ctx context.Context, id int64, userID, name string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_steps SET name = ? WHERE id = ? AND user_id = ?
	`, name, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update user step: %w", err)
	}
	return expectAffected(result, "user step")
}

func (s *UserStepStore) Delete(ctx context.Context, id int64, userID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM user_steps WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user step: %w", err)
	}
	return expectAffected(result, "user step")
}
