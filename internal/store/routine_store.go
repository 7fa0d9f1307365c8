package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vbonduro/beautytracker/internal/domain"
)

// ErrOrderMismatch is returned when a reorder request does not cover exactly
// the steps of the routine.
var ErrOrderMismatch = errors.New("step order does not match routine steps")

type RoutineStore struct {
	db *sql.DB
}

func NewRoutineStore(db *sql.DB) *RoutineStore {
	return &RoutineStore{db: db}
}

func (s *RoutineStore) Create(ctx context.Context, userID, name, description, timeOfDay string) (*domain.Routine, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO routines (uuid, user_id, name, description, time_of_day) VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), userID, name, description, timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to create routine: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID returns the routine with its steps, their products, and each
// product's inventory and catalog records. Ownership is checked by callers.
func (s *RoutineStore) GetByID(ctx context.Context, id int64) (*domain.Routine, error) {
	r := &domain.Routine{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, uuid, user_id, name, description, time_of_day, created_at FROM routines WHERE id = ?
	`, id).Scan(&r.ID, &r.UUID, &r.UserID, &r.Name, &r.Description, &r.TimeOfDay, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get routine: %w", err)
	}

	if err := s.attachSteps(ctx, []*domain.Routine{r}); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RoutineStore) ListByUser(ctx context.Context, userID string) ([]*domain.Routine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uuid, user_id, name, description, time_of_day, created_at FROM routines
		WHERE user_id = ? ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", err)
	}
	defer closeRows(rows)

	var routines []*domain.Routine
	for rows.Next() {
		r := &domain.Routine{}
		if err := rows.Scan(&r.ID, &r.UUID, &r.UserID, &r.Name, &r.Description, &r.TimeOfDay, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan routine: %w", err)
		}
		routines = append(routines, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routines: %w", err)
	}

	if err := s.attachSteps(ctx, routines); err != nil {
		return nil, err
	}
	return routines, nil
}

func (s *RoutineStore) Update(ctx context.Context, id int64, userID, name string, description *string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE routines SET name = ?, description = COALESCE(?, description) WHERE id = ? AND user_id = ?
	`, name, description, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update routine: %w", err)
	}
	return expectAffected(result, "routine")
}

func (s *RoutineStore) Delete(ctx context.Context, id int64, userID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM routines WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete routine: %w", err)
	}
	return expectAffected(result, "routine")
}

// attachSteps loads the steps of every routine in rs, then the products of
// every step, and links them together.
func (s *RoutineStore) attachSteps(ctx context.Context, rs []*domain.Routine) error {
	if len(rs) == 0 {
		return nil
	}
	byRoutine := make(map[int64]*domain.Routine, len(rs))
	ids := make([]any, 0, len(rs))
	for _, r := range rs {
		r.Steps = []*domain.RoutineStep{}
		byRoutine[r.ID] = r
		ids = append(ids, r.ID)
	}
	in := placeholders(len(ids))

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uuid, routine_id, user_step_id, step_name, step_order, created_at
		FROM routine_steps WHERE routine_id IN (`+in+`)
		ORDER BY routine_id ASC, step_order ASC
	`, ids...)
	if err != nil {
		return fmt.Errorf("failed to list routine steps: %w", err)
	}
	defer closeRows(rows)

	byStep := make(map[int64]*domain.RoutineStep)
	for rows.Next() {
		st := &domain.RoutineStep{Products: []*domain.RoutineStepProduct{}}
		if err := rows.Scan(&st.ID, &st.UUID, &st.RoutineID, &st.UserStepID, &st.StepName, &st.StepOrder, &st.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan routine step: %w", err)
		}
		byRoutine[st.RoutineID].Steps = append(byRoutine[st.RoutineID].Steps, st)
		byStep[st.ID] = st
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating routine steps: %w", err)
	}
	closeRows(rows)

	if len(byStep) == 0 {
		return nil
	}

	prodRows, err := s.db.QueryContext(ctx, `
		SELECT rsp.id, rsp.routine_step_id, rsp.user_product_id, rsp.notes, rsp.created_at,`+userProductColumns+`
		FROM routine_step_products rsp
		JOIN routine_steps rs ON rs.id = rsp.routine_step_id
		JOIN user_products up ON up.id = rsp.user_product_id
		JOIN products p ON p.id = up.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE rs.routine_id IN (`+in+`)
		ORDER BY rsp.id ASC
	`, ids...)
	if err != nil {
		return fmt.Errorf("failed to list step products: %w", err)
	}
	defer closeRows(prodRows)

	for prodRows.Next() {
		sp := &domain.RoutineStepProduct{}
		up := &domain.UserProduct{Product: &domain.Product{}}
		p := up.Product
		if err := prodRows.Scan(&sp.ID, &sp.RoutineStepID, &sp.UserProductID, &sp.Notes, &sp.CreatedAt,
			&up.ID, &up.UUID, &up.UserID, &up.ProductID, &up.PurchaseDate, &up.ExpiryDate,
			&up.OpenedDate, &up.PurchasePrice, &up.PurchaseCurrency, &up.PurchaseLocation,
			&up.UsageStatus, &up.UsagePercentage, &up.Notes, &up.UserImageURL, &up.CreatedAt,
			&p.ID, &p.UUID, &p.Name, &p.Brand, &p.CategoryID, &p.CategoryName,
			&p.Description, &p.ImageURL, &p.Barcode, &p.SizeValue, &p.SizeUnit, &p.StandardSize,
			&p.RetailPrice, &p.Currency, &p.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan step product: %w", err)
		}
		sp.UserProduct = up
		if st, ok := byStep[sp.RoutineStepID]; ok {
			st.Products = append(st.Products, sp)
		}
	}
	if err := prodRows.Err(); err != nil {
		return fmt.Errorf("error iterating step products: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// GetStep returns a step of routineID, or nil when the step does not exist
// or belongs to another routine.
func (s *RoutineStore) GetStep(ctx context.Context, routineID, stepID int64) (*domain.RoutineStep, error) {
	st := &domain.RoutineStep{Products: []*domain.RoutineStepProduct{}}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, uuid, routine_id, user_step_id, step_name, step_order, created_at
		FROM routine_steps WHERE id = ? AND routine_id = ?
	`, stepID, routineID).Scan(&st.ID, &st.UUID, &st.RoutineID, &st.UserStepID, &st.StepName, &st.StepOrder, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get routine step: %w", err)
	}
	return st, nil
}

// CreateStep appends a step after the routine's current last step.
func (s *RoutineStore) CreateStep(ctx context.Context, routineID int64, name string, userStepID *int64) (*domain.RoutineStep, error) {
	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		id, err = appendStep(ctx, tx, routineID, name, userStepID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetStep(ctx, routineID, id)
}

// CreateStepWithProduct appends a step and links userProductID to it in one
// transaction, so a failed link leaves no empty step behind.
func (s *RoutineStore) CreateStepWithProduct(ctx context.Context, routineID int64, name string, userProductID int64, notes string) (*domain.RoutineStepProduct, error) {
	var sp *domain.RoutineStepProduct
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		stepID, err := appendStep(ctx, tx, routineID, name, nil)
		if err != nil {
			return err
		}
		sp, err = linkStepProduct(ctx, tx, stepID, userProductID, notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func appendStep(ctx context.Context, tx *sql.Tx, routineID int64, name string, userStepID *int64) (int64, error) {
	var next int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(step_order), 0) + 1 FROM routine_steps WHERE routine_id = ?
	`, routineID).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to get next step order: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO routine_steps (uuid, routine_id, user_step_id, step_name, step_order)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), routineID, userStepID, name, next)
	if err != nil {
		return 0, fmt.Errorf("failed to create routine step: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

func (s *RoutineStore) RenameStep(ctx context.Context, routineID, stepID int64, name string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE routine_steps SET step_name = ? WHERE id = ? AND routine_id = ?
	`, name, stepID, routineID)
	if err != nil {
		return fmt.Errorf("failed to rename routine step: %w", err)
	}
	return expectAffected(result, "routine step")
}

// DeleteStep removes a step and renumbers the remaining steps to 1..n,
// preserving their relative order.
func (s *RoutineStore) DeleteStep(ctx context.Context, routineID, stepID int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM routine_steps WHERE id = ? AND routine_id = ?
		`, stepID, routineID)
		if err != nil {
			return fmt.Errorf("failed to delete routine step: %w", err)
		}
		if err := expectAffected(result, "routine step"); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT id FROM routine_steps WHERE routine_id = ? ORDER BY step_order ASC
		`, routineID)
		if err != nil {
			return fmt.Errorf("failed to list routine steps: %w", err)
		}
		var orders []domain.StepOrder
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				closeRows(rows)
				return fmt.Errorf("failed to scan routine step: %w", err)
			}
			orders = append(orders, domain.StepOrder{ID: id, Order: len(orders) + 1})
		}
		closeRows(rows)
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating routine steps: %w", err)
		}

		return reorderTx(ctx, tx, routineID, orders)
	})
}

// ReorderSteps assigns new positions to the steps of a routine atomically.
// orders must name every step of the routine exactly once; on any failure
// the previous order is left intact.
func (s *RoutineStore) ReorderSteps(ctx context.Context, routineID int64, orders []domain.StepOrder) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		return reorderTx(ctx, tx, routineID, orders)
	})
}

// reorderTx moves every step to a negative order first so the new positions
// can be written without tripping UNIQUE(routine_id, step_order).
func reorderTx(ctx context.Context, tx *sql.Tx, routineID int64, orders []domain.StepOrder) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE routine_steps SET step_order = -step_order WHERE routine_id = ?
	`, routineID); err != nil {
		return fmt.Errorf("failed to clear step order: %w", err)
	}

	if len(orders) > 0 {
		payload, err := json.Marshal(orders)
		if err != nil {
			return fmt.Errorf("failed to encode step order: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE routine_steps SET step_order = o.new_order
			FROM (
				SELECT json_extract(value, '$.id') AS step_id, json_extract(value, '$.order') AS new_order
				FROM json_each(?)
			) AS o
			WHERE routine_steps.id = o.step_id AND routine_steps.routine_id = ?
		`, string(payload), routineID)
		if err != nil {
			return fmt.Errorf("failed to apply step order: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if int(n) != len(orders) {
			return ErrOrderMismatch
		}
	}

	var leftover int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM routine_steps WHERE routine_id = ? AND step_order < 1
	`, routineID).Scan(&leftover); err != nil {
		return fmt.Errorf("failed to verify step order: %w", err)
	}
	if leftover > 0 {
		return ErrOrderMismatch
	}
	return nil
}

// AddProductToStep links a user product to a step. Adding the same product
// again replaces its notes.
func (s *RoutineStore) AddProductToStep(ctx context.Context, stepID, userProductID int64, notes string) (*domain.RoutineStepProduct, error) {
	return linkStepProduct(ctx, s.db, stepID, userProductID, notes)
}

// execQuerier is satisfied by both *sql.DB and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func linkStepProduct(ctx context.Context, q execQuerier, stepID, userProductID int64, notes string) (*domain.RoutineStepProduct, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO routine_step_products (routine_step_id, user_product_id, notes) VALUES (?, ?, ?)
		ON CONFLICT (routine_step_id, user_product_id) DO UPDATE SET notes = excluded.notes
	`, stepID, userProductID, notes)
	if err != nil {
		return nil, fmt.Errorf("failed to add product to step: %w", err)
	}

	sp := &domain.RoutineStepProduct{}
	err = q.QueryRowContext(ctx, `
		SELECT id, routine_step_id, user_product_id, notes, created_at FROM routine_step_products
		WHERE routine_step_id = ? AND user_product_id = ?
	`, stepID, userProductID).Scan(&sp.ID, &sp.RoutineStepID, &sp.UserProductID, &sp.Notes, &sp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get step product: %w", err)
	}
	return sp, nil
}

func (s *RoutineStore) UpdateStepProductNotes(ctx context.Context, stepID, userProductID int64, notes string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE routine_step_products SET notes = ? WHERE routine_step_id = ? AND user_product_id = ?
	`, notes, stepID, userProductID)
	if err != nil {
		return fmt.Errorf("failed to update step product: %w", err)
	}
	return expectAffected(result, "step product")
}

func (s *RoutineStore) RemoveProductFromStep(ctx context.Context, stepID, userProductID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM routine_step_products WHERE routine_step_id = ? AND user_product_id = ?
	`, stepID, userProductID)
	if err != nil {
		return fmt.Errorf("failed to remove product from step: %w", err)
	}
	return expectAffected(result, "step product")
}
