package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/beautytracker/internal/domain"
)

const userProductColumns = `
	up.id, up.uuid, up.user_id, up.product_id, up.purchase_date, up.expiry_date, up.opened_date,
	up.purchase_price, up.purchase_currency, up.purchase_location, up.usage_status,
	up.usage_percentage, up.notes, up.user_image_url, up.created_at,` + productColumns

const userProductFrom = `FROM user_products up
	JOIN products p ON p.id = up.product_id
	JOIN categories c ON c.id = p.category_id`

func scanUserProduct(row scanner) (*domain.UserProduct, error) {
	up := &domain.UserProduct{Product: &domain.Product{}}
	p := up.Product
	err := row.Scan(&up.ID, &up.UUID, &up.UserID, &up.ProductID, &up.PurchaseDate, &up.ExpiryDate,
		&up.OpenedDate, &up.PurchasePrice, &up.PurchaseCurrency, &up.PurchaseLocation,
		&up.UsageStatus, &up.UsagePercentage, &up.Notes, &up.UserImageURL, &up.CreatedAt,
		&p.ID, &p.UUID, &p.Name, &p.Brand, &p.CategoryID, &p.CategoryName,
		&p.Description, &p.ImageURL, &p.Barcode, &p.SizeValue, &p.SizeUnit, &p.StandardSize,
		&p.RetailPrice, &p.Currency, &p.CreatedAt)
	return up, err
}

// NewUserProduct holds the fields for an inventory insert.
type NewUserProduct struct {
	UserID           string
	ProductID        int64
	PurchaseDate     *time.Time
	ExpiryDate       *time.Time
	OpenedDate       *time.Time
	PurchasePrice    *float64
	PurchaseCurrency string
	PurchaseLocation string
	UsageStatus      string
	Notes            string
	UserImageURL     string
}

// UserProductUpdate lists the inventory fields a user may edit. Nil fields
// are left unchanged.
type UserProductUpdate struct {
	UsageStatus      *string
	UsagePercentage  *int
	Notes            *string
	PurchaseDate     *time.Time
	OpenedDate       *time.Time
	ExpiryDate       *time.Time
	PurchasePrice    *float64
	PurchaseCurrency *string
	PurchaseLocation *string
}

// UserProductFilter narrows List results.
type UserProductFilter struct {
	CategoryID int64
	Query      string
}

type UserProductStore struct {
	db *sql.DB
}

func NewUserProductStore(db *sql.DB) *UserProductStore {
	return &UserProductStore{db: db}
}

func (s *UserProductStore) Create(ctx context.Context, nup NewUserProduct) (*domain.UserProduct, error) {
	status := nup.UsageStatus
	if status == "" {
		status = domain.UsageNew
	}
	currency := nup.PurchaseCurrency
	if currency == "" {
		currency = "USD"
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO user_products (uuid, user_id, product_id, purchase_date, expiry_date, opened_date,
			purchase_price, purchase_currency, purchase_location, usage_status, notes, user_image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), nup.UserID, nup.ProductID, nup.PurchaseDate, nup.ExpiryDate, nup.OpenedDate,
		nup.PurchasePrice, currency, nup.PurchaseLocation, status, nup.Notes, nup.UserImageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create user product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID returns the user product with its catalog product, regardless of
// owner. Callers check ownership.
func (s *UserProductStore) GetByID(ctx context.Context, id int64) (*domain.UserProduct, error) {
	return s.queryOne(ctx, `SELECT `+userProductColumns+` `+userProductFrom+` WHERE up.id = ?`, id)
}

// FindByUserAndProduct returns userID's existing entry for productID, or nil.
func (s *UserProductStore) FindByUserAndProduct(ctx context.Context, userID string, productID int64) (*domain.UserProduct, error) {
	return s.queryOne(ctx, `SELECT `+userProductColumns+` `+userProductFrom+`
		WHERE up.user_id = ? AND up.product_id = ?
		ORDER BY up.id ASC LIMIT 1
	`, userID, productID)
}

func (s *UserProductStore) List(ctx context.Context, userID string, f UserProductFilter) ([]*domain.UserProduct, error) {
	query := `SELECT ` + userProductColumns + ` ` + userProductFrom + ` WHERE up.user_id = ?`
	args := []any{userID}
	if f.CategoryID != 0 {
		query += ` AND p.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query += ` AND (fold(p.brand) LIKE ? OR fold(p.name) LIKE ?)`
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY up.created_at DESC, up.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user products: %w", err)
	}
	defer closeRows(rows)

	var ups []*domain.UserProduct
	for rows.Next() {
		up, err := scanUserProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user product: %w", err)
		}
		ups = append(ups, up)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user products: %w", err)
	}

	return ups, nil
}

// Update applies the catalog and inventory edits in one transaction. The
// user product must belong to userID.
func (s *UserProductStore) Update(ctx context.Context, id int64, userID string, pu ProductUpdate, upu UserProductUpdate) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		var productID int64
		err := tx.QueryRowContext(ctx, `
			SELECT product_id FROM user_products WHERE id = ? AND user_id = ?
		`, id, userID).Scan(&productID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("user product %w", ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get user product: %w", err)
		}

		if err := updateProductTx(ctx, tx, productID, pu); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE user_products SET
				usage_status      = COALESCE(?, usage_status),
				usage_percentage  = COALESCE(?, usage_percentage),
				notes             = COALESCE(?, notes),
				purchase_date     = COALESCE(?, purchase_date),
				opened_date       = COALESCE(?, opened_date),
				expiry_date       = COALESCE(?, expiry_date),
				purchase_price    = COALESCE(?, purchase_price),
				purchase_currency = COALESCE(?, purchase_currency),
				purchase_location = COALESCE(?, purchase_location)
			WHERE id = ?
		`, upu.UsageStatus, upu.UsagePercentage, upu.Notes, upu.PurchaseDate, upu.OpenedDate,
			upu.ExpiryDate, upu.PurchasePrice, upu.PurchaseCurrency, upu.PurchaseLocation, id)
		if err != nil {
			return fmt.Errorf("failed to update user product: %w", err)
		}
		return nil
	})
}

// SetUsage records a usage reading: it appends a history row and updates the
// current percentage and status in one transaction.
func (s *UserProductStore) SetUsage(ctx context.Context, id int64, userID string, percentage int, status string) (*domain.UsageHistory, error) {
	var entryID int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE user_products SET usage_percentage = ?, usage_status = ? WHERE id = ? AND user_id = ?
		`, percentage, status, id, userID)
		if err != nil {
			return fmt.Errorf("failed to update usage: %w", err)
		}
		if err := expectAffected(result, "user product"); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx, `
			INSERT INTO usage_history (user_product_id, usage_percentage) VALUES (?, ?)
		`, id, percentage)
		if err != nil {
			return fmt.Errorf("failed to record usage: %w", err)
		}
		entryID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h := &domain.UsageHistory{}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, user_product_id, usage_percentage, usage_date FROM usage_history WHERE id = ?
	`, entryID).Scan(&h.ID, &h.UserProductID, &h.UsagePercentage, &h.UsageDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage entry: %w", err)
	}
	return h, nil
}

// ListUsage returns the usage history of a user product, newest first.
func (s *UserProductStore) ListUsage(ctx context.Context, id int64) ([]*domain.UsageHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_product_id, usage_percentage, usage_date FROM usage_history
		WHERE user_product_id = ? ORDER BY usage_date DESC, id DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage history: %w", err)
	}
	defer closeRows(rows)

	var history []*domain.UsageHistory
	for rows.Next() {
		h := &domain.UsageHistory{}
		if err := rows.Scan(&h.ID, &h.UserProductID, &h.UsagePercentage, &h.UsageDate); err != nil {
			return nil, fmt.Errorf("failed to scan usage entry: %w", err)
		}
		history = append(history, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage history: %w", err)
	}

	return history, nil
}

func (s *UserProductStore) SetUserImage(ctx context.Context, id int64, userID, imageURL string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_products SET user_image_url = ? WHERE id = ? AND user_id = ?
	`, imageURL, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update user image: %w", err)
	}
	return expectAffected(result, "user product")
}

func (s *UserProductStore) Delete(ctx context.Context, id int64, userID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM user_products WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user product: %w", err)
	}
	return expectAffected(result, "user product")
}

func (s *UserProductStore) queryOne(ctx context.Context, query string, args ...any) (*domain.UserProduct, error) {
	up, err := scanUserProduct(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user product: %w", err)
	}
	return up, nil
}
