package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vbonduro/beautytracker/internal/domain"
	"github.com/vbonduro/beautytracker/internal/similarity"
)

// Match kinds reported by FindMatch.
const (
	MatchNone    = ""
	MatchExact   = "exact"
	MatchBarcode = "barcode"
	MatchFuzzy   = "fuzzy"
)

const productColumns = `
	p.id, p.uuid, p.name, p.brand, p.category_id, c.name, p.description, p.image_url,
	p.barcode, p.size_value, p.size_unit, p.standard_size, p.retail_price, p.currency, p.created_at`

const productFrom = `FROM products p JOIN categories c ON c.id = p.category_id`

func scanProduct(row scanner, p *domain.Product) error {
	return row.Scan(&p.ID, &p.UUID, &p.Name, &p.Brand, &p.CategoryID, &p.CategoryName,
		&p.Description, &p.ImageURL, &p.Barcode, &p.SizeValue, &p.SizeUnit, &p.StandardSize,
		&p.RetailPrice, &p.Currency, &p.CreatedAt)
}

// NewProduct holds the fields for a catalog insert.
type NewProduct struct {
	Name         string
	Brand        string
	CategoryID   int64
	Description  string
	ImageURL     string
	Barcode      string
	SizeValue    *float64
	SizeUnit     string
	StandardSize string
	RetailPrice  *float64
	Currency     string
}

// ProductUpdate lists the catalog fields a user may edit. Nil fields are
// left unchanged.
type ProductUpdate struct {
	Name        *string
	Brand       *string
	CategoryID  *int64
	Description *string
	SizeValue   *float64
	SizeUnit    *string
}

func (u ProductUpdate) empty() bool {
	return u.Name == nil && u.Brand == nil && u.CategoryID == nil &&
		u.Description == nil && u.SizeValue == nil && u.SizeUnit == nil
}

type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

func (s *ProductStore) Create(ctx context.Context, np NewProduct) (*domain.Product, error) {
	currency := np.Currency
	if currency == "" {
		currency = "USD"
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO products (uuid, name, brand, category_id, description, image_url, barcode,
			size_value, size_unit, standard_size, retail_price, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), np.Name, np.Brand, np.CategoryID, np.Description, np.ImageURL, np.Barcode,
		np.SizeValue, np.SizeUnit, np.StandardSize, np.RetailPrice, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ProductStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.queryOne(ctx, `SELECT `+productColumns+` `+productFrom+` WHERE p.id = ?`, id)
}

// FindExact returns the product whose brand and name equal the given values,
// ignoring case, or nil when there is none.
func (s *ProductStore) FindExact(ctx context.Context, brand, name string) (*domain.Product, error) {
	return s.queryOne(ctx, `SELECT `+productColumns+` `+productFrom+`
		WHERE fold(p.brand) = fold(?) AND fold(p.name) = fold(?)
		ORDER BY p.id ASC LIMIT 1
	`, brand, name)
}

// FindSimilar returns the product with the highest combined trigram score
// among those whose brand and name both score strictly above the match
// threshold, or nil when none qualifies.
func (s *ProductStore) FindSimilar(ctx context.Context, brand, name string) (*domain.Product, error) {
	return s.queryOne(ctx, `SELECT `+productColumns+` `+productFrom+`
		WHERE similarity(p.brand, ?) > ?
		  AND similarity(p.name, ?) > ?
		ORDER BY similarity(p.brand, ?) + similarity(p.name, ?) DESC, p.id ASC
		LIMIT 1
	`, brand, similarity.Threshold, name, similarity.Threshold, brand, name)
}

func (s *ProductStore) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, nil
	}
	return s.queryOne(ctx, `SELECT `+productColumns+` `+productFrom+`
		WHERE p.barcode = ? ORDER BY p.id ASC LIMIT 1
	`, barcode)
}

// FindMatch resolves a candidate against the catalog: exact brand and name
// first, then barcode, then fuzzy similarity. It returns the match kind,
// or MatchNone with a nil product.
func (s *ProductStore) FindMatch(ctx context.Context, brand, name, barcode string) (*domain.Product, string, error) {
	p, err := s.FindExact(ctx, brand, name)
	if err != nil || p != nil {
		return p, MatchExact, err
	}
	p, err = s.FindByBarcode(ctx, barcode)
	if err != nil || p != nil {
		return p, MatchBarcode, err
	}
	p, err = s.FindSimilar(ctx, brand, name)
	if err != nil || p != nil {
		return p, MatchFuzzy, err
	}
	return nil, MatchNone, nil
}

// Search matches query against brand and name, case-insensitively.
func (s *ProductStore) Search(ctx context.Context, query string, limit int) ([]*domain.Product, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` `+productFrom+`
		WHERE fold(p.brand) LIKE ? OR fold(p.name) LIKE ?
		ORDER BY p.brand ASC, p.name ASC
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer closeRows(rows)

	var products []*domain.Product
	for rows.Next() {
		p := &domain.Product{}
		if err := scanProduct(rows, p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func (s *ProductStore) SetImageURL(ctx context.Context, id int64, imageURL string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE products SET image_url = ? WHERE id = ?
	`, imageURL, id)
	if err != nil {
		return fmt.Errorf("failed to update product image: %w", err)
	}
	return expectAffected(result, "product")
}

func (s *ProductStore) queryOne(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	p := &domain.Product{}
	err := scanProduct(s.db.QueryRowContext(ctx, query, args...), p)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func updateProductTx(ctx context.Context, tx *sql.Tx, id int64, u ProductUpdate) error {
	if u.empty() {
		return nil
	}
	result, err := tx.ExecContext(ctx, `
		UPDATE products SET
			name        = COALESCE(?, name),
			brand       = COALESCE(?, brand),
			category_id = COALESCE(?, category_id),
			description = COALESCE(?, description),
			size_value  = COALESCE(?, size_value),
			size_unit   = COALESCE(?, size_unit)
		WHERE id = ?
	`, u.Name, u.Brand, u.CategoryID, u.Description, u.SizeValue, u.SizeUnit, id)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return expectAffected(result, "product")
}
