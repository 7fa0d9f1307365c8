package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/beautytracker/internal/domain"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// ListWithCounts returns every category with the number of products userID
// owns in it.
func (s *CategoryStore) ListWithCounts(ctx context.Context, userID string) ([]*domain.CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.created_at, COUNT(up.id)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		LEFT JOIN user_products up ON up.product_id = p.id AND up.user_id = ?
		GROUP BY c.id
		ORDER BY c.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer closeRows(rows)

	var categories []*domain.CategoryCount
	for rows.Next() {
		c := &domain.CategoryCount{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}
