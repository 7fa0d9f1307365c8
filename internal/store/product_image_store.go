package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/beautytracker/internal/domain"
)

type ProductImageStore struct {
	db *sql.DB
}

func NewProductImageStore(db *sql.DB) *ProductImageStore {
	return &ProductImageStore{db: db}
}

func (s *ProductImageStore) Create(ctx context.Context, productID int64, imageURL, imageType, sourceURL, source string) (*domain.ProductImage, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO product_images (product_id, image_url, image_type, source_url, source)
		VALUES (?, ?, ?, ?, ?)
	`, productID, imageURL, imageType, sourceURL, source)
	if err != nil {
		return nil, fmt.Errorf("failed to create product image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	img := &domain.ProductImage{}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, product_id, image_url, image_type, source_url, source, created_at
		FROM product_images WHERE id = ?
	`, id).Scan(&img.ID, &img.ProductID, &img.ImageURL, &img.ImageType, &img.SourceURL, &img.Source, &img.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get product image: %w", err)
	}
	return img, nil
}

func (s *ProductImageStore) ListByProductID(ctx context.Context, productID int64) ([]*domain.ProductImage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, image_url, image_type, source_url, source, created_at
		FROM product_images WHERE product_id = ? ORDER BY id ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	defer closeRows(rows)

	var images []*domain.ProductImage
	for rows.Next() {
		img := &domain.ProductImage{}
		if err := rows.Scan(&img.ID, &img.ProductID, &img.ImageURL, &img.ImageType, &img.SourceURL, &img.Source, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}

	return images, nil
}
