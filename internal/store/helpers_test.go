package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vbonduro/beautytracker/internal/db"
	"github.com/vbonduro/beautytracker/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func mustProduct(t *testing.T, s *ProductStore, brand, name string) *domain.Product {
	t.Helper()
	p, err := s.Create(context.Background(), NewProduct{Brand: brand, Name: name, CategoryID: 1})
	require.NoError(t, err)
	return p
}

func mustUserProduct(t *testing.T, d *sql.DB, userID, brand, name string) *domain.UserProduct {
	t.Helper()
	p := mustProduct(t, NewProductStore(d), brand, name)
	up, err := NewUserProductStore(d).Create(context.Background(), NewUserProduct{UserID: userID, ProductID: p.ID})
	require.NoError(t, err)
	return up
}

func ptr[T any](v T) *T { return &v }
