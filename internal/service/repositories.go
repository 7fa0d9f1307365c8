package service

import (
	"context"

	"github.com/vbonduro/beautytracker/internal/domain"
	"github.com/vbonduro/beautytracker/internal/store"
)

// productRepository is the subset of store.ProductStore the services require.
type productRepository interface {
	Create(ctx context.Context, np store.NewProduct) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	FindMatch(ctx context.Context, brand, name, barcode string) (*domain.Product, string, error)
	Search(ctx context.Context, query string, limit int) ([]*domain.Product, error)
	SetImageURL(ctx context.Context, id int64, imageURL string) error
}

// productImageRepository is the subset of store.ProductImageStore CatalogService requires.
type productImageRepository interface {
	Create(ctx context.Context, productID int64, imageURL, imageType, sourceURL, source string) (*domain.ProductImage, error)
	ListByProductID(ctx context.Context, productID int64) ([]*domain.ProductImage, error)
}

type categoryRepository interface {
	ListWithCounts(ctx context.Context, userID string) ([]*domain.CategoryCount, error)
}

// userProductRepository is the subset of store.UserProductStore the services require.
type userProductRepository interface {
	Create(ctx context.Context, nup store.NewUserProduct) (*domain.UserProduct, error)
	GetByID(ctx context.Context, id int64) (*domain.UserProduct, error)
	FindByUserAndProduct(ctx context.Context, userID string, productID int64) (*domain.UserProduct, error)
	List(ctx context.Context, userID string, f store.UserProductFilter) ([]*domain.UserProduct, error)
	Update(ctx context.Context, id int64, userID string, pu store.ProductUpdate, upu store.UserProductUpdate) error
	SetUsage(ctx context.Context, id int64, userID string, percentage int, status string) (*domain.UsageHistory, error)
	ListUsage(ctx context.Context, id int64) ([]*domain.UsageHistory, error)
	SetUserImage(ctx context.Context, id int64, userID, imageURL string) error
	Delete(ctx context.Context, id int64, userID string) error
}

// routineRepository is the subset of store.RoutineStore RoutineService requires.
type routineRepository interface {
	Create(ctx context.Context, userID, name, description, timeOfDay string) (*domain.Routine, error)
	GetByID(ctx context.Context, id int64) (*domain.Routine, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Routine, error)
	Update(ctx context.Context, id int64, userID, name string, description *string) error
	Delete(ctx context.Context, id int64, userID string) error
	GetStep(ctx context.Context, routineID, stepID int64) (*domain.RoutineStep, error)
	CreateStep(ctx context.Context, routineID int64, name string, userStepID *int64) (*domain.RoutineStep, error)
	CreateStepWithProduct(ctx context.Context, routineID int64, name string, userProductID int64, notes string) (*domain.RoutineStepProduct, error)
	RenameStep(ctx context.Context, routineID, stepID int64, name string) error
	DeleteStep(ctx context.Context, routineID, stepID int64) error
	ReorderSteps(ctx context.Context, routineID int64, orders []domain.StepOrder) error
	AddProductToStep(ctx context.Context, stepID, userProductID int64, notes string) (*domain.RoutineStepProduct, error)
	UpdateStepProductNotes(ctx context.Context, stepID, userProductID int64, notes string) error
	RemoveProductFromStep(ctx context.Context, stepID, userProductID int64) error
}

type userStepRepository interface {
	Create(ctx context.Context, userID, name string) (*domain.UserStep, error)
	CreateMany(ctx context.Context, userID string, names []string) error
	GetByID(ctx context.Context, id int64) (*domain.UserStep, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.UserStep, error)
	Update(ctx context.Context, id int64, userID, name string) error
	Delete(ctx context.Context, id int64, userID string) error
}
