package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/beautytracker/internal/domain"
	"github.com/vbonduro/beautytracker/internal/photostore"
	"github.com/vbonduro/beautytracker/internal/store"
)

// CreateUserProductInput describes a product added to the inventory by hand.
type CreateUserProductInput struct {
	Brand            string
	Name             string
	CategoryID       int64
	Description      string
	Barcode          string
	SizeValue        *float64
	SizeUnit         string
	StandardSize     string
	ImageURL         string
	PurchaseDate     *time.Time
	OpenedDate       *time.Time
	ExpiryDate       *time.Time
	PurchasePrice    *float64
	PurchaseCurrency string
	PurchaseLocation string
	Notes            string
}

type InventoryService struct {
	products     productRepository
	userProducts userProductRepository
	photoStg     photostore.PhotoStore
	logger       *slog.Logger
}

func NewInventoryService(
	products productRepository,
	userProducts userProductRepository,
	photoStg photostore.PhotoStore,
	logger *slog.Logger,
) *InventoryService {
	return &InventoryService{
		products:     products,
		userProducts: userProducts,
		photoStg:     photoStg,
		logger:       logger,
	}
}

func (s *InventoryService) List(ctx context.Context, userID string, f store.UserProductFilter) ([]*domain.UserProduct, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	ups, err := s.userProducts.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if ups == nil {
		ups = []*domain.UserProduct{}
	}
	return ups, nil
}

// Get returns the user product if userID owns it. Products owned by someone
// else are reported as not found.
func (s *InventoryService) Get(ctx context.Context, userID string, id int64) (*domain.UserProduct, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	up, err := s.userProducts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if up == nil || up.UserID != userID {
		return nil, notFound("user product")
	}
	return up, nil
}

// Create adds a product to the user's inventory, reusing a matching catalog
// product when one exists.
func (s *InventoryService) Create(ctx context.Context, userID string, in CreateUserProductInput) (*domain.UserProduct, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	brand, name := strings.TrimSpace(in.Brand), strings.TrimSpace(in.Name)
	if brand == "" || name == "" {
		return nil, invalidf("brand and name are required")
	}
	if !domain.ValidCategoryID(in.CategoryID) {
		return nil, invalidf("unknown category %d", in.CategoryID)
	}

	product, _, err := s.products.FindMatch(ctx, brand, name, in.Barcode)
	if err != nil {
		return nil, err
	}
	if product == nil {
		product, err = s.products.Create(ctx, store.NewProduct{
			Name:         name,
			Brand:        brand,
			CategoryID:   in.CategoryID,
			Description:  in.Description,
			ImageURL:     in.ImageURL,
			Barcode:      strings.TrimSpace(in.Barcode),
			SizeValue:    in.SizeValue,
			SizeUnit:     in.SizeUnit,
			StandardSize: in.StandardSize,
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("product created", "product_id", product.ID, "brand", brand, "name", name)
	}

	return s.userProducts.Create(ctx, store.NewUserProduct{
		UserID:           userID,
		ProductID:        product.ID,
		PurchaseDate:     in.PurchaseDate,
		OpenedDate:       in.OpenedDate,
		ExpiryDate:       in.ExpiryDate,
		PurchasePrice:    in.PurchasePrice,
		PurchaseCurrency: strings.ToUpper(in.PurchaseCurrency),
		PurchaseLocation: in.PurchaseLocation,
		UsageStatus:      domain.UsageNew,
		Notes:            in.Notes,
		UserImageURL:     in.ImageURL,
	})
}

// Update applies catalog and inventory edits to an owned product atomically.
func (s *InventoryService) Update(ctx context.Context, userID string, id int64, pu store.ProductUpdate, upu store.UserProductUpdate) (*domain.UserProduct, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := validateUpdate(pu, upu); err != nil {
		return nil, err
	}
	if err := s.userProducts.Update(ctx, id, userID, pu, upu); err != nil {
		return nil, translate(err, "user product")
	}
	return s.Get(ctx, userID, id)
}

func validateUpdate(pu store.ProductUpdate, upu store.UserProductUpdate) error {
	if pu.Name != nil && strings.TrimSpace(*pu.Name) == "" {
		return invalidf("name cannot be empty")
	}
	if pu.Brand != nil && strings.TrimSpace(*pu.Brand) == "" {
		return invalidf("brand cannot be empty")
	}
	if pu.CategoryID != nil && !domain.ValidCategoryID(*pu.CategoryID) {
		return invalidf("unknown category %d", *pu.CategoryID)
	}
	if upu.UsageStatus != nil && !domain.ValidUsageStatus(*upu.UsageStatus) {
		return invalidf("unknown usage status %q", *upu.UsageStatus)
	}
	if upu.UsagePercentage != nil && (*upu.UsagePercentage < 0 || *upu.UsagePercentage > 100) {
		return invalidf("usage percentage must be between 0 and 100")
	}
	return nil
}

func (s *InventoryService) Delete(ctx context.Context, userID string, id int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return translate(s.userProducts.Delete(ctx, id, userID), "user product")
}

// UploadPhoto stores the user's own photo of an owned product.
func (s *InventoryService) UploadPhoto(ctx context.Context, userID string, id int64, imageData []byte, mimeType string) (*domain.UserProduct, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	key, err := s.photoStg.Save(ctx, userKeyPrefix("user-products", userID), mimeType, bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	if err := s.userProducts.SetUserImage(ctx, id, userID, s.photoStg.URL(key)); err != nil {
		if derr := s.photoStg.Delete(ctx, key); derr != nil {
			s.logger.Error("failed to remove orphaned photo", "storage_key", key, "error", derr)
		}
		return nil, translate(err, "user product")
	}
	return s.Get(ctx, userID, id)
}

// RecordUsage appends a usage reading and updates the product's current
// percentage. Reaching 100 marks the product finished; a new product that
// has been started becomes in-use.
func (s *InventoryService) RecordUsage(ctx context.Context, userID string, id int64, percentage int) (*domain.UsageHistory, *domain.UserProduct, error) {
	if percentage < 0 || percentage > 100 {
		return nil, nil, invalidf("usage percentage must be between 0 and 100")
	}
	up, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}

	entry, err := s.userProducts.SetUsage(ctx, id, userID, percentage, usageStatus(up.UsageStatus, percentage))
	if err != nil {
		return nil, nil, translate(err, "user product")
	}
	up, err = s.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	return entry, up, nil
}

func usageStatus(current string, percentage int) string {
	switch {
	case percentage >= 100:
		return domain.UsageFinished
	case percentage > 0 && current == domain.UsageNew:
		return domain.UsageInUse
	default:
		return current
	}
}

func (s *InventoryService) UsageHistory(ctx context.Context, userID string, id int64) ([]*domain.UsageHistory, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	history, err := s.userProducts.ListUsage(ctx, id)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []*domain.UsageHistory{}
	}
	return history, nil
}
