package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/beautytracker/internal/domain"
	"github.com/vbonduro/beautytracker/internal/imagesearch"
	"github.com/vbonduro/beautytracker/internal/metrics"
	"github.com/vbonduro/beautytracker/internal/photostore"
	"github.com/vbonduro/beautytracker/internal/store"
	"github.com/vbonduro/beautytracker/internal/vision"
)

// Outcomes of one identified candidate.
const (
	StatusCreated = "created"
	StatusMatched = "matched"
	StatusSkipped = "skipped"
)

// Skip reasons reported for rejected candidates.
const (
	ReasonMissingFields   = "missing brand or name"
	ReasonLowConfidence   = "low confidence"
	ReasonUnknownCategory = "unknown category"
)

const productSearchLimit = 20

// ItemResult is the outcome of one product the vision model reported.
type ItemResult struct {
	Status           string                 `json:"status"`
	Reason           string                 `json:"reason,omitempty"`
	IsNewProduct     bool                   `json:"isNewProduct"`
	IsNewUserProduct bool                   `json:"isNewUserProduct"`
	Product          *domain.Product        `json:"product"`
	UserProduct      *domain.UserProduct    `json:"user_product"`
	Confidence       string                 `json:"confidence"`
	Location         string                 `json:"location"`
	Detected         vision.DetectedProduct `json:"detected"`
}

type IdentifyResult struct {
	Items          []*ItemResult `json:"items"`
	SourceImageURL string        `json:"source_image_url,omitempty"`
}

type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// ProductDetail is a catalog product with its recorded images.
type ProductDetail struct {
	*domain.Product
	Images []*domain.ProductImage `json:"images"`
}

type CatalogService struct {
	products     productRepository
	images       productImageRepository
	categories   categoryRepository
	userProducts userProductRepository
	visionAPI    vision.VisionAnalyzer
	finder       imagesearch.Finder
	photoStg     photostore.PhotoStore
	logger       *slog.Logger
}

// NewCatalogService wires the identification pipeline. finder may be nil, in
// which case new products fall back to the uploaded photo.
func NewCatalogService(
	products productRepository,
	images productImageRepository,
	categories categoryRepository,
	userProducts userProductRepository,
	visionAPI vision.VisionAnalyzer,
	finder imagesearch.Finder,
	photoStg photostore.PhotoStore,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		products:     products,
		images:       images,
		categories:   categories,
		userProducts: userProducts,
		visionAPI:    visionAPI,
		finder:       finder,
		photoStg:     photoStg,
		logger:       logger,
	}
}

// sourceImage uploads the request photo on first use and returns its URL on
// every call after that.
type sourceImage struct {
	svc      *CatalogService
	userID   string
	data     []byte
	mimeType string

	done bool
	url  string
	err  error
}

func (s *sourceImage) URL(ctx context.Context) (string, error) {
	if !s.done {
		s.done = true
		var res *UploadResult
		res, s.err = s.svc.UploadImage(ctx, s.userID, s.data, s.mimeType)
		if s.err == nil {
			s.url = res.URL
		}
	}
	return s.url, s.err
}

// Identify runs the vision model over an image and records every accepted
// product in the catalog and in the user's inventory. Per-item failures are
// reported in the result; only a vision failure fails the call.
func (s *CatalogService) Identify(ctx context.Context, userID string, imageData []byte, mimeType string) (*IdentifyResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	s.logger.Info("identify started", "user_id", userID, "mime_type", mimeType, "bytes", len(imageData))

	analysis, err := s.visionAPI.Identify(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}
	s.logger.Info("vision analysis complete", "user_id", userID, "products_detected", len(analysis.Products))

	src := &sourceImage{svc: s, userID: userID, data: imageData, mimeType: mimeType}
	out := &IdentifyResult{Items: make([]*ItemResult, 0, len(analysis.Products))}
	for _, detected := range analysis.Products {
		item := s.identifyOne(ctx, userID, detected, src)
		metrics.IdentifiedItemsTotal.WithLabelValues(item.Status).Inc()
		out.Items = append(out.Items, item)
	}
	out.SourceImageURL = src.url

	s.logger.Info("identify complete", "user_id", userID, "items", len(out.Items))
	return out, nil
}

func (s *CatalogService) identifyOne(ctx context.Context, userID string, d vision.DetectedProduct, src *sourceImage) *ItemResult {
	item := &ItemResult{Status: StatusSkipped, Confidence: d.Confidence, Location: d.Location, Detected: d}
	brand, name := strings.TrimSpace(d.Brand), strings.TrimSpace(d.Name)

	if brand == "" || name == "" {
		item.Reason = ReasonMissingFields
		return item
	}
	if !d.Accepted() {
		item.Reason = ReasonLowConfidence
		return item
	}
	categoryID, ok := domain.CategoryID(d.Category)
	if !ok {
		item.Reason = ReasonUnknownCategory
		return item
	}

	product, kind, err := s.products.FindMatch(ctx, brand, name, d.Barcode)
	if err != nil {
		return s.skip(item, "failed to look up product", err)
	}
	if product == nil {
		product, err = s.products.Create(ctx, store.NewProduct{
			Name:         name,
			Brand:        brand,
			CategoryID:   categoryID,
			Description:  d.Description,
			Barcode:      strings.TrimSpace(d.Barcode),
			SizeValue:    d.SizeValue,
			SizeUnit:     d.SizeUnit,
			StandardSize: d.StandardSize,
		})
		if err != nil {
			return s.skip(item, "failed to create product", err)
		}
		item.IsNewProduct = true
		s.enrich(ctx, product, src)
	} else {
		s.logger.Debug("matched catalog product", "product_id", product.ID, "match", kind)
	}
	item.Product = product

	up, err := s.userProducts.FindByUserAndProduct(ctx, userID, product.ID)
	if err != nil {
		return s.skip(item, "failed to look up user product", err)
	}
	if up == nil {
		imageURL, err := src.URL(ctx)
		if err != nil {
			return s.skip(item, "failed to upload image", err)
		}
		up, err = s.userProducts.Create(ctx, store.NewUserProduct{
			UserID:       userID,
			ProductID:    product.ID,
			UsageStatus:  domain.UsageNew,
			UserImageURL: imageURL,
		})
		if err != nil {
			return s.skip(item, "failed to create user product", err)
		}
		item.IsNewUserProduct = true
	}
	item.UserProduct = up

	item.Status = StatusMatched
	if item.IsNewUserProduct {
		item.Status = StatusCreated
	}
	return item
}

func (s *CatalogService) skip(item *ItemResult, msg string, err error) *ItemResult {
	s.logger.Error(msg, "brand", item.Detected.Brand, "name", item.Detected.Name, "error", err)
	item.Status = StatusSkipped
	item.Reason = fmt.Sprintf("%s: %v", msg, err)
	return item
}

// enrich attaches a reference image to a newly created product. Failures are
// logged and leave the product without an image.
func (s *CatalogService) enrich(ctx context.Context, p *domain.Product, src *sourceImage) {
	var found *imagesearch.Result
	if s.finder != nil {
		r, err := s.finder.FindProductImage(ctx, p.Brand, p.Name)
		if err != nil {
			s.logger.Warn("product image search failed", "product_id", p.ID, "error", err)
		}
		found = r
	}

	if found != nil {
		s.setProductImage(ctx, p, found.ImageURL, found.SourceURL, found.Source)
		if found.ThumbnailURL != "" {
			if _, err := s.images.Create(ctx, p.ID, found.ThumbnailURL, domain.ImageThumbnail, found.SourceURL, found.Source); err != nil {
				s.logger.Error("failed to record thumbnail", "product_id", p.ID, "error", err)
			}
		}
		return
	}

	imageURL, err := src.URL(ctx)
	if err != nil {
		s.logger.Error("failed to upload fallback product image", "product_id", p.ID, "error", err)
		return
	}
	s.setProductImage(ctx, p, imageURL, "", "user")
}

func (s *CatalogService) setProductImage(ctx context.Context, p *domain.Product, imageURL, sourceURL, source string) {
	if err := s.products.SetImageURL(ctx, p.ID, imageURL); err != nil {
		s.logger.Error("failed to set product image", "product_id", p.ID, "error", err)
		return
	}
	p.ImageURL = imageURL
	if _, err := s.images.Create(ctx, p.ID, imageURL, domain.ImageMain, sourceURL, source); err != nil {
		s.logger.Error("failed to record product image", "product_id", p.ID, "error", err)
	}
}

// UploadImage stores a product photo for userID and returns its public URL.
func (s *CatalogService) UploadImage(ctx context.Context, userID string, imageData []byte, mimeType string) (*UploadResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	key, err := s.photoStg.Save(ctx, userKeyPrefix("products", userID), mimeType, bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}
	s.logger.Debug("image saved", "user_id", userID, "storage_key", key)
	return &UploadResult{URL: s.photoStg.URL(key), Key: key}, nil
}

// FindProductImage looks up a reference image. It returns nil when image
// search is not configured or nothing was found.
func (s *CatalogService) FindProductImage(ctx context.Context, brand, name string) (*imagesearch.Result, error) {
	brand, name = strings.TrimSpace(brand), strings.TrimSpace(name)
	if brand == "" || name == "" {
		return nil, invalidf("brand and name are required")
	}
	if s.finder == nil {
		return nil, nil
	}
	return s.finder.FindProductImage(ctx, brand, name)
}

func (s *CatalogService) ListCategories(ctx context.Context, userID string) ([]*domain.CategoryCount, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.categories.ListWithCounts(ctx, userID)
}

// SearchProducts matches query against catalog brands and names.
func (s *CatalogService) SearchProducts(ctx context.Context, query string) ([]*domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*domain.Product{}, nil
	}
	products, err := s.products.Search(ctx, query, productSearchLimit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*ProductDetail, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound("product")
	}
	images, err := s.images.ListByProductID(ctx, id)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []*domain.ProductImage{}
	}
	return &ProductDetail{Product: p, Images: images}, nil
}
