package web

import (
	"net/http"
	"strconv"

	"github.com/vbonduro/beautytracker/internal/auth"
	"github.com/vbonduro/beautytracker/internal/service"
	"github.com/vbonduro/beautytracker/internal/store"
)

type createUserProductRequest struct {
	Brand            string   `json:"brand" validate:"required,max=200"`
	Name             string   `json:"name" validate:"required,max=300"`
	CategoryID       int64    `json:"category_id" validate:"required,min=1"`
	Description      string   `json:"description" validate:"max=2000"`
	Barcode          string   `json:"barcode" validate:"max=64"`
	SizeValue        *float64 `json:"size_value" validate:"omitempty,gt=0"`
	SizeUnit         string   `json:"size_unit" validate:"max=20"`
	StandardSize     string   `json:"standard_size" validate:"max=50"`
	ImageURL         string   `json:"image_url" validate:"omitempty,max=2048"`
	PurchaseDate     *string  `json:"purchase_date"`
	OpenedDate       *string  `json:"opened_date"`
	ExpiryDate       *string  `json:"expiry_date"`
	PurchasePrice    *float64 `json:"purchase_price" validate:"omitempty,gte=0"`
	PurchaseCurrency string   `json:"purchase_currency" validate:"omitempty,len=3"`
	PurchaseLocation string   `json:"purchase_location" validate:"max=200"`
	Notes            string   `json:"notes" validate:"max=2000"`
}

// updateUserProductRequest carries a partial edit of both the catalog
// product and the user's inventory entry. Absent fields are left unchanged.
type updateUserProductRequest struct {
	Brand            *string  `json:"brand" validate:"omitempty,max=200"`
	Name             *string  `json:"name" validate:"omitempty,max=300"`
	CategoryID       *int64   `json:"category_id" validate:"omitempty,min=1"`
	Description      *string  `json:"description" validate:"omitempty,max=2000"`
	SizeValue        *float64 `json:"size_value" validate:"omitempty,gt=0"`
	SizeUnit         *string  `json:"size_unit" validate:"omitempty,max=20"`
	UsageStatus      *string  `json:"usage_status" validate:"omitempty,oneof=new in-use finished"`
	UsagePercentage  *int     `json:"usage_percentage" validate:"omitempty,min=0,max=100"`
	Notes            *string  `json:"notes" validate:"omitempty,max=2000"`
	PurchaseDate     *string  `json:"purchase_date"`
	OpenedDate       *string  `json:"opened_date"`
	ExpiryDate       *string  `json:"expiry_date"`
	PurchasePrice    *float64 `json:"purchase_price" validate:"omitempty,gte=0"`
	PurchaseCurrency *string  `json:"purchase_currency" validate:"omitempty,len=3"`
	PurchaseLocation *string  `json:"purchase_location" validate:"omitempty,max=200"`
}

type recordUsageRequest struct {
	UsagePercentage *int `json:"usage_percentage" validate:"required,min=0,max=100"`
}

func (s *Server) handleListUserProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.UserProductFilter{Query: q.Get("q")}
	if c := q.Get("category_id"); c != "" {
		id, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			s.writeError(w, r, badRequest("invalid category_id"))
			return
		}
		f.CategoryID = id
	}

	ups, err := s.svc.Inventory.List(r.Context(), auth.UserID(r.Context()), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, ups)
}

func (s *Server) handleCreateUserProduct(w http.ResponseWriter, r *http.Request) {
	var req createUserProductRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	in := service.CreateUserProductInput{
		Brand:            req.Brand,
		Name:             req.Name,
		CategoryID:       req.CategoryID,
		Description:      req.Description,
		Barcode:          req.Barcode,
		SizeValue:        req.SizeValue,
		SizeUnit:         req.SizeUnit,
		StandardSize:     req.StandardSize,
		ImageURL:         req.ImageURL,
		PurchasePrice:    req.PurchasePrice,
		PurchaseCurrency: req.PurchaseCurrency,
		PurchaseLocation: req.PurchaseLocation,
		Notes:            req.Notes,
	}
	var err error
	if in.PurchaseDate, err = parseDate("purchase_date", req.PurchaseDate); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.OpenedDate, err = parseDate("opened_date", req.OpenedDate); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.ExpiryDate, err = parseDate("expiry_date", req.ExpiryDate); err != nil {
		s.writeError(w, r, err)
		return
	}

	up, err := s.svc.Inventory.Create(r.Context(), auth.UserID(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, up)
}

func (s *Server) handleGetUserProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	up, err := s.svc.Inventory.Get(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, up)
}

func (s *Server) handleUpdateUserProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateUserProductRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	pu := store.ProductUpdate{
		Name:        req.Name,
		Brand:       req.Brand,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		SizeValue:   req.SizeValue,
		SizeUnit:    req.SizeUnit,
	}
	upu := store.UserProductUpdate{
		UsageStatus:      req.UsageStatus,
		UsagePercentage:  req.UsagePercentage,
		Notes:            req.Notes,
		PurchasePrice:    req.PurchasePrice,
		PurchaseCurrency: req.PurchaseCurrency,
		PurchaseLocation: req.PurchaseLocation,
	}
	if upu.PurchaseDate, err = parseDate("purchase_date", req.PurchaseDate); err != nil {
		s.writeError(w, r, err)
		return
	}
	if upu.OpenedDate, err = parseDate("opened_date", req.OpenedDate); err != nil {
		s.writeError(w, r, err)
		return
	}
	if upu.ExpiryDate, err = parseDate("expiry_date", req.ExpiryDate); err != nil {
		s.writeError(w, r, err)
		return
	}

	up, err := s.svc.Inventory.Update(r.Context(), auth.UserID(r.Context()), id, pu, upu)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, up)
}

func (s *Server) handleDeleteUserProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Inventory.Delete(r.Context(), auth.UserID(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, nil)
}

func (s *Server) handleRecordUsage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req recordUsageRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	entry, up, err := s.svc.Inventory.RecordUsage(r.Context(), auth.UserID(r.Context()), id, *req.UsagePercentage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, map[string]any{"usage": entry, "user_product": up})
}

func (s *Server) handleUsageHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	history, err := s.svc.Inventory.UsageHistory(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, history)
}
