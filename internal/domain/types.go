package domain

import "time"

// Usage statuses of a UserProduct.
const (
	UsageNew      = "new"
	UsageInUse    = "in-use"
	UsageFinished = "finished"
)

// Times of day a Routine is performed.
const (
	TimeMorning = "morning"
	TimeEvening = "evening"
	TimeBoth    = "both"
)

// Product image kinds.
const (
	ImageMain      = "main"
	ImageThumbnail = "thumbnail"
)

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryCount is a category with the number of products a user owns in it.
type CategoryCount struct {
	Category
	ProductCount int `json:"product_count"`
}

// Product is a shared catalog entry, independent of any user.
type Product struct {
	ID           int64     `json:"id"`
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	Barcode      string    `json:"barcode"`
	SizeValue    *float64  `json:"size_value"`
	SizeUnit     string    `json:"size_unit"`
	StandardSize string    `json:"standard_size"`
	RetailPrice  *float64  `json:"retail_price"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
}

type ProductImage struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	ImageURL  string    `json:"image_url"`
	ImageType string    `json:"image_type"`
	SourceURL string    `json:"source_url"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProduct is one user's ownership record of a catalog Product.
type UserProduct struct {
	ID               int64      `json:"id"`
	UUID             string     `json:"uuid"`
	UserID           string     `json:"user_id"`
	ProductID        int64      `json:"product_id"`
	PurchaseDate     *time.Time `json:"purchase_date"`
	ExpiryDate       *time.Time `json:"expiry_date"`
	OpenedDate       *time.Time `json:"opened_date"`
	PurchasePrice    *float64   `json:"purchase_price"`
	PurchaseCurrency string     `json:"purchase_currency"`
	PurchaseLocation string     `json:"purchase_location"`
	UsageStatus      string     `json:"usage_status"`
	UsagePercentage  int        `json:"usage_percentage"`
	Notes            string     `json:"notes"`
	UserImageURL     string     `json:"user_image_url"`
	CreatedAt        time.Time  `json:"created_at"`
	Product          *Product   `json:"product,omitempty"`
}

type UsageHistory struct {
	ID              int64     `json:"id"`
	UserProductID   int64     `json:"user_product_id"`
	UsagePercentage int       `json:"usage_percentage"`
	UsageDate       time.Time `json:"usage_date"`
}

type Routine struct {
	ID          int64          `json:"id"`
	UUID        string         `json:"uuid"`
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	TimeOfDay   string         `json:"time_of_day"`
	CreatedAt   time.Time      `json:"created_at"`
	Steps       []*RoutineStep `json:"steps"`
}

type RoutineStep struct {
	ID         int64                 `json:"id"`
	UUID       string                `json:"uuid"`
	RoutineID  int64                 `json:"routine_id"`
	UserStepID *int64                `json:"user_step_id"`
	StepName   string                `json:"step_name"`
	StepOrder  int                   `json:"step_order"`
	CreatedAt  time.Time             `json:"created_at"`
	Products   []*RoutineStepProduct `json:"products"`
}

type RoutineStepProduct struct {
	ID            int64        `json:"id"`
	RoutineStepID int64        `json:"routine_step_id"`
	UserProductID int64        `json:"user_product_id"`
	Notes         string       `json:"notes"`
	CreatedAt     time.Time    `json:"created_at"`
	UserProduct   *UserProduct `json:"user_product,omitempty"`
}

// UserStep is a reusable step name in a user's personal library.
type UserStep struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// StepOrder assigns a new position to one routine step.
type StepOrder struct {
	ID    int64 `json:"id" validate:"required"`
	Order int   `json:"order" validate:"required,min=1"`
}

// ValidUsageStatus reports whether s is a known usage status.
func ValidUsageStatus(s string) bool {
	return s == UsageNew || s == UsageInUse || s == UsageFinished
}

// ValidTimeOfDay reports whether s is a known routine time of day.
func ValidTimeOfDay(s string) bool {
	return s == TimeMorning || s == TimeEvening || s == TimeBoth
}
