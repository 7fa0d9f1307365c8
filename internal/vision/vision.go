package vision

import (
	"context"
	"io"
)

// IdentifyPrompt is the shared prompt used by all vision adapters.
const IdentifyPrompt = `Identify every cosmetic product visible in this photo.
Respond with a JSON array only, one object per product, most clearly visible first:
[
  {
    "name": "full product name",
    "brand": "brand name",
    "category": "one of: Skincare, Makeup, Haircare, Fragrance, Body Care, Tools",
    "description": "brief product description",
    "size_value": numeric size if visible,
    "size_unit": "ml, g, oz, ...",
    "standard_size": "Full Size, Travel Size or Mini",
    "barcode": "barcode digits if visible",
    "confidence": "high, medium or low",
    "location": "where the product appears in the photo, e.g. left side"
  }
]
Use null for any field you cannot determine. Include partially identified products.`

// Confidence levels reported by the model.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

type VisionAnalyzer interface {
	Identify(ctx context.Context, r io.Reader, mimeType string) (*AnalysisResult, error)
}

type AnalysisResult struct {
	Products    []DetectedProduct
	RawResponse string
}

// DetectedProduct is one product candidate as described by the model.
type DetectedProduct struct {
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Category     string   `json:"category"`
	Description  string   `json:"description"`
	SizeValue    *float64 `json:"size_value"`
	SizeUnit     string   `json:"size_unit"`
	StandardSize string   `json:"standard_size"`
	Barcode      string   `json:"barcode"`
	Confidence   string   `json:"confidence"`
	Location     string   `json:"location"`
}

// Accepted reports whether the model was confident enough for the candidate
// to be stored.
func (p DetectedProduct) Accepted() bool {
	return p.Confidence == ConfidenceHigh || p.Confidence == ConfidenceMedium
}
