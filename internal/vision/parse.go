package vision

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedResponse is returned when the model's reply contains a JSON
// array that cannot be decoded.
var ErrMalformedResponse = errors.New("malformed vision response")

// rawProduct accepts the loose typing models produce: numbers as strings,
// barcodes as numbers, and nulls anywhere.
type rawProduct struct {
	Name         *string         `json:"name"`
	Brand        *string         `json:"brand"`
	Category     *string         `json:"category"`
	Description  *string         `json:"description"`
	SizeValue    json.RawMessage `json:"size_value"`
	SizeUnit     *string         `json:"size_unit"`
	StandardSize *string         `json:"standard_size"`
	Barcode      json.RawMessage `json:"barcode"`
	Confidence   *string         `json:"confidence"`
	Location     *string         `json:"location"`
}

// ParseResponse extracts the product array from a model reply. Text around
// the array, including markdown code fences, is ignored. A reply with no
// array yields no products.
func ParseResponse(raw string) ([]DetectedProduct, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < start {
		return []DetectedProduct{}, nil
	}

	var items []rawProduct
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	products := make([]DetectedProduct, 0, len(items))
	for _, it := range items {
		products = append(products, DetectedProduct{
			Name:         str(it.Name),
			Brand:        str(it.Brand),
			Category:     str(it.Category),
			Description:  str(it.Description),
			SizeValue:    number(it.SizeValue),
			SizeUnit:     str(it.SizeUnit),
			StandardSize: str(it.StandardSize),
			Barcode:      scalar(it.Barcode),
			Confidence:   strings.ToLower(str(it.Confidence)),
			Location:     str(it.Location),
		})
	}
	return products, nil
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// scalar renders a JSON string or number as text.
func scalar(m json.RawMessage) string {
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(m, &n); err == nil {
		return n.String()
	}
	return ""
}

// number parses a JSON number or numeric string such as "50" or "1.7 oz".
func number(m json.RawMessage) *float64 {
	text := scalar(m)
	if text == "" {
		return nil
	}
	if f := strings.Fields(text); len(f) > 0 {
		text = f[0]
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &v
}
