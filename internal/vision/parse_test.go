package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	raw := `[
		{"name": "Hydrating Cleanser", "brand": "CeraVe", "category": "Skincare",
		 "description": "Gentle face wash", "size_value": "236", "size_unit": "ml",
		 "standard_size": "Full Size", "barcode": null, "confidence": "High", "location": "left side"}
	]`

	products, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, "Hydrating Cleanser", p.Name)
	assert.Equal(t, "CeraVe", p.Brand)
	assert.Equal(t, "Skincare", p.Category)
	require.NotNil(t, p.SizeValue)
	assert.InDelta(t, 236.0, *p.SizeValue, 1e-9)
	assert.Equal(t, "ml", p.SizeUnit)
	assert.Empty(t, p.Barcode)
	assert.Equal(t, "high", p.Confidence)
	assert.Equal(t, "left side", p.Location)
}

func TestParseResponseCodeFence(t *testing.T) {
	raw := "Here is what I found:\n```json\n[{\"name\": \"Ruby Woo\", \"brand\": \"MAC\", \"confidence\": \"medium\"}]\n```\nLet me know!"

	products, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "MAC", products[0].Brand)
}

func TestParseResponseLooseTypes(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantSize    *float64
		wantBarcode string
	}{
		{"numeric size", `[{"size_value": 50}]`, ptr(50.0), ""},
		{"size with unit", `[{"size_value": "1.7 oz"}]`, ptr(1.7), ""},
		{"unparseable size", `[{"size_value": "large"}]`, nil, ""},
		{"numeric barcode", `[{"barcode": 3606000537477}]`, nil, "3606000537477"},
		{"string barcode", `[{"barcode": " 0123 "}]`, nil, "0123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := ParseResponse(tt.raw)
			require.NoError(t, err)
			require.Len(t, products, 1)
			if tt.wantSize == nil {
				assert.Nil(t, products[0].SizeValue)
			} else {
				require.NotNil(t, products[0].SizeValue)
				assert.InDelta(t, *tt.wantSize, *products[0].SizeValue, 1e-9)
			}
			assert.Equal(t, tt.wantBarcode, products[0].Barcode)
		})
	}
}

func TestParseResponseNoArray(t *testing.T) {
	products, err := ParseResponse("I could not see any cosmetic products in this photo.")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestParseResponseMalformed(t *testing.T) {
	_, err := ParseResponse(`[{"name": "Cleanser", "brand": }]`)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestDetectedProductAccepted(t *testing.T) {
	assert.True(t, DetectedProduct{Confidence: "high"}.Accepted())
	assert.True(t, DetectedProduct{Confidence: "medium"}.Accepted())
	assert.False(t, DetectedProduct{Confidence: "low"}.Accepted())
	assert.False(t, DetectedProduct{}.Accepted())
}

func ptr[T any](v T) *T { return &v }
