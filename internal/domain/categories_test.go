package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryID(t *testing.T) {
	tests := []struct {
		name   string
		wantID int64
		wantOK bool
	}{
		{"Skincare", 1, true},
		{"makeup", 2, true},
		{" Body Care ", 5, true},
		{"TOOLS", 6, true},
		{"Nail Polish", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := CategoryID(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestValidUsageStatus(t *testing.T) {
	assert.True(t, ValidUsageStatus("in-use"))
	assert.False(t, ValidUsageStatus("used"))
}

func TestValidTimeOfDay(t *testing.T) {
	assert.True(t, ValidTimeOfDay("both"))
	assert.False(t, ValidTimeOfDay("noon"))
}

func TestValidCategoryID(t *testing.T) {
	assert.True(t, ValidCategoryID(1))
	assert.True(t, ValidCategoryID(6))
	assert.False(t, ValidCategoryID(0))
	assert.False(t, ValidCategoryID(7))
}
