package domain

import "strings"

// categoryIDs mirrors the rows seeded into the categories table.
var categoryIDs = map[string]int64{
	"skincare":  1,
	"makeup":    2,
	"haircare":  3,
	"fragrance": 4,
	"body care": 5,
	"tools":     6,
}

// CategoryID resolves a category name, case-insensitively, to its ID.
func CategoryID(name string) (int64, bool) {
	id, ok := categoryIDs[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// ValidCategoryID reports whether id is one of the seeded categories.
func ValidCategoryID(id int64) bool {
	for _, v := range categoryIDs {
		if v == id {
			return true
		}
	}
	return false
}
