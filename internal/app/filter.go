package app

import (
	"strings"

	"github.com/campusplug/campusplug/internal/model"
)

// FilterItems returns the items whose name or category contains query
// (case-insensitive) and whose category equals category. An empty
// category or model.CategoryAll matches every category.
func FilterItems(items []model.Item, query, category string) []model.Item {
	q := strings.ToLower(query)
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if matchesQuery(it, q) && matchesCategory(it, category) {
			out = append(out, it)
		}
	}
	return out
}

func matchesQuery(it model.Item, q string) bool {
	return strings.Contains(strings.ToLower(it.Name), q) ||
		strings.Contains(strings.ToLower(it.Category), q)
}

func matchesCategory(it model.Item, category string) bool {
	return category == "" || category == model.CategoryAll || it.Category == category
}
