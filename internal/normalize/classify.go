package normalize

import (
	"strings"

	"phillysafe/pkg/models"
)

// keyword table for free-text crime types, checked in order
var textCategories = []struct {
	category models.Category
	keywords []string
}{
	{models.CategoryVehicle, []string{"vehicle", "auto", "dui", "carjack", "motor"}},
	{models.CategoryViolent, []string{"assault", "robbery", "homicide", "murder", "shooting", "rape", "domestic", "aggravated"}},
	{models.CategoryProperty, []string{"theft", "burglary", "fraud", "larceny", "stolen", "shoplift", "embezzle"}},
	{models.CategoryDrug, []string{"drug", "narcotic"}},
	{models.CategoryVandalism, []string{"vandalism", "graffiti", "mischief"}},
}

// ClassifyText buckets a free-text crime type. An exact category name is
// kept as is.
func ClassifyText(crimeType string) models.Category {
	s := strings.ToLower(strings.TrimSpace(crimeType))
	if s == "" {
		return models.CategoryOther
	}
	if c, ok := models.ParseCategory(s); ok {
		return c
	}
	for _, tc := range textCategories {
		for _, kw := range tc.keywords {
			if strings.Contains(s, kw) {
				return tc.category
			}
		}
	}
	return models.CategoryOther
}
