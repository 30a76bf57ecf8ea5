// Package router classifies a question into a closed set of categories and
// answers it with the strategy bound to that category.
package router

import (
	"fmt"
	"strings"
)

// Category is the closed label set produced by the classifier.
type Category string

const (
	Factual     Category = "factual"
	Analytical  Category = "analytical"
	Comparison  Category = "comparison"
	Definition  Category = "definition"
	Calculation Category = "calculation"
	Datetime    Category = "datetime"
	Default     Category = "default"
)

// AllCategories lists every category known to the dispatcher.
func AllCategories() []Category {
	return []Category{Factual, Analytical, Comparison, Definition, Calculation, Datetime, Default}
}

// Variant selects which categories the classifier may produce.
type Variant int

const (
	// VariantBasic answers everything by direct generation.
	VariantBasic Variant = iota
	// VariantTools adds the calculation and datetime tool branches.
	VariantTools
)

func (v Variant) String() string {
	switch v {
	case VariantBasic:
		return "basic"
	case VariantTools:
		return "tools"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant accepts "basic" or "tools".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic":
		return VariantBasic, nil
	case "tools", "":
		return VariantTools, nil
	default:
		return 0, fmt.Errorf("unknown router variant %q", s)
	}
}

// Categories returns the labels this variant accepts.
func (v Variant) Categories() []Category {
	if v == VariantTools {
		return AllCategories()
	}
	return []Category{Factual, Analytical, Comparison, Definition, Default}
}

// Allows reports whether c belongs to the variant.
func (v Variant) Allows(c Category) bool {
	for _, known := range v.Categories() {
		if known == c {
			return true
		}
	}
	return false
}

// Normalize maps raw classifier output onto the variant's label set. It is
// total: anything that is not exactly a known label after trimming and
// lower-casing becomes Default.
func Normalize(raw string, v Variant) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if v.Allows(c) {
		return c
	}
	return Default
}
