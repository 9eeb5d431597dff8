package domain

import "strings"

// Category is one of the fixed expense labels.
type Category string

// The fixed category set, in canonical order.
const (
	CategoryTravel        Category = "Travel"
	CategoryEntertainment Category = "Entertainment"
	CategoryFoodAndDrink  Category = "Food & Drink"
	CategoryClothes       Category = "Clothes"
	CategoryAppliances    Category = "Appliances"
	CategoryServices      Category = "Services"
	CategoryOther         Category = "Other"
)

var categories = [...]Category{
	CategoryTravel,
	CategoryEntertainment,
	CategoryFoodAndDrink,
	CategoryClothes,
	CategoryAppliances,
	CategoryServices,
	CategoryOther,
}

// Categories returns the fixed category set in canonical order.
// The returned slice is a copy and may be modified by the caller.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories[:])
	return out
}

// CategoryNames returns the labels of Categories as plain strings.
func CategoryNames() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

// IsValid reports whether c is exactly one of the fixed labels (case-sensitive).
func (c Category) IsValid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory normalizes a stored or user-supplied label to a member of the
// fixed set. Matching ignores case and surrounding whitespace.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, known := range categories {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// NormalizeCategory is ParseCategory that maps anything unknown to Other.
func NormalizeCategory(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return CategoryOther
}
