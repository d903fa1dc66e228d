package domain

import dErrors "examboard/pkg/domain-errors"

// Category is the seat pool a registrant consumes.
// Invariant: the value must be one of the supported categories.
//
// Construct via ParseCategory at trust boundaries; direct casting bypasses validation.
type Category string

const (
	CategoryRegular   Category = "regular"
	CategoryIrregular Category = "irregular"
)

var validCategories = map[Category]bool{
	CategoryRegular:   true,
	CategoryIrregular: true,
}

// ParseCategory constructs a Category from external input.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "category is required")
	}
	c := Category(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid category")
	}
	return c, nil
}

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	return validCategories[c]
}

func (c Category) String() string {
	return string(c)
}
