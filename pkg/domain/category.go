package domain

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// Category is one of the four houses a subject can be sorted into.
type Category string

const (
	CategoryGryffindor Category = "gryffindor"
	CategoryHufflepuff Category = "hufflepuff"
	CategoryRavenclaw  Category = "ravenclaw"
	CategorySlytherin  Category = "slytherin"
)

// DefaultCategory is used whenever a model answer cannot be mapped onto a house.
const DefaultCategory = CategoryGryffindor

// AllCategories lists the houses in canonical enumeration order. Heuristic
// matching walks this order, so it doubles as the match priority.
var AllCategories = []Category{
	CategoryGryffindor,
	CategoryHufflepuff,
	CategoryRavenclaw,
	CategorySlytherin,
}

var validCategories = map[string]Category{
	string(CategoryGryffindor): CategoryGryffindor,
	string(CategoryHufflepuff): CategoryHufflepuff,
	string(CategoryRavenclaw):  CategoryRavenclaw,
	string(CategorySlytherin):  CategorySlytherin,
}

// ParseCategory canonicalizes raw into a Category. Matching is case-insensitive
// and tolerant of surrounding whitespace and punctuation.
func ParseCategory(raw string) (Category, error) {
	key := slug.Make(strings.TrimSpace(raw))

	category, ok := validCategories[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
	}

	return category, nil
}

func (c Category) IsValid() bool {
	_, ok := validCategories[string(c)]
	return ok
}

func (c Category) String() string {
	return string(c)
}
