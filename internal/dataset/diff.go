package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Diff is one incremental submission. Everything is referenced by slug;
// the ingredients array is supposed to list only genuinely new
// ingredients, but restating an existing one is tolerated (the merger
// reuses the existing id).
type Diff struct {
	Recipes     []DiffRecipe     `json:"recipes"`
	Ingredients []DiffIngredient `json:"ingredients"`
	Aliases     []DiffAlias      `json:"aliases"`
	Entries     []DiffEntry      `json:"entries"`
}

// DiffRecipe declares a new recipe.
type DiffRecipe struct {
	Slug     string `json:"slug"`
	Label    string `json:"label"`
	Source   string `json:"source,omitempty"`
	Language string `json:"language,omitempty"`
	Date     *int   `json:"date,omitempty"`
}

// DiffIngredient declares a new (or restated) ingredient.
type DiffIngredient struct {
	Slug     string `json:"slug"`
	Label    string `json:"label"`
	Language string `json:"language,omitempty"`
}

// DiffAlias attaches a variant label to an ingredient, referenced by slug.
type DiffAlias struct {
	IngredientSlug string `json:"ingredient_slug"`
	VariantLabel   string `json:"variant_label"`
	Language       string `json:"language,omitempty"`
	Source         string `json:"source,omitempty"`
}

// DiffEntry records one ingredient usage, referenced by slugs.
type DiffEntry struct {
	RecipeSlug     string   `json:"recipe_slug"`
	IngredientSlug string   `json:"ingredient_slug"`
	AmountRaw      *string  `json:"amount_raw"`
	AmountValue    *float64 `json:"amount_value,omitempty"`
	AmountUnit     *string  `json:"amount_unit,omitempty"`
	Preparation    *string  `json:"preparation,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
	SourceCitation *string  `json:"source_citation,omitempty"`
	SourceSpan     *string  `json:"source_span,omitempty"`
}

// ParseDiff decodes a diff document. Unknown fields are rejected so that
// a typo'd optional field surfaces instead of silently dropping data.
// Shape and reference validation live in the schema package; this only
// guarantees well-formed JSON of the right Go shape.
func ParseDiff(data []byte) (*Diff, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var d Diff
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	return &d, nil
}

// ReadDiff loads and decodes a diff document from disk.
func ReadDiff(path string) (*Diff, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read diff: %w", err)
	}
	return ParseDiff(data)
}
