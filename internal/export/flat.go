// Package export projects the canonical store into denormalized,
// label-resolved artifacts for read-only consumers: a flat JSON document
// for the static viewer and an optional SQLite database.
//
// Export is a pure projection: the same store state always yields the
// same row sequence (rows ordered by recipe id, then entry id).
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
)

// Row is one flattened entry with its recipe and ingredient resolved to
// human-readable fields.
type Row struct {
	Recipe             string   `json:"recipe"`
	RecipeSlug         string   `json:"recipe_slug"`
	RecipeSource       string   `json:"recipe_source,omitempty"`
	RecipeLanguage     string   `json:"recipe_language,omitempty"`
	RecipeDate         *int     `json:"recipe_date,omitempty"`
	Ingredient         string   `json:"ingredient"`
	IngredientSlug     string   `json:"ingredient_slug"`
	IngredientLanguage string   `json:"ingredient_language,omitempty"`
	Amount             *string  `json:"amount"`
	AmountValue        *float64 `json:"amount_value,omitempty"`
	AmountUnit         *string  `json:"amount_unit,omitempty"`
	Preparation        *string  `json:"preparation,omitempty"`
	Notes              *string  `json:"notes,omitempty"`
	SourceCitation     *string  `json:"source_citation,omitempty"`
}

// Rows flattens the document, one row per entry. An entry whose foreign
// keys do not resolve is an error, not a skipped row: the store upholds
// referential closure, so a dangling reference here means the caller
// bypassed the store's integrity checks.
func Rows(doc *dataset.Document) ([]Row, error) {
	recipes := make(map[int64]dataset.Recipe, len(doc.Recipes))
	for _, r := range doc.Recipes {
		recipes[r.ID] = r
	}
	ingredients := make(map[int64]dataset.Ingredient, len(doc.Ingredients))
	for _, ing := range doc.Ingredients {
		ingredients[ing.ID] = ing
	}

	entries := append([]dataset.Entry(nil), doc.Entries...)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RecipeID != entries[j].RecipeID {
			return entries[i].RecipeID < entries[j].RecipeID
		}
		return entries[i].ID < entries[j].ID
	})

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		recipe, ok := recipes[e.RecipeID]
		if !ok {
			return nil, fmt.Errorf("export: entry %d references missing recipe %d", e.ID, e.RecipeID)
		}
		ingredient, ok := ingredients[e.IngredientID]
		if !ok {
			return nil, fmt.Errorf("export: entry %d references missing ingredient %d", e.ID, e.IngredientID)
		}
		rows = append(rows, Row{
			Recipe:             recipe.Label,
			RecipeSlug:         recipe.Slug,
			RecipeSource:       recipe.Source,
			RecipeLanguage:     recipe.Language,
			RecipeDate:         recipe.Date,
			Ingredient:         ingredient.Label,
			IngredientSlug:     ingredient.Slug,
			IngredientLanguage: ingredient.Language,
			Amount:             e.AmountRaw,
			AmountValue:        e.AmountValue,
			AmountUnit:         e.AmountUnit,
			Preparation:        e.Preparation,
			Notes:              e.Notes,
			SourceCitation:     e.SourceCitation,
		})
	}
	return rows, nil
}

// WriteJSON writes rows as an indented JSON array, UTF-8 preserved.
func WriteJSON(w io.Writer, rows []Row) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// MarshalJSON renders rows to bytes; used by golden tests and the CLI.
func MarshalJSON(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
