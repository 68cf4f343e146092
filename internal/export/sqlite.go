package export

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
)

//go:embed schema.sql
var schemaSQL string

// WriteSQLite writes the store as a fresh SQLite database at path,
// replacing any existing file. The database carries the four normalized
// tables plus a flat_entries view matching the JSON export rows.
func WriteSQLite(path string, doc *dataset.Document) (err error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sqlite export: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("sqlite export: open: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("sqlite export: close: %w", cerr)
		}
	}()

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("sqlite export: pragma: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("sqlite export: schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite export: begin: %w", err)
	}
	defer tx.Rollback()

	for _, r := range doc.Recipes {
		if _, err := tx.Exec(
			`INSERT INTO recipes (recipe_id, slug, label, source, language, date) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, r.Slug, r.Label, nullString(r.Source), nullString(r.Language), nullIntPtr(r.Date),
		); err != nil {
			return fmt.Errorf("sqlite export: recipe %q: %w", r.Slug, err)
		}
	}
	for _, ing := range doc.Ingredients {
		if _, err := tx.Exec(
			`INSERT INTO ingredients (ingredient_id, slug, label, language) VALUES (?, ?, ?, ?)`,
			ing.ID, ing.Slug, ing.Label, nullString(ing.Language),
		); err != nil {
			return fmt.Errorf("sqlite export: ingredient %q: %w", ing.Slug, err)
		}
	}
	for _, a := range doc.Aliases {
		if _, err := tx.Exec(
			`INSERT INTO aliases (alias_id, ingredient_id, variant_label, language, source) VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.IngredientID, a.VariantLabel, nullString(a.Language), nullString(a.Source),
		); err != nil {
			return fmt.Errorf("sqlite export: alias %d: %w", a.ID, err)
		}
	}
	for _, e := range doc.Entries {
		if _, err := tx.Exec(
			`INSERT INTO entries
			 (entry_id, recipe_id, ingredient_id, amount_raw, amount_value, amount_unit,
			  preparation, notes, source_citation, source_span)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.RecipeID, e.IngredientID,
			e.AmountRaw, e.AmountValue, e.AmountUnit,
			e.Preparation, e.Notes, e.SourceCitation, e.SourceSpan,
		); err != nil {
			return fmt.Errorf("sqlite export: entry %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite export: commit: %w", err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIntPtr(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
