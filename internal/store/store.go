package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
)

// Store is the loaded canonical dataset plus its slug indexes. Foreign
// keys inside the document are integer ids; slugs only appear at the
// boundary (diff input, human output).
type Store struct {
	doc  *dataset.Document
	path string

	recipesBySlug     map[string]int64
	ingredientsBySlug map[string]int64
}

// New returns an empty in-memory store not yet bound to a file.
func New() *Store {
	s := &Store{doc: dataset.NewDocument()}
	s.rebuildIndexes()
	return s
}

// Load reads and integrity-checks the store document at path. A document
// that fails its own invariants is rejected with a CORRUPT_STORE error;
// it is never silently repaired.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	var doc dataset.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("load store %s: %w", path, err)
	}
	s, err := FromDocument(&doc)
	if err != nil {
		return nil, err
	}
	s.path = path
	return s, nil
}

// FromDocument wraps an already-decoded document, enforcing integrity.
func FromDocument(doc *dataset.Document) (*Store, error) {
	if doc.Provenance == nil {
		doc.Provenance = map[string]*dataset.ProvenanceRecord{}
	}
	if problems := checkIntegrity(doc); len(problems) > 0 {
		return nil, newCorruptStoreError(problems)
	}
	s := &Store{doc: doc}
	s.rebuildIndexes()
	return s, nil
}

// Path returns the file this store was loaded from, if any.
func (s *Store) Path() string { return s.path }

// Document exposes the underlying document for read-only projection
// (export, stats). Callers must not mutate it.
func (s *Store) Document() *dataset.Document { return s.doc }

// Save persists the store back to the file it was loaded from.
func (s *Store) Save() error {
	if s.path == "" {
		return fmt.Errorf("save store: no backing path; use SaveTo")
	}
	return s.SaveTo(s.path)
}

// SaveTo persists the store document to path. The write goes through a
// temp file and rename so a crash mid-write cannot truncate the dataset.
func (s *Store) SaveTo(path string) error {
	data, err := MarshalDocument(s.doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save store: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	s.path = path
	return nil
}

// MarshalDocument serializes a store document. HTML escaping is disabled
// so Greek, Coptic, and transliteration text survives untouched.
func MarshalDocument(doc *dataset.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshal store: %w", err)
	}
	return buf.Bytes(), nil
}

// ResolveRecipeSlug returns the id for a recipe slug.
func (s *Store) ResolveRecipeSlug(slug string) (int64, bool) {
	id, ok := s.recipesBySlug[slug]
	return id, ok
}

// ResolveIngredientSlug returns the id for an ingredient slug.
func (s *Store) ResolveIngredientSlug(slug string) (int64, bool) {
	id, ok := s.ingredientsBySlug[slug]
	return id, ok
}

// AllocateID hands out the next id for an entity type and advances the
// persisted counter. Retired ids are never handed out again.
func (s *Store) AllocateID(t dataset.EntityType) int64 {
	return nextID(&s.doc.NextIDs, t)
}

func nextID(c *dataset.Counters, t dataset.EntityType) int64 {
	var id int64
	switch t {
	case dataset.EntityRecipe:
		id = c.Recipe
		c.Recipe++
	case dataset.EntityIngredient:
		id = c.Ingredient
		c.Ingredient++
	case dataset.EntityAlias:
		id = c.Alias
		c.Alias++
	case dataset.EntityEntry:
		id = c.Entry
		c.Entry++
	}
	return id
}

// AllTerms returns every string that denotes something in the store:
// ingredient slugs, ingredient labels, and alias variant labels. The
// equivalence reconciler resolves group terms against this set.
func (s *Store) AllTerms() map[string]bool {
	terms := make(map[string]bool, 2*len(s.doc.Ingredients)+len(s.doc.Aliases))
	for _, ing := range s.doc.Ingredients {
		terms[ing.Slug] = true
		terms[ing.Label] = true
	}
	for _, a := range s.doc.Aliases {
		terms[a.VariantLabel] = true
	}
	return terms
}

func (s *Store) rebuildIndexes() {
	s.recipesBySlug = make(map[string]int64, len(s.doc.Recipes))
	for _, r := range s.doc.Recipes {
		s.recipesBySlug[r.Slug] = r.ID
	}
	s.ingredientsBySlug = make(map[string]int64, len(s.doc.Ingredients))
	for _, ing := range s.doc.Ingredients {
		s.ingredientsBySlug[ing.Slug] = ing.ID
	}
}

// checkIntegrity returns every invariant violation found in doc, in
// document order. Empty means the document is sound.
func checkIntegrity(doc *dataset.Document) []string {
	var problems []string

	recipeIDs := make(map[int64]bool, len(doc.Recipes))
	recipeSlugs := make(map[string]bool, len(doc.Recipes))
	var maxRecipe int64
	for _, r := range doc.Recipes {
		if recipeIDs[r.ID] {
			problems = append(problems, fmt.Sprintf("duplicate recipe id %d", r.ID))
		}
		recipeIDs[r.ID] = true
		if recipeSlugs[r.Slug] {
			problems = append(problems, fmt.Sprintf("duplicate recipe slug %q", r.Slug))
		}
		recipeSlugs[r.Slug] = true
		if r.ID > maxRecipe {
			maxRecipe = r.ID
		}
	}

	ingredientIDs := make(map[int64]bool, len(doc.Ingredients))
	ingredientSlugs := make(map[string]bool, len(doc.Ingredients))
	var maxIngredient int64
	for _, ing := range doc.Ingredients {
		if ingredientIDs[ing.ID] {
			problems = append(problems, fmt.Sprintf("duplicate ingredient id %d", ing.ID))
		}
		ingredientIDs[ing.ID] = true
		if ingredientSlugs[ing.Slug] {
			problems = append(problems, fmt.Sprintf("duplicate ingredient slug %q", ing.Slug))
		}
		ingredientSlugs[ing.Slug] = true
		if ing.ID > maxIngredient {
			maxIngredient = ing.ID
		}
	}

	aliasIDs := make(map[int64]bool, len(doc.Aliases))
	var maxAlias int64
	for _, a := range doc.Aliases {
		if aliasIDs[a.ID] {
			problems = append(problems, fmt.Sprintf("duplicate alias id %d", a.ID))
		}
		aliasIDs[a.ID] = true
		if !ingredientIDs[a.IngredientID] {
			problems = append(problems, fmt.Sprintf("alias %d references missing ingredient %d", a.ID, a.IngredientID))
		}
		if a.ID > maxAlias {
			maxAlias = a.ID
		}
	}

	entryIDs := make(map[int64]bool, len(doc.Entries))
	var maxEntry int64
	for _, e := range doc.Entries {
		if entryIDs[e.ID] {
			problems = append(problems, fmt.Sprintf("duplicate entry id %d", e.ID))
		}
		entryIDs[e.ID] = true
		if !recipeIDs[e.RecipeID] {
			problems = append(problems, fmt.Sprintf("entry %d references missing recipe %d", e.ID, e.RecipeID))
		}
		if !ingredientIDs[e.IngredientID] {
			problems = append(problems, fmt.Sprintf("entry %d references missing ingredient %d", e.ID, e.IngredientID))
		}
		if e.ID > maxEntry {
			maxEntry = e.ID
		}
	}

	// Counters are persisted state, not derived; one sitting at or below
	// an existing id would re-issue that id on the next merge.
	if doc.NextIDs.Recipe <= maxRecipe {
		problems = append(problems, fmt.Sprintf("recipe counter %d not past max id %d", doc.NextIDs.Recipe, maxRecipe))
	}
	if doc.NextIDs.Ingredient <= maxIngredient {
		problems = append(problems, fmt.Sprintf("ingredient counter %d not past max id %d", doc.NextIDs.Ingredient, maxIngredient))
	}
	if doc.NextIDs.Alias <= maxAlias {
		problems = append(problems, fmt.Sprintf("alias counter %d not past max id %d", doc.NextIDs.Alias, maxAlias))
	}
	if doc.NextIDs.Entry <= maxEntry {
		problems = append(problems, fmt.Sprintf("entry counter %d not past max id %d", doc.NextIDs.Entry, maxEntry))
	}

	for key, rec := range doc.Provenance {
		for _, id := range rec.RecipeIDs {
			if !recipeIDs[id] {
				problems = append(problems, fmt.Sprintf("provenance %q lists missing recipe %d", key, id))
			}
		}
		for _, id := range rec.IngredientIDs {
			if !ingredientIDs[id] {
				problems = append(problems, fmt.Sprintf("provenance %q lists missing ingredient %d", key, id))
			}
		}
		for _, id := range rec.AliasIDs {
			if !aliasIDs[id] {
				problems = append(problems, fmt.Sprintf("provenance %q lists missing alias %d", key, id))
			}
		}
		for _, id := range rec.EntryIDs {
			if !entryIDs[id] {
				problems = append(problems, fmt.Sprintf("provenance %q lists missing entry %d", key, id))
			}
		}
	}

	return problems
}
