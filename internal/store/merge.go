package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
	"github.com/alchemiesofscent/recipe-aligner/internal/schema"
)

// MergeOptions tunes merge behavior.
type MergeOptions struct {
	// Actor is stamped onto new entries and the provenance record.
	Actor string

	// AllowRestated permits a diff recipe whose slug already exists when
	// its payload is identical to the stored recipe; the recipe is skipped
	// rather than re-inserted. Differing payloads are always an error.
	AllowRestated bool

	// Now overrides the timestamp source, for deterministic tests.
	Now func() time.Time
}

// MergeResult summarizes one applied diff.
type MergeResult struct {
	Source            string   `json:"source"`
	RecipesAdded      int      `json:"recipes_added"`
	IngredientsAdded  int      `json:"ingredients_added"`
	AliasesAdded      int      `json:"aliases_added"`
	EntriesAdded      int      `json:"entries_added"`
	IngredientsReused int      `json:"ingredients_reused"`
	AliasesSkipped    int      `json:"aliases_skipped"`
	RecipesRestated   int      `json:"recipes_restated"`
	LabelConflicts    []string `json:"label_conflicts,omitempty"`
}

// Merge applies a diff under the given provenance key (source). An empty
// source gets a synthetic key, returned in the result.
//
// The diff is validated first (shape is assumed already checked by the
// caller; references are re-checked here) and the whole merge is applied
// to a clone of the document, so any failure leaves the store untouched.
func (s *Store) Merge(d *dataset.Diff, source string, opts MergeOptions) (*MergeResult, error) {
	if source == "" {
		source = "diff-" + uuid.NewString()
	}
	if _, exists := s.doc.Provenance[source]; exists {
		return nil, newDuplicateSourceError(source)
	}
	if violations := schema.CheckReferences(d, s); len(violations) > 0 {
		return nil, newValidationError(violations)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	stamp := now().UTC().Format(time.RFC3339)

	work := s.doc.Clone()
	prov := &dataset.ProvenanceRecord{AddedBy: opts.Actor, AddedAt: stamp}
	result := &MergeResult{Source: source}

	// Slug->id for entities declared in this diff, overlaying the store.
	localRecipes := make(map[string]int64, len(d.Recipes))
	localIngredients := make(map[string]int64, len(d.Ingredients))

	for _, r := range d.Recipes {
		if id, exists := s.recipesBySlug[r.Slug]; exists {
			stored := findRecipe(work, id)
			if opts.AllowRestated && stored != nil && sameRecipePayload(*stored, r) {
				localRecipes[r.Slug] = id
				result.RecipesRestated++
				continue
			}
			return nil, newDuplicateRecipeError(r.Slug)
		}
		id := nextID(&work.NextIDs, dataset.EntityRecipe)
		work.Recipes = append(work.Recipes, dataset.Recipe{
			ID:       id,
			Slug:     r.Slug,
			Label:    r.Label,
			Source:   r.Source,
			Language: r.Language,
			Date:     r.Date,
		})
		localRecipes[r.Slug] = id
		prov.RecipeIDs = append(prov.RecipeIDs, id)
		result.RecipesAdded++
	}

	for _, ing := range d.Ingredients {
		if id, exists := s.ingredientsBySlug[ing.Slug]; exists {
			// A restated ingredient reuses the stored id instead of failing
			// the diff; submitters routinely re-declare what they touch.
			localIngredients[ing.Slug] = id
			result.IngredientsReused++
			if stored := findIngredient(work, id); stored != nil && stored.Label != ing.Label {
				result.LabelConflicts = append(result.LabelConflicts,
					fmt.Sprintf("%s: stored label %q vs diff label %q", ing.Slug, stored.Label, ing.Label))
			}
			continue
		}
		id := nextID(&work.NextIDs, dataset.EntityIngredient)
		work.Ingredients = append(work.Ingredients, dataset.Ingredient{
			ID:       id,
			Slug:     ing.Slug,
			Label:    ing.Label,
			Language: ing.Language,
		})
		localIngredients[ing.Slug] = id
		prov.IngredientIDs = append(prov.IngredientIDs, id)
		result.IngredientsAdded++
	}

	resolveIngredient := func(slug string) (int64, bool) {
		if id, ok := localIngredients[slug]; ok {
			return id, true
		}
		id, ok := s.ingredientsBySlug[slug]
		return id, ok
	}
	resolveRecipe := func(slug string) (int64, bool) {
		if id, ok := localRecipes[slug]; ok {
			return id, true
		}
		id, ok := s.recipesBySlug[slug]
		return id, ok
	}

	seenAlias := make(map[aliasKey]bool, len(work.Aliases))
	for _, a := range work.Aliases {
		seenAlias[aliasKey{a.IngredientID, a.VariantLabel, a.Language}] = true
	}
	for i, a := range d.Aliases {
		ingID, ok := resolveIngredient(a.IngredientSlug)
		if !ok {
			return nil, newUnresolvedReferenceError("alias ingredient", a.IngredientSlug, i)
		}
		key := aliasKey{ingID, a.VariantLabel, a.Language}
		if seenAlias[key] {
			result.AliasesSkipped++
			continue
		}
		id := nextID(&work.NextIDs, dataset.EntityAlias)
		work.Aliases = append(work.Aliases, dataset.Alias{
			ID:           id,
			IngredientID: ingID,
			VariantLabel: a.VariantLabel,
			Language:     a.Language,
			Source:       a.Source,
		})
		seenAlias[key] = true
		prov.AliasIDs = append(prov.AliasIDs, id)
		result.AliasesAdded++
	}

	// Entries are never deduplicated by (recipe, ingredient): the same
	// ingredient can legitimately appear twice in one recipe.
	for i, e := range d.Entries {
		recipeID, ok := resolveRecipe(e.RecipeSlug)
		if !ok {
			return nil, newUnresolvedReferenceError("entry recipe", e.RecipeSlug, i)
		}
		ingID, ok := resolveIngredient(e.IngredientSlug)
		if !ok {
			return nil, newUnresolvedReferenceError("entry ingredient", e.IngredientSlug, i)
		}
		id := nextID(&work.NextIDs, dataset.EntityEntry)
		work.Entries = append(work.Entries, dataset.Entry{
			ID:             id,
			RecipeID:       recipeID,
			IngredientID:   ingID,
			AmountRaw:      e.AmountRaw,
			AmountValue:    e.AmountValue,
			AmountUnit:     e.AmountUnit,
			Preparation:    e.Preparation,
			Notes:          e.Notes,
			SourceCitation: e.SourceCitation,
			SourceSpan:     e.SourceSpan,
			AddedAt:        stamp,
			AddedBy:        opts.Actor,
		})
		prov.EntryIDs = append(prov.EntryIDs, id)
		result.EntriesAdded++
	}

	work.Provenance[source] = prov

	// Commit: every reference resolved, so the clone becomes the store.
	s.doc = work
	s.rebuildIndexes()
	return result, nil
}

type aliasKey struct {
	ingredientID int64
	variantLabel string
	language     string
}

func sameRecipePayload(stored dataset.Recipe, diff dataset.DiffRecipe) bool {
	if stored.Label != diff.Label || stored.Source != diff.Source || stored.Language != diff.Language {
		return false
	}
	switch {
	case stored.Date == nil && diff.Date == nil:
		return true
	case stored.Date != nil && diff.Date != nil:
		return *stored.Date == *diff.Date
	default:
		return false
	}
}

func findRecipe(doc *dataset.Document, id int64) *dataset.Recipe {
	for i := range doc.Recipes {
		if doc.Recipes[i].ID == id {
			return &doc.Recipes[i]
		}
	}
	return nil
}

func findIngredient(doc *dataset.Document, id int64) *dataset.Ingredient {
	for i := range doc.Ingredients {
		if doc.Ingredients[i].ID == id {
			return &doc.Ingredients[i]
		}
	}
	return nil
}
