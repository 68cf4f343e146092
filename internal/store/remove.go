package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
)

// RemoveOptions tunes removal behavior.
type RemoveOptions struct {
	// Actor is recorded on the removal audit note.
	Actor string

	// Now overrides the timestamp source, for deterministic tests.
	Now func() time.Time
}

// RemoveResult summarizes one reversed diff.
type RemoveResult struct {
	Key                 string `json:"key"`
	EntriesRemoved      int    `json:"entries_removed"`
	AliasesRemoved      int    `json:"aliases_removed"`
	IngredientsRemoved  int    `json:"ingredients_removed"`
	RecipesRemoved      int    `json:"recipes_removed"`
	IngredientsRetained int    `json:"ingredients_retained"`
	RecipesRetained     int    `json:"recipes_retained"`
}

// Remove reverses the diff recorded under the given provenance key.
//
// Entries go first, then aliases, then ingredients, then recipes — but an
// ingredient or recipe introduced by this diff survives when anything
// outside the key still references it. Liveness is recomputed against the
// post-deletion store, never replayed from the insert log, so a later
// diff's dependency always wins.
//
// Survivors (and their kept aliases) are re-recorded under every
// remaining provenance key that references them; removing those diffs
// later still deletes the survivor. Freed ids are never reallocated.
func (s *Store) Remove(key, reason string, opts RemoveOptions) (*RemoveResult, error) {
	rec, ok := s.doc.Provenance[key]
	if !ok {
		return nil, newUnknownProvenanceError(key)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	work := s.doc.Clone()
	result := &RemoveResult{Key: key}

	entryDoomed := idSet(rec.EntryIDs)
	aliasInKey := idSet(rec.AliasIDs)
	ingredientInKey := idSet(rec.IngredientIDs)
	recipeInKey := idSet(rec.RecipeIDs)

	// 1) Entries recorded under the key are removed unconditionally.
	kept := work.Entries[:0]
	for _, e := range work.Entries {
		if entryDoomed[e.ID] {
			result.EntriesRemoved++
			continue
		}
		kept = append(kept, e)
	}
	work.Entries = kept

	// 2) Decide ingredient liveness against the post-deletion store. An
	// outside entry or outside alias keeps the ingredient alive; this
	// key's own aliases do not.
	ingredientLive := make(map[int64]bool)
	for _, e := range work.Entries {
		ingredientLive[e.IngredientID] = true
	}
	for _, a := range work.Aliases {
		if !aliasInKey[a.ID] {
			ingredientLive[a.IngredientID] = true
		}
	}

	ingredientDoomed := make(map[int64]bool, len(rec.IngredientIDs))
	for _, id := range rec.IngredientIDs {
		if ingredientLive[id] {
			result.IngredientsRetained++
		} else {
			ingredientDoomed[id] = true
		}
	}

	// 3) Aliases recorded under the key are removed unless they belong to
	// an ingredient this key introduced that survives: a live ingredient
	// keeps its variant labels.
	keptAliasesByIngredient := make(map[int64][]int64)
	keptAliases := work.Aliases[:0]
	for _, a := range work.Aliases {
		if aliasInKey[a.ID] {
			retain := ingredientInKey[a.IngredientID] && !ingredientDoomed[a.IngredientID]
			if !retain {
				result.AliasesRemoved++
				continue
			}
			keptAliasesByIngredient[a.IngredientID] = append(keptAliasesByIngredient[a.IngredientID], a.ID)
		} else if ingredientDoomed[a.IngredientID] {
			// Cannot happen: an outside alias marked the ingredient live.
			result.AliasesRemoved++
			continue
		}
		keptAliases = append(keptAliases, a)
	}
	work.Aliases = keptAliases

	keptIngredients := work.Ingredients[:0]
	for _, ing := range work.Ingredients {
		if ingredientDoomed[ing.ID] {
			result.IngredientsRemoved++
			continue
		}
		keptIngredients = append(keptIngredients, ing)
	}
	work.Ingredients = keptIngredients

	// 4) Recipes with no remaining entries go; referenced ones stay.
	recipeLive := make(map[int64]bool)
	for _, e := range work.Entries {
		recipeLive[e.RecipeID] = true
	}
	recipeDoomed := make(map[int64]bool, len(rec.RecipeIDs))
	for _, id := range rec.RecipeIDs {
		if recipeLive[id] {
			result.RecipesRetained++
		} else {
			recipeDoomed[id] = true
		}
	}
	keptRecipes := work.Recipes[:0]
	for _, r := range work.Recipes {
		if recipeDoomed[r.ID] {
			result.RecipesRemoved++
			continue
		}
		keptRecipes = append(keptRecipes, r)
	}
	work.Recipes = keptRecipes

	delete(work.Provenance, key)

	// 5) Re-home survivors under the provenance keys that still depend on
	// them, so a later removal of those keys can finish the job.
	reattributeSurvivors(work, ingredientInKey, ingredientDoomed, keptAliasesByIngredient, recipeInKey, recipeDoomed)

	work.Removals = append(work.Removals, dataset.RemovalNote{
		ID:                 uuid.NewString(),
		ProvenanceKey:      key,
		Reason:             reason,
		RemovedBy:          opts.Actor,
		RemovedAt:          now().UTC().Format(time.RFC3339),
		EntriesRemoved:     result.EntriesRemoved,
		AliasesRemoved:     result.AliasesRemoved,
		IngredientsRemoved: result.IngredientsRemoved,
		RecipesRemoved:     result.RecipesRemoved,
	})

	s.doc = work
	s.rebuildIndexes()
	return result, nil
}

// reattributeSurvivors appends retained ingredient/recipe ids (and the
// retained ingredients' kept alias ids) to every remaining provenance
// record whose entries or aliases reference them.
func reattributeSurvivors(
	work *dataset.Document,
	ingredientInKey, ingredientDoomed map[int64]bool,
	keptAliasesByIngredient map[int64][]int64,
	recipeInKey, recipeDoomed map[int64]bool,
) {
	entryByID := make(map[int64]*dataset.Entry, len(work.Entries))
	for i := range work.Entries {
		entryByID[work.Entries[i].ID] = &work.Entries[i]
	}
	aliasByID := make(map[int64]*dataset.Alias, len(work.Aliases))
	for i := range work.Aliases {
		aliasByID[work.Aliases[i].ID] = &work.Aliases[i]
	}

	for _, other := range work.Provenance {
		refsIngredient := make(map[int64]bool)
		refsRecipe := make(map[int64]bool)
		for _, eid := range other.EntryIDs {
			if e, ok := entryByID[eid]; ok {
				refsIngredient[e.IngredientID] = true
				refsRecipe[e.RecipeID] = true
			}
		}
		for _, aid := range other.AliasIDs {
			if a, ok := aliasByID[aid]; ok {
				refsIngredient[a.IngredientID] = true
			}
		}

		for id := range ingredientInKey {
			if ingredientDoomed[id] || !refsIngredient[id] {
				continue
			}
			other.IngredientIDs = appendUnique(other.IngredientIDs, id)
			for _, aid := range keptAliasesByIngredient[id] {
				other.AliasIDs = appendUnique(other.AliasIDs, aid)
			}
		}
		for id := range recipeInKey {
			if recipeDoomed[id] || !refsRecipe[id] {
				continue
			}
			other.RecipeIDs = appendUnique(other.RecipeIDs, id)
		}
	}
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
