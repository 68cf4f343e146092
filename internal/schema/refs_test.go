package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
)

// stubResolver resolves a fixed slug set, standing in for the store.
type stubResolver struct {
	recipes     map[string]int64
	ingredients map[string]int64
}

func (s *stubResolver) ResolveRecipeSlug(slug string) (int64, bool) {
	id, ok := s.recipes[slug]
	return id, ok
}

func (s *stubResolver) ResolveIngredientSlug(slug string) (int64, bool) {
	id, ok := s.ingredients[slug]
	return id, ok
}

func TestCheckReferences_ResolvesWithinDiff(t *testing.T) {
	d := &dataset.Diff{
		Recipes:     []dataset.DiffRecipe{{Slug: "kyphi-edfu", Label: "Kyphi (Edfu)"}},
		Ingredients: []dataset.DiffIngredient{{Slug: "myrrh", Label: "σμύρνα"}},
		Aliases:     []dataset.DiffAlias{{IngredientSlug: "myrrh", VariantLabel: "myrrhe"}},
		Entries:     []dataset.DiffEntry{{RecipeSlug: "kyphi-edfu", IngredientSlug: "myrrh"}},
	}
	assert.Empty(t, CheckReferences(d, nil))
}

func TestCheckReferences_ResolvesAgainstStore(t *testing.T) {
	res := &stubResolver{
		recipes:     map[string]int64{"kyphi-edfu": 1},
		ingredients: map[string]int64{"myrrh": 1},
	}
	d := &dataset.Diff{
		Entries: []dataset.DiffEntry{{RecipeSlug: "kyphi-edfu", IngredientSlug: "myrrh"}},
	}
	assert.Empty(t, CheckReferences(d, res))
}

func TestCheckReferences_UnresolvedEntry(t *testing.T) {
	d := &dataset.Diff{
		Entries: []dataset.DiffEntry{{RecipeSlug: "nowhere", IngredientSlug: "nothing"}},
	}
	violations := CheckReferences(d, nil)
	require.Len(t, violations, 2)
	assert.Equal(t, ErrEntryUnknownRecipe, violations[0].Code)
	assert.Equal(t, "entries.0.recipe_slug", violations[0].Path)
	assert.Equal(t, ErrEntryUnknownIngredient, violations[1].Code)
	assert.Equal(t, "entries.0.ingredient_slug", violations[1].Path)
}

func TestCheckReferences_UnresolvedAlias(t *testing.T) {
	d := &dataset.Diff{
		Aliases: []dataset.DiffAlias{{IngredientSlug: "nothing", VariantLabel: "x"}},
	}
	violations := CheckReferences(d, nil)
	require.Len(t, violations, 1)
	assert.Equal(t, ErrAliasUnknownRef, violations[0].Code)
	assert.Equal(t, "aliases.0.ingredient_slug", violations[0].Path)
}

func TestCheckReferences_DuplicateSlugsWithinDiff(t *testing.T) {
	d := &dataset.Diff{
		Recipes: []dataset.DiffRecipe{
			{Slug: "kyphi-edfu", Label: "Kyphi (Edfu)"},
			{Slug: "kyphi-edfu", Label: "Kyphi again"},
		},
		Ingredients: []dataset.DiffIngredient{
			{Slug: "myrrh", Label: "σμύρνα"},
			{Slug: "myrrh", Label: "σμύρνη"},
		},
	}
	violations := CheckReferences(d, nil)
	require.Len(t, violations, 2)
	assert.Equal(t, ErrDuplicateRecipe, violations[0].Code)
	assert.Equal(t, "recipes.1.slug", violations[0].Path)
	assert.Equal(t, ErrDuplicateIngredient, violations[1].Code)
	assert.Equal(t, "ingredients.1.slug", violations[1].Path)
}
