package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
)

func searchStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	d := &dataset.Diff{
		Recipes: []dataset.DiffRecipe{{Slug: "dioscorides-130", Label: "Kyphi (Dioscorides)", Language: "grc"}},
		Ingredients: []dataset.DiffIngredient{
			{Slug: "smyrne", Label: "σμύρνη", Language: "grc"},
			{Slug: "honey", Label: "μέλι", Language: "grc"},
			{Slug: "cinnamon", Label: "κιννάμωμον", Language: "grc"},
		},
		Aliases: []dataset.DiffAlias{
			{IngredientSlug: "smyrne", VariantLabel: "myrrh", Language: "en", Source: dataset.AliasTranslation},
		},
		Entries: []dataset.DiffEntry{
			{RecipeSlug: "dioscorides-130", IngredientSlug: "smyrne"},
			{RecipeSlug: "dioscorides-130", IngredientSlug: "smyrne", Preparation: strp("ground")},
			{RecipeSlug: "dioscorides-130", IngredientSlug: "honey"},
		},
	}
	_, err := s.Merge(d, "dioscorides-130", testOpts())
	require.NoError(t, err)
	return s
}

func TestRankSimilar_ExactLabelIgnoringDiacritics(t *testing.T) {
	s := searchStore(t)
	matches := s.RankSimilar("σμυρνη", 0.6)
	require.NotEmpty(t, matches)
	assert.Equal(t, "smyrne", matches[0].Slug)
	assert.Equal(t, 1.0, matches[0].Score)
}

func TestRankSimilar_MatchesViaAlias(t *testing.T) {
	s := searchStore(t)
	matches := s.RankSimilar("Myrrh", 0.9)
	require.Len(t, matches, 1)
	assert.Equal(t, "smyrne", matches[0].Slug)
	assert.Contains(t, matches[0].MatchedVia, "alias")
}

func TestRankSimilar_OneMatchPerSlug(t *testing.T) {
	s := searchStore(t)
	// "smyrne" scores against both the slug and the alias; only the best
	// hit comes back.
	matches := s.RankSimilar("smyrne", 0.6)
	slugs := map[string]int{}
	for _, m := range matches {
		slugs[m.Slug]++
	}
	assert.LessOrEqual(t, slugs["smyrne"], 1)
}

func TestRankSimilar_ThresholdFiltersNoise(t *testing.T) {
	s := searchStore(t)
	matches := s.RankSimilar("κιννάμωμον", 0.95)
	require.Len(t, matches, 1)
	assert.Equal(t, "cinnamon", matches[0].Slug)
}

func TestStats_Counts(t *testing.T) {
	s := searchStore(t)
	stats := s.Stats(10)

	assert.Equal(t, 1, stats.Recipes)
	assert.Equal(t, 3, stats.Ingredients)
	assert.Equal(t, 1, stats.Aliases)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 1, stats.Provenances)
	assert.Equal(t, 0, stats.Removals)
	assert.Equal(t, map[string]int{"grc": 3}, stats.IngredientsByLanguage)

	// Usage rankings skip uncited ingredients and order by entry count.
	require.Len(t, stats.TopIngredients, 2)
	assert.Equal(t, "smyrne", stats.TopIngredients[0].Slug)
	assert.Equal(t, 2, stats.TopIngredients[0].Entries)
	assert.Equal(t, "honey", stats.TopIngredients[1].Slug)

	require.Len(t, stats.LargestRecipes, 1)
	assert.Equal(t, "dioscorides-130", stats.LargestRecipes[0].Slug)
	assert.Equal(t, 3, stats.LargestRecipes[0].Entries)
}

func TestStats_TopNBoundsRankings(t *testing.T) {
	s := searchStore(t)
	stats := s.Stats(1)
	assert.Len(t, stats.TopIngredients, 1)
	assert.Equal(t, "smyrne", stats.TopIngredients[0].Slug)
}
