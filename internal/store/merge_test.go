package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
)

func TestMerge_FreshDiff(t *testing.T) {
	s := New()
	result, err := s.Merge(kyphiDiff(), "dioscorides-130", testOpts())
	require.NoError(t, err)

	assert.Equal(t, "dioscorides-130", result.Source)
	assert.Equal(t, 1, result.RecipesAdded)
	assert.Equal(t, 1, result.IngredientsAdded)
	assert.Equal(t, 1, result.AliasesAdded)
	assert.Equal(t, 1, result.EntriesAdded)
	assert.Equal(t, 0, result.IngredientsReused)

	doc := s.Document()
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "2024-03-01T12:00:00Z", doc.Entries[0].AddedAt)
	assert.Equal(t, "tester", doc.Entries[0].AddedBy)

	prov := doc.Provenance["dioscorides-130"]
	require.NotNil(t, prov)
	assert.Equal(t, []int64{1}, prov.RecipeIDs)
	assert.Equal(t, []int64{1}, prov.IngredientIDs)
	assert.Equal(t, []int64{1}, prov.AliasIDs)
	assert.Equal(t, []int64{1}, prov.EntryIDs)
	assert.Equal(t, "tester", prov.AddedBy)
}

func TestMerge_EmptySourceGetsSyntheticKey(t *testing.T) {
	s := New()
	result, err := s.Merge(kyphiDiff(), "", testOpts())
	require.NoError(t, err)
	assert.Contains(t, result.Source, "diff-")
	assert.Contains(t, s.Document().Provenance, result.Source)
}

func TestMerge_ReusesRestatedIngredient(t *testing.T) {
	s := New()
	_, err := s.Merge(kyphiDiff(), "dioscorides-130", testOpts())
	require.NoError(t, err)

	// A second recipe restates smyrne; it must reuse id 1, not mint id 2.
	d := &dataset.Diff{
		Recipes:     []dataset.DiffRecipe{{Slug: "galen-kyphi", Label: "Kyphi (Galen)", Language: "grc"}},
		Ingredients: []dataset.DiffIngredient{{Slug: "smyrne", Label: "σμύρνη", Language: "grc"}},
		Entries:     []dataset.DiffEntry{{RecipeSlug: "galen-kyphi", IngredientSlug: "smyrne"}},
	}
	result, err := s.Merge(d, "galen-kyphi", testOpts())
	require.NoError(t, err)

	assert.Equal(t, 0, result.IngredientsAdded)
	assert.Equal(t, 1, result.IngredientsReused)
	assert.Empty(t, result.LabelConflicts)

	doc := s.Document()
	require.Len(t, doc.Ingredients, 1)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, int64(1), doc.Entries[1].IngredientID)

	// Reuse leaves the second provenance without the ingredient; only the
	// introducing diff owns it.
	assert.Empty(t, doc.Provenance["galen-kyphi"].IngredientIDs)
}

func TestMerge_ReportsLabelConflict(t *testing.T) {
	s := New()
	_, err := s.Merge(kyphiDiff(), "dioscorides-130", testOpts())
	require.NoError(t, err)

	d := &dataset.Diff{
		Ingredients: []dataset.DiffIngredient{{Slug: "smyrne", Label: "σμύρνα", Language: "grc"}},
	}
	result, err := s.Merge(d, "variant-spelling", testOpts())
	require.NoError(t, err)
	require.Len(t, result.LabelConflicts, 1)
	assert.Contains(t, result.LabelConflicts[0], "smyrne")

	// The stored label wins; the conflict is advisory.
	assert.Equal(t, "σμύρνη", s.Document().Ingredients[0].Label)
}

func TestMerge_SkipsDuplicateAlias(t *testing.T) {
	s := New()
	_, err := s.Merge(kyphiDiff(), "dioscorides-130", testOpts())
	require.NoError(t, err)

	d := &dataset.Diff{
		Aliases: []dataset.DiffAlias{
			{IngredientSlug: "smyrne", VariantLabel: "myrrh", Language: "en", Source: dataset.AliasTranslation},
			{IngredientSlug: "smyrne", VariantLabel: "myrrh", Language: "fr", Source: dataset.AliasTranslation},
		},
	}
	result, err := s.Merge(d, "aliases", testOpts())
	require.NoError(t, err)

	// Same (ingredient, label, language) is skipped; a new language is not.
	assert.Equal(t, 1, result.AliasesSkipped)
	assert.Equal(t, 1, result.AliasesAdded)
	assert.Len(t, s.Document().Aliases, 2)
}

func TestMerge_SameIngredientTwiceInOneRecipe(t *testing.T) {
	s := New()
	d := kyphiDiff()
	d.Entries = append(d.Entries, dataset.DiffEntry{
		RecipeSlug:     "dioscorides-130",
		IngredientSlug: "smyrne",
		Preparation:    strp("ground"),
	})

	result, err := s.Merge(d, "dioscorides-130", testOpts())
	require.NoError(t, err)
	assert.Equal(t, 2, result.EntriesAdded)
	assert.Len(t, s.Document().Entries, 2)
}

func TestMerge_DuplicateRecipeRejected(t *testing.T) {
	s := New()
	_, err := s.Merge(kyphiDiff(), "dioscorides-130", testOpts())
	require.NoError(t, err)

	_, err = s.Merge(kyphiDiff(), "resubmission", testOpts())
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeDuplicateRecipe))
}

func TestMerge_RestatedRecipeWithIdenticalPayload(t *testing.T) {
	s := New()
	_, err := s.Merge(kyphiDiff(), "dioscorides-130", testOpts())
	require.NoError(t, err)

	opts := testOpts()
	opts.AllowRestated = true
	d := &dataset.Diff{
		Recipes: []dataset.DiffRecipe{{Slug: "dioscorides-130", Label: "Kyphi (Dioscorides)", Language: "grc", Date: intp(70)}},
		Entries: []dataset.DiffEntry{{RecipeSlug: "dioscorides-130", IngredientSlug: "smyrne"}},
	}
	result, err := s.Merge(d, "addendum", opts)
	require.NoError(t, err)
	assert.Equal(t, 0, result.RecipesAdded)
	assert.Equal(t, 1, result.RecipesRestated)
	assert.Len(t, s.Document().Recipes, 1)

	// A differing payload is rejected even with AllowRestated.
	d.Recipes[0].Label = "Kyphi, revised"
	_, err = s.Merge(d, "addendum-2", opts)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeDuplicateRecipe))
}

func TestMerge_DuplicateSourceRejected(t *testing.T) {
	s := New()
	_, err := s.Merge(kyphiDiff(), "dioscorides-130", testOpts())
	require.NoError(t, err)

	d := &dataset.Diff{
		Ingredients: []dataset.DiffIngredient{{Slug: "honey", Label: "μέλι", Language: "grc"}},
	}
	_, err = s.Merge(d, "dioscorides-130", testOpts())
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeDuplicateSource))
	assert.Len(t, s.Document().Ingredients, 1)
}

func TestMerge_UnresolvedReferenceLeavesStoreUntouched(t *testing.T) {
	s := New()
	_, err := s.Merge(kyphiDiff(), "dioscorides-130", testOpts())
	require.NoError(t, err)
	before := s.Document()

	d := &dataset.Diff{
		Recipes: []dataset.DiffRecipe{{Slug: "edfu-kyphi", Label: "Kyphi (Edfu)"}},
		Entries: []dataset.DiffEntry{
			{RecipeSlug: "edfu-kyphi", IngredientSlug: "smyrne"},
			{RecipeSlug: "edfu-kyphi", IngredientSlug: "never-declared"},
		},
	}
	_, err = s.Merge(d, "edfu", testOpts())
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeValidation))

	// Atomicity: the partial recipe and first entry must not exist.
	doc := s.Document()
	assert.Same(t, before, doc)
	assert.Len(t, doc.Recipes, 1)
	assert.Len(t, doc.Entries, 1)
	assert.NotContains(t, doc.Provenance, "edfu")
	assert.Equal(t, int64(2), doc.NextIDs.Recipe)
}

func TestMerge_DiffOnlyAddsAliasesToStoredIngredient(t *testing.T) {
	s := New()
	_, err := s.Merge(kyphiDiff(), "dioscorides-130", testOpts())
	require.NoError(t, err)

	d := &dataset.Diff{
		Aliases: []dataset.DiffAlias{{IngredientSlug: "smyrne", VariantLabel: "Myrrhe", Language: "de", Source: dataset.AliasTranslation}},
	}
	result, err := s.Merge(d, "german-glosses", testOpts())
	require.NoError(t, err)
	assert.Equal(t, 1, result.AliasesAdded)
	assert.Equal(t, int64(1), s.Document().Aliases[1].IngredientID)
}
