package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
)

func strp(s string) *string { return &s }

func intp(i int) *int { return &i }

func fixedNow() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

func testOpts() MergeOptions { return MergeOptions{Actor: "tester", Now: fixedNow} }

func removeOpts() RemoveOptions { return RemoveOptions{Actor: "tester", Now: fixedNow} }

// kyphiDiff declares one recipe, one ingredient, one alias, one entry.
func kyphiDiff() *dataset.Diff {
	return &dataset.Diff{
		Recipes:     []dataset.DiffRecipe{{Slug: "dioscorides-130", Label: "Kyphi (Dioscorides)", Language: "grc", Date: intp(70)}},
		Ingredients: []dataset.DiffIngredient{{Slug: "smyrne", Label: "σμύρνη", Language: "grc"}},
		Aliases:     []dataset.DiffAlias{{IngredientSlug: "smyrne", VariantLabel: "myrrh", Language: "en", Source: dataset.AliasTranslation}},
		Entries:     []dataset.DiffEntry{{RecipeSlug: "dioscorides-130", IngredientSlug: "smyrne", AmountRaw: strp("1 μνᾶ")}},
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.json")

	s := New()
	_, err := s.Merge(kyphiDiff(), "dioscorides", testOpts())
	require.NoError(t, err)
	require.NoError(t, s.SaveTo(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	doc := loaded.Document()
	assert.Len(t, doc.Recipes, 1)
	assert.Len(t, doc.Ingredients, 1)
	assert.Len(t, doc.Aliases, 1)
	assert.Len(t, doc.Entries, 1)
	assert.Equal(t, s.Document().NextIDs, doc.NextIDs)
	require.Contains(t, doc.Provenance, "dioscorides")
}

func TestSave_PreservesGreekText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.json")

	s := New()
	_, err := s.Merge(kyphiDiff(), "dioscorides", testOpts())
	require.NoError(t, err)
	require.NoError(t, s.SaveTo(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "σμύρνη")
	assert.NotContains(t, string(raw), `\u`)
}

func TestLoad_RejectsDuplicateIDs(t *testing.T) {
	doc := dataset.NewDocument()
	doc.Recipes = []dataset.Recipe{
		{ID: 1, Slug: "a", Label: "A"},
		{ID: 1, Slug: "b", Label: "B"},
	}
	doc.NextIDs.Recipe = 2

	_, err := FromDocument(doc)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeCorruptStore))
}

func TestLoad_RejectsDanglingEntry(t *testing.T) {
	doc := dataset.NewDocument()
	doc.Recipes = []dataset.Recipe{{ID: 1, Slug: "a", Label: "A"}}
	doc.Entries = []dataset.Entry{{ID: 1, RecipeID: 1, IngredientID: 99}}
	doc.NextIDs = dataset.Counters{Recipe: 2, Ingredient: 1, Alias: 1, Entry: 2}

	_, err := FromDocument(doc)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeCorruptStore))
}

func TestLoad_RejectsStaleCounter(t *testing.T) {
	// A counter at or below an existing id would re-issue that id.
	doc := dataset.NewDocument()
	doc.Ingredients = []dataset.Ingredient{{ID: 5, Slug: "smyrne", Label: "σμύρνη"}}
	doc.NextIDs = dataset.Counters{Recipe: 1, Ingredient: 5, Alias: 1, Entry: 1}

	_, err := FromDocument(doc)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeCorruptStore))
}

func TestLoad_RejectsProvenanceListingMissingID(t *testing.T) {
	doc := dataset.NewDocument()
	doc.Provenance["ghost"] = &dataset.ProvenanceRecord{RecipeIDs: []int64{7}}

	_, err := FromDocument(doc)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeCorruptStore))
}

func TestAllocateID_AdvancesCounter(t *testing.T) {
	s := New()
	assert.Equal(t, int64(1), s.AllocateID(dataset.EntityRecipe))
	assert.Equal(t, int64(2), s.AllocateID(dataset.EntityRecipe))
	assert.Equal(t, int64(1), s.AllocateID(dataset.EntityEntry))
	assert.Equal(t, int64(3), s.Document().NextIDs.Recipe)
}

func TestAllTerms_CoversSlugsLabelsAndAliases(t *testing.T) {
	s := New()
	_, err := s.Merge(kyphiDiff(), "dioscorides", testOpts())
	require.NoError(t, err)

	terms := s.AllTerms()
	assert.True(t, terms["smyrne"])
	assert.True(t, terms["σμύρνη"])
	assert.True(t, terms["myrrh"])
	assert.False(t, terms["dioscorides-130"]) // recipe slugs are not terms
}
