package export

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
)

func strp(s string) *string { return &s }

func floatp(f float64) *float64 { return &f }

func intp(i int) *int { return &i }

// exportDoc builds a small store document with entries deliberately out
// of order, to exercise the export ordering.
func exportDoc() *dataset.Document {
	doc := dataset.NewDocument()
	doc.Recipes = []dataset.Recipe{
		{ID: 2, Slug: "edfu-kyphi", Label: "Kyphi (Edfu)", Source: "Edfu temple", Language: "egy", Date: intp(-200)},
		{ID: 1, Slug: "dioscorides-130", Label: "Kyphi (Dioscorides)", Language: "grc"},
	}
	doc.Ingredients = []dataset.Ingredient{
		{ID: 1, Slug: "smyrne", Label: "σμύρνη", Language: "grc"},
		{ID: 2, Slug: "honey", Label: "μέλι", Language: "grc"},
	}
	doc.Entries = []dataset.Entry{
		{ID: 3, RecipeID: 2, IngredientID: 1},
		{ID: 1, RecipeID: 1, IngredientID: 1, AmountRaw: strp("1 μνᾶ"), AmountValue: floatp(1), AmountUnit: strp("μνᾶ")},
		{ID: 2, RecipeID: 1, IngredientID: 2, AmountRaw: strp("enough"), Preparation: strp("boiled")},
	}
	doc.NextIDs = dataset.Counters{Recipe: 3, Ingredient: 3, Alias: 1, Entry: 4}
	return doc
}

func TestRows_OrderedByRecipeThenEntry(t *testing.T) {
	rows, err := Rows(exportDoc())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "dioscorides-130", rows[0].RecipeSlug)
	assert.Equal(t, "smyrne", rows[0].IngredientSlug)
	assert.Equal(t, "dioscorides-130", rows[1].RecipeSlug)
	assert.Equal(t, "honey", rows[1].IngredientSlug)
	assert.Equal(t, "edfu-kyphi", rows[2].RecipeSlug)
}

func TestRows_Deterministic(t *testing.T) {
	first, err := MarshalJSON(mustRows(t, exportDoc()))
	require.NoError(t, err)
	second, err := MarshalJSON(mustRows(t, exportDoc()))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRows_DanglingReferenceIsError(t *testing.T) {
	doc := exportDoc()
	doc.Entries = append(doc.Entries, dataset.Entry{ID: 9, RecipeID: 99, IngredientID: 1})

	_, err := Rows(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing recipe")
}

func TestRows_EmptyDocumentYieldsEmptyArray(t *testing.T) {
	rows, err := Rows(dataset.NewDocument())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	data, err := MarshalJSON(rows)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestMarshalJSON_Golden(t *testing.T) {
	rows, err := Rows(exportDoc())
	require.NoError(t, err)
	data, err := MarshalJSON(rows)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "flat_export", data)
}

func mustRows(t *testing.T, doc *dataset.Document) []Row {
	t.Helper()
	rows, err := Rows(doc)
	require.NoError(t, err)
	return rows
}
