package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiff_RejectsUnknownFields(t *testing.T) {
	_, err := ParseDiff([]byte(`{"recipes": [], "recipies": []}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse diff")
}

func TestParseDiff_NullableEntryFields(t *testing.T) {
	d, err := ParseDiff([]byte(`{
		"entries": [
			{"recipe_slug": "r", "ingredient_slug": "i", "amount_raw": null},
			{"recipe_slug": "r", "ingredient_slug": "i", "amount_raw": "1 kyathos", "amount_value": 0.5}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, d.Entries, 2)
	assert.Nil(t, d.Entries[0].AmountRaw)
	require.NotNil(t, d.Entries[1].AmountRaw)
	assert.Equal(t, "1 kyathos", *d.Entries[1].AmountRaw)
	assert.Equal(t, 0.5, *d.Entries[1].AmountValue)
}

func TestNewDocument_CountersStartAtOne(t *testing.T) {
	doc := NewDocument()
	assert.Equal(t, Counters{Recipe: 1, Ingredient: 1, Alias: 1, Entry: 1}, doc.NextIDs)
	assert.NotNil(t, doc.Recipes)
	assert.NotNil(t, doc.Provenance)
}

func TestClone_IsDeep(t *testing.T) {
	doc := NewDocument()
	doc.Recipes = append(doc.Recipes, Recipe{ID: 1, Slug: "a", Label: "A"})
	doc.Provenance["x"] = &ProvenanceRecord{RecipeIDs: []int64{1}}

	clone := doc.Clone()
	clone.Recipes[0].Label = "mutated"
	clone.Provenance["x"].RecipeIDs = append(clone.Provenance["x"].RecipeIDs, 2)
	clone.NextIDs.Recipe = 99

	assert.Equal(t, "A", doc.Recipes[0].Label)
	assert.Equal(t, []int64{1}, doc.Provenance["x"].RecipeIDs)
	assert.Equal(t, int64(1), doc.NextIDs.Recipe)
}
