package store

import (
	"sort"

	"github.com/samber/lo"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
)

// Stats is a read-only summary of the dataset.
type Stats struct {
	Recipes     int `json:"recipes"`
	Ingredients int `json:"ingredients"`
	Aliases     int `json:"aliases"`
	Entries     int `json:"entries"`
	Provenances int `json:"provenances"`
	Removals    int `json:"removals"`

	IngredientsByLanguage map[string]int `json:"ingredients_by_language"`
	TopIngredients        []Usage        `json:"top_ingredients,omitempty"`
	LargestRecipes        []Usage        `json:"largest_recipes,omitempty"`
}

// Usage pairs an entity's slug and label with how many entries cite it.
type Usage struct {
	Slug    string `json:"slug"`
	Label   string `json:"label"`
	Entries int    `json:"entries"`
}

// Stats computes dataset statistics. topN bounds the two usage rankings.
func (s *Store) Stats(topN int) *Stats {
	doc := s.doc
	st := &Stats{
		Recipes:     len(doc.Recipes),
		Ingredients: len(doc.Ingredients),
		Aliases:     len(doc.Aliases),
		Entries:     len(doc.Entries),
		Provenances: len(doc.Provenance),
		Removals:    len(doc.Removals),
	}

	st.IngredientsByLanguage = lo.CountValuesBy(doc.Ingredients, func(ing dataset.Ingredient) string {
		if ing.Language == "" {
			return "unknown"
		}
		return ing.Language
	})

	entriesByIngredient := lo.CountValuesBy(doc.Entries, func(e dataset.Entry) int64 { return e.IngredientID })
	entriesByRecipe := lo.CountValuesBy(doc.Entries, func(e dataset.Entry) int64 { return e.RecipeID })

	st.TopIngredients = topUsages(
		lo.Map(doc.Ingredients, func(ing dataset.Ingredient, _ int) Usage {
			return Usage{Slug: ing.Slug, Label: ing.Label, Entries: entriesByIngredient[ing.ID]}
		}), topN)
	st.LargestRecipes = topUsages(
		lo.Map(doc.Recipes, func(r dataset.Recipe, _ int) Usage {
			return Usage{Slug: r.Slug, Label: r.Label, Entries: entriesByRecipe[r.ID]}
		}), topN)

	return st
}

func topUsages(usages []Usage, n int) []Usage {
	usages = lo.Filter(usages, func(u Usage, _ int) bool { return u.Entries > 0 })
	sort.Slice(usages, func(i, j int) bool {
		if usages[i].Entries != usages[j].Entries {
			return usages[i].Entries > usages[j].Entries
		}
		return usages[i].Slug < usages[j].Slug
	})
	if n > 0 && len(usages) > n {
		usages = usages[:n]
	}
	return usages
}
