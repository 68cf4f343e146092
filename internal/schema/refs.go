package schema

import (
	"fmt"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
)

// CheckReferences verifies slug uniqueness within the diff and that every
// cross-reference resolves, either against the diff's own declarations or
// against the canonical store via res. res may be nil when validating a
// diff in isolation (e.g. against an empty store).
func CheckReferences(d *dataset.Diff, res Resolver) []Violation {
	var out []Violation

	recipeSlugs := make(map[string]bool, len(d.Recipes))
	for i, r := range d.Recipes {
		if recipeSlugs[r.Slug] {
			out = append(out, Violation{
				Path:    fmt.Sprintf("recipes.%d.slug", i),
				Message: fmt.Sprintf("duplicate recipe slug %q within diff", r.Slug),
				Code:    ErrDuplicateRecipe,
			})
		}
		recipeSlugs[r.Slug] = true
	}

	ingredientSlugs := make(map[string]bool, len(d.Ingredients))
	for i, ing := range d.Ingredients {
		if ingredientSlugs[ing.Slug] {
			out = append(out, Violation{
				Path:    fmt.Sprintf("ingredients.%d.slug", i),
				Message: fmt.Sprintf("duplicate ingredient slug %q within diff", ing.Slug),
				Code:    ErrDuplicateIngredient,
			})
		}
		ingredientSlugs[ing.Slug] = true
	}

	recipeKnown := func(slug string) bool {
		if recipeSlugs[slug] {
			return true
		}
		if res != nil {
			_, ok := res.ResolveRecipeSlug(slug)
			return ok
		}
		return false
	}
	ingredientKnown := func(slug string) bool {
		if ingredientSlugs[slug] {
			return true
		}
		if res != nil {
			_, ok := res.ResolveIngredientSlug(slug)
			return ok
		}
		return false
	}

	for i, a := range d.Aliases {
		if !ingredientKnown(a.IngredientSlug) {
			out = append(out, Violation{
				Path:    fmt.Sprintf("aliases.%d.ingredient_slug", i),
				Message: fmt.Sprintf("ingredient slug %q matches neither the diff nor the store", a.IngredientSlug),
				Code:    ErrAliasUnknownRef,
			})
		}
	}

	for i, e := range d.Entries {
		if !recipeKnown(e.RecipeSlug) {
			out = append(out, Violation{
				Path:    fmt.Sprintf("entries.%d.recipe_slug", i),
				Message: fmt.Sprintf("recipe slug %q matches neither the diff nor the store", e.RecipeSlug),
				Code:    ErrEntryUnknownRecipe,
			})
		}
		if !ingredientKnown(e.IngredientSlug) {
			out = append(out, Violation{
				Path:    fmt.Sprintf("entries.%d.ingredient_slug", i),
				Message: fmt.Sprintf("ingredient slug %q matches neither the diff nor the store", e.IngredientSlug),
				Code:    ErrEntryUnknownIngredient,
			})
		}
	}

	return out
}
