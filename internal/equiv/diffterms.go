package equiv

import (
	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
	"github.com/samber/lo"
)

// TermsFromDiff collects, per ingredient slug, the terms a diff
// introduces: the slug itself, the ingredient label, and every alias
// variant label attached to that slug. These are the candidate terms fed
// to SuggestGroupFor when triaging a new submission.
func TermsFromDiff(d *dataset.Diff) map[string][]string {
	terms := map[string][]string{}
	for _, ing := range d.Ingredients {
		terms[ing.Slug] = append(terms[ing.Slug], ing.Slug, ing.Label)
	}
	for _, a := range d.Aliases {
		terms[a.IngredientSlug] = append(terms[a.IngredientSlug], a.VariantLabel)
	}
	for slug := range terms {
		terms[slug] = lo.Uniq(terms[slug])
	}
	return terms
}
