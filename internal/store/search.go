package store

import (
	"fmt"
	"sort"

	"github.com/alchemiesofscent/recipe-aligner/internal/textutil"
)

// Match is one fuzzy search hit, ranked by similarity.
type Match struct {
	Slug       string  `json:"slug"`
	Label      string  `json:"label"`
	Language   string  `json:"language,omitempty"`
	MatchedVia string  `json:"matched_via"`
	Score      float64 `json:"score"`
}

// RankSimilar scores the query against every ingredient label and alias
// variant label (case- and diacritic-insensitive) and returns matches at
// or above threshold, best first, one per slug. Scores are advisory: the
// operator decides whether a hit is the same substance.
func (s *Store) RankSimilar(query string, threshold float64) []Match {
	ingredientByID := make(map[int64]int, len(s.doc.Ingredients))
	for i, ing := range s.doc.Ingredients {
		ingredientByID[ing.ID] = i
	}

	best := make(map[string]Match)
	consider := func(m Match) {
		prev, ok := best[m.Slug]
		if !ok || m.Score > prev.Score {
			best[m.Slug] = m
		}
	}

	for _, ing := range s.doc.Ingredients {
		if score := textutil.Similarity(query, ing.Label); score >= threshold {
			consider(Match{Slug: ing.Slug, Label: ing.Label, Language: ing.Language, MatchedVia: "label", Score: score})
		}
		if score := textutil.Similarity(query, ing.Slug); score >= threshold {
			consider(Match{Slug: ing.Slug, Label: ing.Label, Language: ing.Language, MatchedVia: "slug", Score: score})
		}
	}
	for _, a := range s.doc.Aliases {
		idx, ok := ingredientByID[a.IngredientID]
		if !ok {
			continue
		}
		ing := s.doc.Ingredients[idx]
		if score := textutil.Similarity(query, a.VariantLabel); score >= threshold {
			consider(Match{
				Slug:       ing.Slug,
				Label:      ing.Label,
				Language:   ing.Language,
				MatchedVia: fmt.Sprintf("alias %q", a.VariantLabel),
				Score:      score,
			})
		}
	}

	matches := make([]Match, 0, len(best))
	for _, m := range best {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Slug < matches[j].Slug
	})
	return matches
}
