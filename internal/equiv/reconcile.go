package equiv

import (
	"sort"

	"github.com/alchemiesofscent/recipe-aligner/internal/textutil"
)

// ProblemUnresolved marks a term that matches no slug, label, or alias
// in the canonical store.
const ProblemUnresolved = "unresolved"

// Problem is one reconciliation finding. Problems are reported, never
// auto-fixed: deciding whether a term is wrong, premature, or the store
// incomplete takes scholarly judgment.
type Problem struct {
	Group   string `json:"group"`
	Term    string `json:"term"`
	Problem string `json:"problem"`
}

// Validate cross-checks every group term against the store's term set
// (as returned by store.AllTerms). Comparison is exact: a term that only
// differs in casing or diacritics from store content is still a distinct
// written form and must be listed as such.
func (ix *Index) Validate(storeTerms map[string]bool) []Problem {
	var problems []Problem
	for _, group := range ix.Groups() {
		for _, term := range ix.groups[group] {
			if !storeTerms[term] {
				problems = append(problems, Problem{Group: group, Term: term, Problem: ProblemUnresolved})
			}
		}
	}
	return problems
}

// Candidate is an existing group ranked by exact-overlap count.
type Candidate struct {
	Group   string   `json:"group"`
	Overlap int      `json:"overlap"`
	Matched []string `json:"matched"`
}

// SuggestGroupFor scores each group by how many of the candidate terms
// it already contains, case- and diacritic-insensitively. Groups with
// any overlap come back ranked by overlap descending, ties broken by
// group name. An empty result means no group matches and the caller
// should offer to create a new one.
func (ix *Index) SuggestGroupFor(candidateTerms []string) []Candidate {
	folded := make(map[string]string, len(candidateTerms)) // folded -> original
	for _, t := range candidateTerms {
		if f := textutil.Fold(t); f != "" {
			folded[f] = t
		}
	}

	var out []Candidate
	for _, group := range ix.Groups() {
		seen := make(map[string]bool)
		var matched []string
		for _, term := range ix.groups[group] {
			f := textutil.Fold(term)
			if original, ok := folded[f]; ok && !seen[f] {
				matched = append(matched, original)
				seen[f] = true
			}
		}
		if len(matched) > 0 {
			out = append(out, Candidate{Group: group, Overlap: len(matched), Matched: matched})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Overlap != out[j].Overlap {
			return out[i].Overlap > out[j].Overlap
		}
		return out[i].Group < out[j].Group
	})
	return out
}

// SimilarCandidate is a near-miss group found by fuzzy comparison; it is
// tentative and needs operator confirmation.
type SimilarCandidate struct {
	Group         string  `json:"group"`
	GroupTerm     string  `json:"group_term"`
	CandidateTerm string  `json:"candidate_term"`
	Score         float64 `json:"score"`
}

// SuggestSimilar finds groups whose terms are merely similar to the
// candidate terms (similarity at or above threshold), for cases where no
// exact overlap exists. One best-scoring pair is reported per group,
// ranked by score descending, ties by group name.
func (ix *Index) SuggestSimilar(candidateTerms []string, threshold float64) []SimilarCandidate {
	best := make(map[string]SimilarCandidate)
	for _, group := range ix.Groups() {
		for _, term := range ix.groups[group] {
			for _, cand := range candidateTerms {
				score := textutil.Similarity(term, cand)
				if score < threshold {
					continue
				}
				prev, ok := best[group]
				if !ok || score > prev.Score {
					best[group] = SimilarCandidate{Group: group, GroupTerm: term, CandidateTerm: cand, Score: score}
				}
			}
		}
	}
	out := make([]SimilarCandidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Group < out[j].Group
	})
	return out
}
