// Package schema validates diff documents before they reach the merger.
//
// Validation happens in two layers:
//
//  1. Shape: the document is unified with the CUE schema in diff.cue.
//     Required fields, types, and enum values come back as path-addressed
//     violations.
//  2. References: every slug referenced by an alias or entry must resolve
//     either to an ingredient/recipe declared earlier in the same diff or
//     to one already present in the canonical store.
//
// Validation never mutates anything and never repairs anything; every
// problem is surfaced so the author can fix the source diff.
package schema

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	_ "embed"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
)

// Violation codes (E200-E219).
const (
	ErrNotJSON                = "E200" // document is not valid JSON
	ErrShape                  = "E201" // schema shape/type violation
	ErrDuplicateRecipe        = "E210" // duplicate recipe slug within the diff
	ErrDuplicateIngredient    = "E211" // duplicate ingredient slug within the diff
	ErrAliasUnknownRef        = "E212" // alias references unknown ingredient slug
	ErrEntryUnknownRecipe     = "E213" // entry references unknown recipe slug
	ErrEntryUnknownIngredient = "E214" // entry references unknown ingredient slug
)

// Violation is one validation problem, addressed by document path.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	if v.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", v.Code, v.Path, v.Message)
	}
	return fmt.Sprintf("[%s] %s", v.Code, v.Message)
}

// Resolver answers whether a slug is already present in the canonical
// store. The store satisfies this; tests use a stub.
type Resolver interface {
	ResolveRecipeSlug(slug string) (int64, bool)
	ResolveIngredientSlug(slug string) (int64, bool)
}

//go:embed diff.cue
var diffSchemaSrc string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	diffSchema cue.Value
)

func compiledSchema() (*cue.Context, cue.Value) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		compiled := schemaCtx.CompileString(diffSchemaSrc, cue.Filename("diff.cue"))
		diffSchema = compiled.LookupPath(cue.ParsePath("#Diff"))
	})
	return schemaCtx, diffSchema
}

// CheckShape validates raw diff bytes against the CUE schema. The
// returned slice is empty when the document is well shaped. filename is
// only used in messages.
func CheckShape(filename string, data []byte) []Violation {
	ctx, schemaVal := compiledSchema()
	if err := schemaVal.Err(); err != nil {
		// The embedded schema failed to compile; not author-fixable.
		return []Violation{{Path: "", Message: fmt.Sprintf("internal schema error: %v", err), Code: ErrShape}}
	}

	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return []Violation{{Path: "", Message: err.Error(), Code: ErrNotJSON}}
	}

	docVal := ctx.BuildExpr(expr)
	unified := schemaVal.Unify(docVal)
	verr := unified.Validate(cue.Concrete(true), cue.Final())
	if verr == nil {
		return nil
	}

	var out []Violation
	for _, e := range cueerrors.Errors(verr) {
		format, args := e.Msg()
		out = append(out, Violation{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Code:    ErrShape,
		})
	}
	return out
}

// Check runs both validation layers over raw diff bytes. On a clean
// document it returns the parsed diff and no violations. A non-nil error
// is reserved for internal failures, never authoring mistakes.
func Check(filename string, data []byte, res Resolver) (*dataset.Diff, []Violation, error) {
	if violations := CheckShape(filename, data); len(violations) > 0 {
		return nil, violations, nil
	}
	d, err := dataset.ParseDiff(data)
	if err != nil {
		// Shape validation passed, so this indicates a schema/type drift
		// between diff.cue and the Go types.
		return nil, nil, fmt.Errorf("decode validated diff: %w", err)
	}
	if violations := CheckReferences(d, res); len(violations) > 0 {
		return nil, violations, nil
	}
	return d, nil, nil
}
