package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alchemiesofscent/recipe-aligner/internal/schema"
)

// ErrorCode categorizes store operation failures.
type ErrorCode string

const (
	// ErrCodeValidation indicates the diff failed schema or reference
	// validation; nothing was merged.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeDuplicateRecipe indicates a diff recipe slug collides with an
	// existing recipe and restatement was not permitted.
	ErrCodeDuplicateRecipe ErrorCode = "DUPLICATE_RECIPE"

	// ErrCodeDuplicateSource indicates a merge reused an already-recorded
	// provenance key.
	ErrCodeDuplicateSource ErrorCode = "DUPLICATE_SOURCE"

	// ErrCodeUnresolvedReference indicates an alias or entry pointed at a
	// slug that resolved to nothing at apply time.
	ErrCodeUnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"

	// ErrCodeUnknownProvenance indicates a removal targeted a provenance
	// key the store has no record of.
	ErrCodeUnknownProvenance ErrorCode = "UNKNOWN_PROVENANCE"

	// ErrCodeCorruptStore indicates the persisted store violates its own
	// invariants (dangling foreign key, duplicate slug, stale counter).
	ErrCodeCorruptStore ErrorCode = "CORRUPT_STORE"
)

// Error is a store operation failure with structured context. All
// merge/remove failures are all-or-nothing: when an Error is returned the
// store is exactly as it was before the operation.
type Error struct {
	Code    ErrorCode
	Message string

	// Slug names the offending slug for duplicate/unresolved errors.
	Slug string

	// Index is the offending array index within the diff, -1 when n/a.
	Index int

	// Key is the provenance key for provenance-related errors.
	Key string

	// Violations carries the full validation report for VALIDATION errors.
	Violations []schema.Violation

	// Problems lists integrity violations for CORRUPT_STORE errors.
	Problems []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case len(e.Violations) > 0:
		return fmt.Sprintf("%s: %s (%d violations)", e.Code, e.Message, len(e.Violations))
	case len(e.Problems) > 0:
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, strings.Join(e.Problems, "; "))
	case e.Slug != "" && e.Index >= 0:
		return fmt.Sprintf("%s: %s (slug=%q, index=%d)", e.Code, e.Message, e.Slug, e.Index)
	case e.Slug != "":
		return fmt.Sprintf("%s: %s (slug=%q)", e.Code, e.Message, e.Slug)
	case e.Key != "":
		return fmt.Sprintf("%s: %s (key=%q)", e.Code, e.Message, e.Key)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsCode reports whether err is a store Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func newValidationError(violations []schema.Violation) *Error {
	return &Error{
		Code:       ErrCodeValidation,
		Message:    "diff failed validation",
		Index:      -1,
		Violations: violations,
	}
}

func newDuplicateRecipeError(slug string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateRecipe,
		Message: "recipe slug already present in store",
		Slug:    slug,
		Index:   -1,
	}
}

func newDuplicateSourceError(key string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateSource,
		Message: "provenance key already recorded; remove it before re-merging",
		Key:     key,
		Index:   -1,
	}
}

func newUnresolvedReferenceError(kind, slug string, index int) *Error {
	return &Error{
		Code:    ErrCodeUnresolvedReference,
		Message: fmt.Sprintf("%s reference did not resolve", kind),
		Slug:    slug,
		Index:   index,
	}
}

func newUnknownProvenanceError(key string) *Error {
	return &Error{
		Code:    ErrCodeUnknownProvenance,
		Message: "no merge recorded under provenance key",
		Key:     key,
		Index:   -1,
	}
}

func newCorruptStoreError(problems []string) *Error {
	return &Error{
		Code:     ErrCodeCorruptStore,
		Message:  "store document violates integrity invariants",
		Index:    -1,
		Problems: problems,
	}
}
