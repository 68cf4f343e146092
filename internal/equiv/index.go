// Package equiv maintains the semantic-equivalence index: named groups
// of terms (slugs, labels, alias variants) asserted to denote the same
// real-world substance across languages and sources.
//
// The index is a document of its own, deliberately independent of the
// canonical store. Group edits are pure data changes with no implicit
// validation, because equivalence judgments legitimately lead or lag the
// corresponding store merge; consistency is checked by an explicit
// reconciliation pass (Validate), never enforced at write time, and
// inconsistencies are reported rather than auto-fixed.
package equiv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
)

// Index maps group name to an ordered list of terms. Term order is
// curated by the operator and preserved across load/save.
type Index struct {
	groups map[string][]string
}

// New returns an empty index.
func New() *Index {
	return &Index{groups: map[string][]string{}}
}

// Load reads an index document. A missing file is not an error: the
// workflow starts groups before the file exists.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load equivalences: %w", err)
	}
	var groups map[string][]string
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("load equivalences %s: %w", path, err)
	}
	if groups == nil {
		groups = map[string][]string{}
	}
	return &Index{groups: groups}, nil
}

// Save writes the index with group names sorted, so the persisted
// document is stable under repeated save.
func (ix *Index) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save equivalences: %w", err)
		}
	}
	var buf bytes.Buffer
	buf.WriteString("{\n")
	names := ix.Groups()
	for i, name := range names {
		nameJSON, err := marshalNoEscape(name)
		if err != nil {
			return err
		}
		termsJSON, err := marshalNoEscape(ix.groups[name])
		if err != nil {
			return err
		}
		buf.WriteString("  ")
		buf.Write(nameJSON)
		buf.WriteString(": ")
		buf.Write(termsJSON)
		if i < len(names)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save equivalences: %w", err)
	}
	return nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshal equivalences: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Groups returns all group names, sorted.
func (ix *Index) Groups() []string {
	names := lo.Keys(ix.groups)
	sort.Strings(names)
	return names
}

// Terms returns the term list for a group, in curated order.
func (ix *Index) Terms(group string) ([]string, bool) {
	terms, ok := ix.groups[group]
	return terms, ok
}

// Len returns the number of groups.
func (ix *Index) Len() int { return len(ix.groups) }

// CreateGroup adds a new group. The terms keep their given order, with
// exact duplicates dropped.
func (ix *Index) CreateGroup(name string, terms []string) error {
	if name == "" {
		return fmt.Errorf("create group: name must not be empty")
	}
	if _, exists := ix.groups[name]; exists {
		return fmt.Errorf("create group: %q already exists", name)
	}
	ix.groups[name] = lo.Uniq(terms)
	return nil
}

// AddTerms appends terms to an existing group, skipping exact duplicates
// and preserving the order of what is already there.
func (ix *Index) AddTerms(group string, terms ...string) error {
	existing, ok := ix.groups[group]
	if !ok {
		return fmt.Errorf("add terms: no group %q", group)
	}
	ix.groups[group] = lo.Uniq(append(existing, terms...))
	return nil
}
