// Package dataset defines the persisted data model for the recipe corpus.
//
// Two document families exist:
//
//   - The canonical store document: id-keyed Recipe/Ingredient/Alias/Entry
//     tables plus per-type id counters and the provenance map. Internal
//     foreign keys are always integer ids, never slugs.
//   - The diff document: a slug-keyed incremental submission authored by a
//     human or an LLM. Diffs never carry ids; the merger mints them.
//
// Slugs are lemmatic: they identify one written form of a name in one
// language, so two spellings of the same substance get distinct slugs.
// Cross-language identity lives in the equivalence index, not here.
package dataset
