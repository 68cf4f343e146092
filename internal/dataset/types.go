package dataset

// EntityType identifies one of the four id-keyed tables in the store.
type EntityType string

const (
	EntityRecipe     EntityType = "recipe"
	EntityIngredient EntityType = "ingredient"
	EntityAlias      EntityType = "alias"
	EntityEntry      EntityType = "entry"
)

// Alias source kinds. A variant label records how it relates to its
// ingredient's original-language form.
const (
	AliasTranslation     = "translation"
	AliasTransliteration = "transliteration"
	AliasIdentification  = "identification"
	AliasVariant         = "variant"
)

// Recipe is one historical recipe. The slug is unique and immutable once
// assigned; Date is era-agnostic (negative = BCE).
type Recipe struct {
	ID       int64  `json:"recipe_id"`
	Slug     string `json:"slug"`
	Label    string `json:"label"`
	Source   string `json:"source,omitempty"`
	Language string `json:"language,omitempty"`
	Date     *int   `json:"date,omitempty"`
}

// Ingredient is one written form of an ingredient name. Label keeps the
// original-language spelling.
type Ingredient struct {
	ID       int64  `json:"ingredient_id"`
	Slug     string `json:"slug"`
	Label    string `json:"label"`
	Language string `json:"language,omitempty"`
}

// Alias is a variant label for exactly one ingredient. Duplicates on
// (ingredient id, variant label, language) are suppressed at merge time.
type Alias struct {
	ID           int64  `json:"alias_id"`
	IngredientID int64  `json:"ingredient_id"`
	VariantLabel string `json:"variant_label"`
	Language     string `json:"language,omitempty"`
	Source       string `json:"source,omitempty"`
}

// Entry is one usage of one ingredient within one recipe. The same
// (recipe, ingredient) pair may appear more than once, e.g. an ingredient
// used twice with different preparations, so entries are never
// deduplicated by that pair alone.
type Entry struct {
	ID             int64    `json:"entry_id"`
	RecipeID       int64    `json:"recipe_id"`
	IngredientID   int64    `json:"ingredient_id"`
	AmountRaw      *string  `json:"amount_raw"`
	AmountValue    *float64 `json:"amount_value,omitempty"`
	AmountUnit     *string  `json:"amount_unit,omitempty"`
	Preparation    *string  `json:"preparation,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
	SourceCitation *string  `json:"source_citation,omitempty"`
	SourceSpan     *string  `json:"source_span,omitempty"`
	AddedAt        string   `json:"added_at,omitempty"`
	AddedBy        string   `json:"added_by,omitempty"`
}

// Counters holds the persisted next-id value per entity type. Counters
// only ever move forward; removal never gives an id back (tombstone
// semantics), which is what makes re-merging a removed diff detectable.
type Counters struct {
	Recipe     int64 `json:"recipe"`
	Ingredient int64 `json:"ingredient"`
	Alias      int64 `json:"alias"`
	Entry      int64 `json:"entry"`
}

// ProvenanceRecord lists the ids one merged diff introduced. The remover
// uses it to reverse exactly that diff's contribution.
type ProvenanceRecord struct {
	RecipeIDs     []int64 `json:"recipe_ids,omitempty"`
	IngredientIDs []int64 `json:"ingredient_ids,omitempty"`
	AliasIDs      []int64 `json:"alias_ids,omitempty"`
	EntryIDs      []int64 `json:"entry_ids,omitempty"`
	AddedBy       string  `json:"added_by,omitempty"`
	AddedAt       string  `json:"added_at,omitempty"`
}

// RemovalNote is one audit-trail record appended by the remover.
type RemovalNote struct {
	ID                 string `json:"id"`
	ProvenanceKey      string `json:"provenance_key"`
	Reason             string `json:"reason,omitempty"`
	RemovedBy          string `json:"removed_by,omitempty"`
	RemovedAt          string `json:"removed_at"`
	EntriesRemoved     int    `json:"entries_removed"`
	AliasesRemoved     int    `json:"aliases_removed"`
	IngredientsRemoved int    `json:"ingredients_removed"`
	RecipesRemoved     int    `json:"recipes_removed"`
}

// Document is the persisted canonical store.
type Document struct {
	Recipes     []Recipe                     `json:"recipes"`
	Ingredients []Ingredient                 `json:"ingredients"`
	Aliases     []Alias                      `json:"aliases"`
	Entries     []Entry                      `json:"entries"`
	NextIDs     Counters                     `json:"next_ids"`
	Provenance  map[string]*ProvenanceRecord `json:"provenance"`
	Removals    []RemovalNote                `json:"removals,omitempty"`
}

// NewDocument returns an empty store document with counters at 1.
func NewDocument() *Document {
	return &Document{
		Recipes:     []Recipe{},
		Ingredients: []Ingredient{},
		Aliases:     []Alias{},
		Entries:     []Entry{},
		NextIDs:     Counters{Recipe: 1, Ingredient: 1, Alias: 1, Entry: 1},
		Provenance:  map[string]*ProvenanceRecord{},
	}
}

// Clone returns a deep copy of the document. The merger and remover
// mutate a clone and swap it in only on success.
func (d *Document) Clone() *Document {
	out := &Document{
		Recipes:     make([]Recipe, len(d.Recipes)),
		Ingredients: make([]Ingredient, len(d.Ingredients)),
		Aliases:     make([]Alias, len(d.Aliases)),
		Entries:     make([]Entry, len(d.Entries)),
		NextIDs:     d.NextIDs,
		Provenance:  make(map[string]*ProvenanceRecord, len(d.Provenance)),
		Removals:    make([]RemovalNote, len(d.Removals)),
	}
	copy(out.Recipes, d.Recipes)
	copy(out.Ingredients, d.Ingredients)
	copy(out.Aliases, d.Aliases)
	copy(out.Entries, d.Entries)
	copy(out.Removals, d.Removals)
	for key, rec := range d.Provenance {
		cp := *rec
		cp.RecipeIDs = append([]int64(nil), rec.RecipeIDs...)
		cp.IngredientIDs = append([]int64(nil), rec.IngredientIDs...)
		cp.AliasIDs = append([]int64(nil), rec.AliasIDs...)
		cp.EntryIDs = append([]int64(nil), rec.EntryIDs...)
		out.Provenance[key] = &cp
	}
	return out
}
