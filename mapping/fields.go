package mapping

import (
	"fmt"
	"sort"
	"strings"
)

// FieldCatalog holds the field vocabulary of one backend
type FieldCatalog struct {
	Canonical []string          // Recognized fields, in canonical order
	Numeric   []string          // Fields eligible as aggregation targets
	Synonyms  map[string]string // Phrase -> "field", "a, b" or "a * b"
	Product   [2]string         // Known two-field product (quantity, price)
}

// JoinGroup is one side of a known relationship
type JoinGroup struct {
	Table  string
	Fields []string
}

// JoinSpec describes the relationship between a fact group and a dimension group
type JoinSpec struct {
	Primary   JoinGroup
	Secondary JoinGroup
	Key       string // Shared key column present on both sides
	As        string // Document lookup output field
}

// SynonymTarget is a parsed synonym expansion
type SynonymTarget struct {
	Fields  []string
	Product bool // True when the phrase expands to "a * b"
}

// ============================================================================
// FIELD VOCABULARY
// ============================================================================

// Fields - Runtime field catalog per backend
// Usage: Fields["relational"].Synonyms["sales"] returns "transaction_qty, unit_price"
var Fields = map[string]FieldCatalog{
	Relational: {
		Canonical: []string{
			"transaction_qty",
			"store_location",
			"unit_price",
			"product_category",
			"transaction_date",
			"user_name",
			"user_email",
			"registration_date",
			"customer_name",
			"product_name",
			"order_date",
			"store_id",
			"user_id",
		},
		Numeric: []string{"transaction_qty", "unit_price"},
		Synonyms: map[string]string{
			"sale":              "transaction_qty, unit_price",
			"sales":             "transaction_qty, unit_price",
			"total sales":       "transaction_qty * unit_price",
			"location":          "store_location",
			"store location":    "store_location",
			"store":             "store_location",
			"units":             "transaction_qty",
			"quantity":          "transaction_qty",
			"price":             "unit_price",
			"category":          "product_category",
			"product":           "product_name",
			"product name":      "product_name",
			"date":              "transaction_date",
			"user name":         "user_name",
			"email":             "user_email",
			"customer":          "customer_name",
			"registration date": "registration_date",
			"order date":        "order_date",
		},
		Product: [2]string{"transaction_qty", "unit_price"},
	},
	Document: {
		Canonical: []string{
			"sales_amount",
			"customer_name",
			"customer_email",
			"phone_number",
			"product_name",
			"category",
			"price",
			"quantity",
			"order_date",
			"order_id",
			"customer_id",
		},
		Numeric: []string{"sales_amount", "price", "quantity"},
		Synonyms: map[string]string{
			"sale":        "sales_amount",
			"sales":       "sales_amount",
			"total sales": "quantity * price",
			"customer":    "customer_name",
			"email":       "customer_email",
			"phone":       "phone_number",
			"product":     "product_name",
			"category":    "category",
			"price":       "price",
			"quantity":    "quantity",
			"date":        "order_date",
			"order date":  "order_date",
		},
		Product: [2]string{"quantity", "price"},
	},
}

// JoinGroups - Known relationship per backend
var JoinGroups = map[string]JoinSpec{
	Relational: {
		Primary: JoinGroup{
			Table:  "transactions",
			Fields: []string{"transaction_qty", "unit_price", "transaction_date", "store_id", "user_id"},
		},
		Secondary: JoinGroup{
			Table:  "users",
			Fields: []string{"user_name", "user_email", "registration_date"},
		},
		Key: "user_id",
	},
	Document: {
		Primary: JoinGroup{
			Table:  "orders",
			Fields: []string{"sales_amount", "product_name", "category", "price", "quantity", "order_date", "order_id", "customer_id"},
		},
		Secondary: JoinGroup{
			Table:  "customers",
			Fields: []string{"customer_name", "customer_email", "phone_number"},
		},
		Key: "customer_id",
		As:  "joined_result",
	},
}

// ============================================================================
// REVERSE INDEXES (built once at init)
// ============================================================================

// SynonymTargets - parsed synonym expansions per backend
var SynonymTargets map[string]map[string]SynonymTarget

// SynonymPhrases - synonym keys per backend, longest first then alphabetical
var SynonymPhrases map[string][]string

var (
	canonicalIndex map[string]map[string]int
	numericSet     map[string]map[string]bool
)

func init() {
	SynonymTargets = make(map[string]map[string]SynonymTarget)
	SynonymPhrases = make(map[string][]string)
	canonicalIndex = make(map[string]map[string]int)
	numericSet = make(map[string]map[string]bool)

	for backend, catalog := range Fields {
		canonicalIndex[backend] = make(map[string]int)
		for i, field := range catalog.Canonical {
			canonicalIndex[backend][field] = i
		}

		numericSet[backend] = make(map[string]bool)
		for _, field := range catalog.Numeric {
			numericSet[backend][field] = true
		}

		SynonymTargets[backend] = make(map[string]SynonymTarget)
		phrases := make([]string, 0, len(catalog.Synonyms))
		for phrase, expr := range catalog.Synonyms {
			SynonymTargets[backend][phrase] = ParseTarget(expr)
			phrases = append(phrases, phrase)
		}
		SortLongestFirst(phrases)
		SynonymPhrases[backend] = phrases
	}

	MustValidate()
}

// ParseTarget splits a synonym expansion into its fields
func ParseTarget(expr string) SynonymTarget {
	if strings.Contains(expr, "*") {
		parts := strings.SplitN(expr, "*", 2)
		return SynonymTarget{
			Fields:  []string{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])},
			Product: true,
		}
	}

	var fields []string
	for _, part := range strings.Split(expr, ",") {
		if f := strings.TrimSpace(part); f != "" {
			fields = append(fields, f)
		}
	}
	return SynonymTarget{Fields: fields}
}

// SortLongestFirst orders phrases by descending length, ties alphabetical
func SortLongestFirst(phrases []string) {
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})
}

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

// IsCanonical checks if a field is recognized for a backend
func IsCanonical(backend, field string) bool {
	_, ok := canonicalIndex[backend][field]
	return ok
}

// IsNumeric checks if a field is eligible as an aggregation target
func IsNumeric(backend, field string) bool {
	return numericSet[backend][field]
}

// CanonicalOrder returns the position of a field in the canonical list, or -1
func CanonicalOrder(backend, field string) int {
	if i, ok := canonicalIndex[backend][field]; ok {
		return i
	}
	return -1
}

// SortCanonical orders fields by their canonical position
func SortCanonical(backend string, fields []string) {
	sort.SliceStable(fields, func(i, j int) bool {
		return CanonicalOrder(backend, fields[i]) < CanonicalOrder(backend, fields[j])
	})
}

// NormalizeField resolves a single word to a canonical field
// Returns "" when the word is neither canonical nor a single-field synonym
func NormalizeField(backend, word string) string {
	if IsCanonical(backend, word) {
		return word
	}
	target, ok := SynonymTargets[backend][word]
	if !ok || target.Product || len(target.Fields) != 1 {
		return ""
	}
	return target.Fields[0]
}

// GroupOf returns the join group table a field belongs to, or ""
func GroupOf(backend, field string) string {
	spec, ok := JoinGroups[backend]
	if !ok {
		return ""
	}
	for _, f := range spec.Primary.Fields {
		if f == field {
			return spec.Primary.Table
		}
	}
	for _, f := range spec.Secondary.Fields {
		if f == field {
			return spec.Secondary.Table
		}
	}
	return ""
}

// ============================================================================
// VALIDATION
// ============================================================================

// Validate checks that every reference in the catalog names a canonical field
func (c FieldCatalog) Validate(backend string) error {
	known := make(map[string]bool, len(c.Canonical))
	for _, f := range c.Canonical {
		if known[f] {
			return fmt.Errorf("%s: duplicate canonical field '%s'", backend, f)
		}
		known[f] = true
	}

	for _, f := range c.Numeric {
		if !known[f] {
			return fmt.Errorf("%s: numeric field '%s' is not canonical", backend, f)
		}
	}

	for _, f := range c.Product {
		if !known[f] {
			return fmt.Errorf("%s: product operand '%s' is not canonical", backend, f)
		}
	}

	for phrase, expr := range c.Synonyms {
		if phrase != strings.ToLower(phrase) {
			return fmt.Errorf("%s: synonym '%s' must be lowercase", backend, phrase)
		}
		target := ParseTarget(expr)
		if len(target.Fields) == 0 {
			return fmt.Errorf("%s: synonym '%s' has an empty target", backend, phrase)
		}
		for _, f := range target.Fields {
			if !known[f] {
				return fmt.Errorf("%s: synonym '%s' targets unknown field '%s'", backend, phrase, f)
			}
		}
	}

	return nil
}

// Validate checks that both join groups only hold canonical fields
func (j JoinSpec) Validate(backend string, catalog FieldCatalog) error {
	known := make(map[string]bool, len(catalog.Canonical))
	for _, f := range catalog.Canonical {
		known[f] = true
	}
	for _, group := range []JoinGroup{j.Primary, j.Secondary} {
		if group.Table == "" {
			return fmt.Errorf("%s: join group without table", backend)
		}
		for _, f := range group.Fields {
			if !known[f] {
				return fmt.Errorf("%s: join field '%s' of '%s' is not canonical", backend, f, group.Table)
			}
		}
	}
	if j.Key == "" {
		return fmt.Errorf("%s: join key is required", backend)
	}
	return nil
}

// ValidateCatalog checks the whole static vocabulary
func ValidateCatalog() error {
	for _, backend := range SupportedBackends {
		catalog, ok := Fields[backend]
		if !ok {
			return fmt.Errorf("no field catalog for backend '%s'", backend)
		}
		if err := catalog.Validate(backend); err != nil {
			return err
		}
		if join, ok := JoinGroups[backend]; ok {
			if err := join.Validate(backend, catalog); err != nil {
				return err
			}
		}
	}
	for phrase, table := range TableSynonyms {
		if phrase == "" || table == "" {
			return fmt.Errorf("table synonym '%s' -> '%s' is empty", phrase, table)
		}
	}
	return nil
}

// MustValidate panics when the static vocabulary is corrupt
func MustValidate() {
	if err := ValidateCatalog(); err != nil {
		panic(fmt.Sprintf("mapping: corrupt vocabulary catalog: %v", err))
	}
}
