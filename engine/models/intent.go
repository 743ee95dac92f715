package models

import (
	"math"
	"strconv"
)

// ============================================================================
// INTENT - Structured meaning of one natural-language question
// ============================================================================

// Intent is the result of matching a question against the rule cascade
// Operation is always set; a question that matches no rule yields no Intent at all
type Intent struct {
	Operation string       `json:"operation"`           // count, aggregate, select_all, find, find_all, join
	Rule      string       `json:"rule,omitempty"`      // Cascade rule that produced the intent
	Table     string       `json:"table,omitempty"`     // Table or collection
	Fields    []string     `json:"fields,omitempty"`    // Canonical fields mentioned in the question
	Aggregate *Aggregation `json:"aggregate,omitempty"` // Aggregate intents only
	GroupBy   string       `json:"group_by,omitempty"`
	OrderBy   *OrderBy     `json:"order_by,omitempty"`
	Filters   Filters      `json:"filters,omitempty"`
	Join      *Join        `json:"join,omitempty"` // Join intents only
}

// Aggregation is an aggregate function over a target expression
type Aggregation struct {
	Function string           `json:"function"` // sum, average, max, min
	Target   *FieldExpression `json:"target,omitempty"`
}

// OrderBy is a single-field sort
type OrderBy struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // ASC or DESC
}

// Join describes a join against a second table or collection
type Join struct {
	Table   string   `json:"table"`
	On      string   `json:"on"`                // "left.key = right.key"
	As      string   `json:"as,omitempty"`      // Document lookup output field
	Unwind  bool     `json:"unwind,omitempty"`  // Flatten the lookup result
	Columns []string `json:"columns,omitempty"` // Qualified projection; empty means all
}

// ============================================================================
// FIELD EXPRESSION
// ============================================================================

// Expression types
const (
	ExprField   = "FIELD"
	ExprProduct = "PRODUCT"
)

// FieldExpression is an aggregation target: one field or a two-field product
type FieldExpression struct {
	Type  string `json:"type"`
	Left  string `json:"left"`
	Right string `json:"right,omitempty"` // PRODUCT only
}

// NewField creates a single-field expression
func NewField(name string) *FieldExpression {
	return &FieldExpression{Type: ExprField, Left: name}
}

// NewProduct creates a two-field product expression
func NewProduct(left, right string) *FieldExpression {
	return &FieldExpression{Type: ExprProduct, Left: left, Right: right}
}

// IsProduct reports whether the expression multiplies two fields
func (e *FieldExpression) IsProduct() bool {
	return e != nil && e.Type == ExprProduct
}

// Fields returns the fields the expression reads
func (e *FieldExpression) Fields() []string {
	if e == nil {
		return nil
	}
	if e.IsProduct() {
		return []string{e.Left, e.Right}
	}
	return []string{e.Left}
}

func (e *FieldExpression) String() string {
	if e == nil {
		return ""
	}
	if e.IsProduct() {
		return e.Left + " * " + e.Right
	}
	return e.Left
}

// ============================================================================
// FILTERS - ordered, one condition per field
// ============================================================================

// Condition is a single numeric comparison
type Condition struct {
	Field    string  `json:"field"`
	Operator string  `json:"operator"` // gt, lt, eq
	Value    float64 `json:"value"`
}

// Filters keeps conditions in first-seen field order
// Setting a field that is already present replaces its condition in place
type Filters []Condition

// Set records a condition, overwriting any earlier one on the same field
func (f *Filters) Set(field, operator string, value float64) {
	for i := range *f {
		if (*f)[i].Field == field {
			(*f)[i].Operator = operator
			(*f)[i].Value = value
			return
		}
	}
	*f = append(*f, Condition{Field: field, Operator: operator, Value: value})
}

// Get returns the condition on a field
func (f Filters) Get(field string) (Condition, bool) {
	for _, c := range f {
		if c.Field == field {
			return c, true
		}
	}
	return Condition{}, false
}

// NativeValue returns the value as int64 when integral, float64 otherwise
func (c Condition) NativeValue() any {
	if c.Value == math.Trunc(c.Value) && math.Abs(c.Value) < 1<<53 {
		return int64(c.Value)
	}
	return c.Value
}

// FormatValue renders a filter value as a SQL literal
func (c Condition) FormatValue() string {
	switch v := c.NativeValue().(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return strconv.FormatFloat(c.Value, 'f', -1, 64)
	}
}
