package mapping

import "strings"

// Filter comparison operators carried by an intent
const (
	FilterGT = "gt"
	FilterLT = "lt"
	FilterEQ = "eq"
)

// FilterOperators lists operators in the order their scans run
// A later scan overwrites an earlier one on the same field
var FilterOperators = []string{FilterGT, FilterLT, FilterEQ}

// FilterPhrases maps each operator to the phrases that express it
// Multi-word phrases may be separated by any whitespace
var FilterPhrases = map[string][]string{
	FilterGT: {"greater than", ">"},
	FilterLT: {"less than", "<"},
	FilterEQ: {"equal to", "="},
}

// FilterCopulas may sit between the field and the comparison phrase
var FilterCopulas = []string{"is", "are", "was", "were"}

// OperatorMap - Runtime mapping for translators
// Usage: OperatorMap["document"]["gt"] returns "$gt"
var OperatorMap = map[string]map[string]string{
	Relational: {
		FilterGT: ">",
		FilterLT: "<",
		FilterEQ: "=",
	},
	Document: {
		FilterGT: "$gt",
		FilterLT: "$lt",
		FilterEQ: "$eq",
	},
}

// NativeToOperator - reverse mapping built from OperatorMap
// Usage: NativeToOperator["relational"][">"] returns "gt"
var NativeToOperator map[string]map[string]string

func init() {
	NativeToOperator = make(map[string]map[string]string)
	for backend, ops := range OperatorMap {
		NativeToOperator[backend] = make(map[string]string)
		for op, native := range ops {
			NativeToOperator[backend][native] = op
		}
	}
}

// GetOperator returns the native comparison operator for a backend
func GetOperator(backend, op string) (string, bool) {
	native, ok := OperatorMap[backend][strings.ToLower(op)]
	return native, ok
}
