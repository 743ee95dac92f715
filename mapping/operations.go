package mapping

import "strings"

// Intent operations
const (
	OpCount     = "count"
	OpAggregate = "aggregate"
	OpSelectAll = "select_all"
	OpFind      = "find"
	OpFindAll   = "find_all"
	OpJoin      = "join"
)

// Aggregate functions
const (
	FuncSum     = "sum"
	FuncAverage = "average"
	FuncMax     = "max"
	FuncMin     = "min"
)

// Native document operations
const (
	DocFind      = "find"
	DocCount     = "count"
	DocAggregate = "aggregate"
)

// OperationMap - native statement kind per backend and intent operation
// An operation missing from a backend is not supported by it
var OperationMap = map[string]map[string]string{
	Relational: {
		OpCount:     "SELECT",
		OpAggregate: "SELECT",
		OpSelectAll: "SELECT",
		OpJoin:      "SELECT",
	},
	Document: {
		OpCount:     DocCount,
		OpAggregate: DocAggregate,
		OpSelectAll: DocFind,
		OpFind:      DocFind,
		OpFindAll:   DocFind,
		OpJoin:      DocAggregate,
	},
}

// AggregateMap - Runtime mapping for aggregate functions
// Usage: AggregateMap["relational"]["average"] returns "AVG"
var AggregateMap = map[string]map[string]string{
	Relational: {
		FuncSum:     "SUM",
		FuncAverage: "AVG",
		FuncMax:     "MAX",
		FuncMin:     "MIN",
	},
	Document: {
		FuncSum:     "$sum",
		FuncAverage: "$avg",
		FuncMax:     "$max",
		FuncMin:     "$min",
	},
}

// NativeToAggregate - reverse mapping built from AggregateMap
// Usage: NativeToAggregate["relational"]["AVG"] returns "average"
var NativeToAggregate map[string]map[string]string

func init() {
	NativeToAggregate = make(map[string]map[string]string)
	for backend, funcs := range AggregateMap {
		NativeToAggregate[backend] = make(map[string]string)
		for fn, native := range funcs {
			NativeToAggregate[backend][native] = fn
		}
	}
}

// IsSupportedOperation checks if an intent operation can be lowered for a backend
func IsSupportedOperation(backend, op string) bool {
	_, ok := OperationMap[backend][op]
	return ok
}

// GetAggregate returns the native aggregate function for a backend
func GetAggregate(backend, fn string) (string, bool) {
	native, ok := AggregateMap[backend][strings.ToLower(fn)]
	return native, ok
}

// AggregateFromNative returns the intent function for a native aggregate
func AggregateFromNative(backend, native string) (string, bool) {
	if backend == Relational {
		native = strings.ToUpper(native)
	}
	fn, ok := NativeToAggregate[backend][native]
	return fn, ok
}
