package reverse

import (
	"fmt"
	"strconv"

	"github.com/omniql-engine/nlq/mapping"
)

// ============================================================================
// CATALOG LOOKUPS
// ============================================================================

// filterOperator maps a native comparison back to gt, lt or eq
func filterOperator(backend, native string) (string, error) {
	op, ok := mapping.NativeToOperator[backend][native]
	if !ok {
		return "", fmt.Errorf("%w: comparison '%s'", ErrNotSupported, native)
	}
	return op, nil
}

// aggregateFunction maps a native aggregate back to sum, average, max or min
func aggregateFunction(backend, native string) (string, error) {
	fn, ok := mapping.AggregateFromNative(backend, native)
	if !ok {
		return "", fmt.Errorf("%w: aggregate '%s'", ErrNotSupported, native)
	}
	return fn, nil
}

// numericValue converts a decoded literal into a filter value
func numericValue(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: non-numeric literal '%s'", ErrNotSupported, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: literal %v of type %T", ErrNotSupported, v, v)
	}
}
