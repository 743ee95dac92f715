package reverse

import (
	"errors"
	"fmt"

	"github.com/omniql-engine/nlq/engine/models"
)

// ============================================================================
// ERRORS
// ============================================================================

var (
	ErrNotSupported = errors.New("construct not expressible as an intent")
	ErrParseError   = errors.New("failed to parse query")
	ErrEmptyQuery   = errors.New("empty query")
)

// ============================================================================
// MAIN INTERFACE - Returns models.Intent
// ============================================================================

// ToIntent converts a lowered query back into the intent that produces it
func ToIntent(q *models.BackendQuery) (*models.Intent, error) {
	switch {
	case q == nil:
		return nil, ErrEmptyQuery
	case q.Relational != nil:
		return SQLToIntent(q.Relational.SQL)
	case q.Document != nil:
		return DocumentToIntent(q.Document)
	default:
		return nil, fmt.Errorf("%w: backend query has no body", ErrEmptyQuery)
	}
}
