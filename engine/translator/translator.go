package translator

import (
	"errors"
	"fmt"

	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

var (
	// ErrUnsupportedOperation is returned for operations a backend cannot express
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrIncompleteIntent is returned when a required intent field is missing
	ErrIncompleteIntent = errors.New("incomplete intent")

	// ErrUnsupportedBackend is returned for backends outside the catalog
	ErrUnsupportedBackend = errors.New("unsupported backend")
)

// Translate lowers an intent into an executable query for one backend
func Translate(intent *models.Intent, backend string) (*models.BackendQuery, error) {
	if intent == nil {
		return nil, fmt.Errorf("%w: nil intent", ErrIncompleteIntent)
	}

	resolved, ok := mapping.ResolveBackend(backend)
	if !ok {
		return nil, fmt.Errorf("%w: %s (supported: %v)", ErrUnsupportedBackend, backend, mapping.SupportedBackends)
	}

	switch resolved {
	case mapping.Relational:
		q, err := TranslateRelational(intent)
		if err != nil {
			return nil, err
		}
		return &models.BackendQuery{Backend: resolved, Relational: q}, nil

	case mapping.Document:
		q, err := TranslateDocument(intent)
		if err != nil {
			return nil, err
		}
		return &models.BackendQuery{Backend: resolved, Document: q}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, backend)
	}
}

// checkIntent verifies the fields each operation requires; both backend
// translators run it
func checkIntent(intent *models.Intent) error {
	if intent.Table == "" {
		return fmt.Errorf("%w: %s without table", ErrIncompleteIntent, intent.Operation)
	}

	switch intent.Operation {
	case mapping.OpAggregate:
		if intent.Aggregate == nil || intent.Aggregate.Function == "" {
			return fmt.Errorf("%w: aggregate without function", ErrIncompleteIntent)
		}
		if intent.Aggregate.Target == nil || intent.Aggregate.Target.Left == "" {
			return fmt.Errorf("%w: %s without target", ErrIncompleteIntent, intent.Aggregate.Function)
		}
	case mapping.OpJoin:
		if intent.Join == nil || intent.Join.Table == "" || intent.Join.On == "" {
			return fmt.Errorf("%w: join without table or condition", ErrIncompleteIntent)
		}
	case mapping.OpCount, mapping.OpSelectAll, mapping.OpFind, mapping.OpFindAll:
	default:
		return fmt.Errorf("%w: '%s'", ErrUnsupportedOperation, intent.Operation)
	}
	return nil
}
