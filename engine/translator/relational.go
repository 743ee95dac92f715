package translator

import (
	"fmt"
	"strings"

	builders "github.com/omniql-engine/nlq/engine/builders/relational"
	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

// ============================================================================
// RELATIONAL TRANSLATOR
// ============================================================================

// TranslateRelational renders an intent as a single SQL statement
func TranslateRelational(intent *models.Intent) (*models.RelationalQuery, error) {
	if intent == nil {
		return nil, fmt.Errorf("%w: nil intent", ErrIncompleteIntent)
	}
	if err := checkIntent(intent); err != nil {
		return nil, err
	}

	var (
		sql string
		err error
	)

	switch intent.Operation {
	case mapping.OpSelectAll:
		sql, err = buildRelationalSelect(intent)
	case mapping.OpCount:
		sql, err = buildRelationalCount(intent)
	case mapping.OpAggregate:
		sql, err = buildRelationalAggregate(intent)
	case mapping.OpJoin:
		sql, err = buildRelationalJoin(intent)
	case mapping.OpFind, mapping.OpFindAll:
		return nil, fmt.Errorf("%w: '%s' on relational backend", ErrUnsupportedOperation, intent.Operation)
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedOperation, intent.Operation)
	}
	if err != nil {
		return nil, err
	}

	return &models.RelationalQuery{SQL: sql}, nil
}

// SELECT * FROM t [JOIN j ON on] [WHERE ...] [ORDER BY f DIR]
func buildRelationalSelect(intent *models.Intent) (string, error) {
	where, err := builders.BuildWhereClause(intent.Filters)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(builders.BuildSelectSQL(intent.Table, nil))
	sb.WriteString(builders.BuildJoinClause(intent.Join))
	sb.WriteString(where)
	sb.WriteString(builders.BuildOrderByClause(intent.OrderBy))
	return sb.String(), nil
}

// SELECT COUNT(*) AS total_count FROM t [WHERE ...]
func buildRelationalCount(intent *models.Intent) (string, error) {
	where, err := builders.BuildWhereClause(intent.Filters)
	if err != nil {
		return "", err
	}
	return builders.BuildCountSQL(intent.Table) + where, nil
}

// SELECT [g, ]FN(expr) AS fn_value FROM t [WHERE ...] [GROUP BY g] [ORDER BY f DIR]
func buildRelationalAggregate(intent *models.Intent) (string, error) {
	column, err := builders.BuildAggregateColumn(intent.Aggregate)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIncompleteIntent, err)
	}

	columns := []string{column}
	if intent.GroupBy != "" {
		columns = []string{intent.GroupBy, column}
	}

	where, err := builders.BuildWhereClause(intent.Filters)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(builders.BuildSelectSQL(intent.Table, columns))
	sb.WriteString(where)
	sb.WriteString(builders.BuildGroupByClause(intent.GroupBy))
	sb.WriteString(builders.BuildOrderByClause(intent.OrderBy))
	return sb.String(), nil
}

// SELECT <cols|*> FROM t JOIN j ON on [WHERE ...]
func buildRelationalJoin(intent *models.Intent) (string, error) {
	where, err := builders.BuildWhereClause(intent.Filters)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(builders.BuildSelectSQL(intent.Table, intent.Join.Columns))
	sb.WriteString(builders.BuildJoinClause(intent.Join))
	sb.WriteString(where)
	return sb.String(), nil
}
