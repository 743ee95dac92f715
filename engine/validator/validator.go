package validator

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v5"
	"github.com/xwb1989/sqlparser"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

// SQL dialects, named after their database/sql drivers
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// ErrUnsupportedDialect is returned for dialects without a syntax checker
var ErrUnsupportedDialect = errors.New("unsupported SQL dialect")

// ============================================================================
// SYNTAX
// ============================================================================

// ValidateSQL checks that a generated statement parses in the given dialect
// SQLite shares the MySQL grammar for the subset the translator emits
func ValidateSQL(query, dialect string) error {
	switch strings.ToLower(dialect) {
	case DialectMySQL, DialectSQLite, "sqlite":
		_, err := sqlparser.Parse(query)
		return err
	case DialectPostgres, "postgresql", "pgx":
		_, err := pg_query.Parse(query)
		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}
}

// ValidateDocument checks the shape of a document query
func ValidateDocument(q *models.DocumentQuery) error {
	if q == nil {
		return fmt.Errorf("document query is nil")
	}
	if q.Collection == "" {
		return fmt.Errorf("document query has no collection")
	}

	switch q.Operation {
	case mapping.DocFind, mapping.DocCount:
		if q.Pipeline != nil {
			return fmt.Errorf("%s does not take a pipeline", q.Operation)
		}
	case mapping.DocAggregate:
		if len(q.Pipeline) == 0 {
			return fmt.Errorf("aggregate requires at least one stage")
		}
		for i, stage := range q.Pipeline {
			if len(stage) != 1 || !strings.HasPrefix(stage[0].Key, "$") {
				return fmt.Errorf("pipeline stage %d is not a single $-operator", i)
			}
		}
	default:
		return fmt.Errorf("unsupported document operation: %s", q.Operation)
	}

	js, err := bson.MarshalExtJSON(q.Doc(), false, false)
	if err != nil {
		return fmt.Errorf("document query does not encode: %w", err)
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(js, false, &doc); err != nil {
		return fmt.Errorf("document query does not decode: %w", err)
	}
	return nil
}

// ValidateQuery checks syntax of any lowered query
func ValidateQuery(q *models.BackendQuery, dialect string) error {
	switch {
	case q == nil:
		return fmt.Errorf("query is nil")
	case q.Relational != nil:
		return ValidateSQL(q.Relational.SQL, dialect)
	case q.Document != nil:
		return ValidateDocument(q.Document)
	default:
		return fmt.Errorf("empty backend query")
	}
}
