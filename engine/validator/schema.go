package validator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

var (
	// ErrUnknownTable is returned when the live backend has no such table or collection
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownField is returned when the live backend has no such field
	ErrUnknownField = errors.New("unknown field")
)

// Inspector answers existence questions against a live backend
type Inspector interface {
	TableExists(ctx context.Context, name string) (bool, error)
	FieldExists(ctx context.Context, table, field string) (bool, error)
}

// ============================================================================
// SCHEMA CHECK
// ============================================================================

// CheckTable fails with ErrUnknownTable when the table is absent
func CheckTable(ctx context.Context, insp Inspector, table string) error {
	ok, err := insp.TableExists(ctx, table)
	if err != nil {
		return fmt.Errorf("cannot inspect table '%s': %w", table, err)
	}
	if !ok {
		return fmt.Errorf("%w: '%s' does not exist", ErrUnknownTable, table)
	}
	return nil
}

// CheckField fails with ErrUnknownField when the field is absent from the table
func CheckField(ctx context.Context, insp Inspector, table, field string) error {
	ok, err := insp.FieldExists(ctx, table, field)
	if err != nil {
		return fmt.Errorf("cannot inspect field '%s' of '%s': %w", field, table, err)
	}
	if !ok {
		return fmt.Errorf("%w: '%s' does not exist in table '%s'", ErrUnknownField, field, table)
	}
	return nil
}

// CheckIntent confirms every table and field the intent reads
func CheckIntent(ctx context.Context, insp Inspector, intent *models.Intent) error {
	if err := CheckTable(ctx, insp, intent.Table); err != nil {
		return err
	}
	if intent.Join != nil {
		if err := CheckTable(ctx, insp, intent.Join.Table); err != nil {
			return err
		}
	}

	for _, ref := range referencedFields(intent) {
		if err := CheckField(ctx, insp, ref.table, ref.field); err != nil {
			return err
		}
	}
	return nil
}

type fieldRef struct {
	table string
	field string
}

// ownerTable picks the join side an unqualified field belongs to
// Fields outside the known join groups stay on the primary table
func ownerTable(intent *models.Intent, field string) string {
	if intent.Join == nil {
		return intent.Table
	}
	for backend, spec := range mapping.JoinGroups {
		if spec.Primary.Table != intent.Table || spec.Secondary.Table != intent.Join.Table {
			continue
		}
		if table := mapping.GroupOf(backend, field); table != "" {
			return table
		}
	}
	return intent.Table
}

// referencedFields lists the columns a lowered query will touch, without duplicates
func referencedFields(intent *models.Intent) []fieldRef {
	var refs []fieldRef
	seen := make(map[fieldRef]bool)
	add := func(field string) {
		if field == "" || field == "*" {
			return
		}
		table := ownerTable(intent, field)
		if t, f, ok := strings.Cut(field, "."); ok {
			table, field = t, f
			if field == "*" {
				return
			}
		}
		ref := fieldRef{table: table, field: field}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}

	if intent.Aggregate != nil {
		for _, f := range intent.Aggregate.Target.Fields() {
			add(f)
		}
	}
	add(intent.GroupBy)
	if intent.OrderBy != nil {
		add(intent.OrderBy.Field)
	}
	for _, cond := range intent.Filters {
		add(cond.Field)
	}
	if intent.Join != nil {
		for _, col := range intent.Join.Columns {
			add(col)
		}
	}
	return refs
}

// ============================================================================
// SQL INSPECTOR
// ============================================================================

// SQLInspector reads the catalog tables of a relational database
type SQLInspector struct {
	db      *sql.DB
	dialect string
}

// NewSQLInspector creates an inspector for a database/sql handle
func NewSQLInspector(db *sql.DB, dialect string) (*SQLInspector, error) {
	switch strings.ToLower(dialect) {
	case DialectMySQL, DialectSQLite, DialectPostgres:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}
	return &SQLInspector{db: db, dialect: strings.ToLower(dialect)}, nil
}

func (i *SQLInspector) TableExists(ctx context.Context, name string) (bool, error) {
	var query string
	switch i.dialect {
	case DialectSQLite:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?"
	case DialectMySQL:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	case DialectPostgres:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
	}
	return i.exists(ctx, query, name)
}

func (i *SQLInspector) FieldExists(ctx context.Context, table, field string) (bool, error) {
	var query string
	switch i.dialect {
	case DialectSQLite:
		query = "SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?"
	case DialectMySQL:
		query = "SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?"
	case DialectPostgres:
		query = "SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2"
	}
	return i.exists(ctx, query, table, field)
}

func (i *SQLInspector) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var n int
	if err := i.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ============================================================================
// MONGO INSPECTOR
// ============================================================================

// MongoInspector checks collections and sampled documents
// A field exists when at least one document carries it
type MongoInspector struct {
	db *mongo.Database
}

func NewMongoInspector(db *mongo.Database) *MongoInspector {
	return &MongoInspector{db: db}
}

func (i *MongoInspector) TableExists(ctx context.Context, name string) (bool, error) {
	names, err := i.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

func (i *MongoInspector) FieldExists(ctx context.Context, table, field string) (bool, error) {
	filter := bson.D{{Key: field, Value: bson.D{{Key: "$exists", Value: true}}}}
	n, err := i.db.Collection(table).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
