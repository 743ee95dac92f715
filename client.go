package nlq

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

// ErrNoConnection is returned when a query targets a backend the client does not wrap
var ErrNoConnection = errors.New("no connection for backend")

// ============================================
// CLIENT STRUCT
// ============================================

// Client executes compiled queries against live connections
type Client struct {
	sqlDB    *sql.DB
	mongoDB  *mongo.Database
	compiler *Compiler
}

// ============================================
// CONSTRUCTORS
// ============================================

// NewClient wraps either or both connections; nil means unavailable
func NewClient(sqlDB *sql.DB, mongoDB *mongo.Database, opts ...Option) *Client {
	return &Client{
		sqlDB:    sqlDB,
		mongoDB:  mongoDB,
		compiler: New(opts...),
	}
}

// WrapSQL wraps a relational connection
func WrapSQL(db *sql.DB, opts ...Option) *Client {
	return NewClient(db, nil, opts...)
}

// WrapMongo wraps a document connection
func WrapMongo(db *mongo.Database, opts ...Option) *Client {
	return NewClient(nil, db, opts...)
}

// Compiler returns the compiler the client uses for Ask
func (c *Client) Compiler() *Compiler {
	return c.compiler
}

// ============================================
// QUERY METHODS
// ============================================

// Ask compiles a question and executes the result
func (c *Client) Ask(ctx context.Context, raw, backend string) (*Result, []map[string]any, error) {
	res, err := c.compiler.Compile(ctx, raw, backend)
	if err != nil {
		return nil, nil, err
	}
	rows, err := c.Execute(ctx, res.Query)
	if err != nil {
		return res, nil, err
	}
	return res, rows, nil
}

// Execute runs a compiled query and returns its rows
// ObjectIDs in document results are returned as hex strings
func (c *Client) Execute(ctx context.Context, q *models.BackendQuery) ([]map[string]any, error) {
	switch {
	case q == nil:
		return nil, fmt.Errorf("query is nil")
	case q.Relational != nil:
		return c.querySQL(ctx, q.Relational)
	case q.Document != nil:
		return c.queryMongo(ctx, q.Document)
	default:
		return nil, fmt.Errorf("empty backend query")
	}
}

// ============================================
// SQL IMPLEMENTATION
// ============================================

func (c *Client) querySQL(ctx context.Context, q *models.RelationalQuery) ([]map[string]any, error) {
	if c.sqlDB == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoConnection, mapping.Relational)
	}

	rows, err := c.sqlDB.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()
	return rowsToMaps(rows)
}

// ============================================
// MONGODB IMPLEMENTATION
// ============================================

func (c *Client) queryMongo(ctx context.Context, q *models.DocumentQuery) ([]map[string]any, error) {
	if c.mongoDB == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoConnection, mapping.Document)
	}

	coll := c.mongoDB.Collection(q.Collection)
	switch q.Operation {
	case mapping.DocFind:
		return c.mongoFind(ctx, coll, q)
	case mapping.DocCount:
		return c.mongoCount(ctx, coll, q)
	case mapping.DocAggregate:
		return c.mongoAggregate(ctx, coll, q)
	default:
		return nil, fmt.Errorf("unsupported MongoDB operation: %s", q.Operation)
	}
}

func (c *Client) mongoFind(ctx context.Context, coll *mongo.Collection, q *models.DocumentQuery) ([]map[string]any, error) {
	filter := q.Filter
	if filter == nil {
		filter = bson.D{}
	}

	opts := options.Find()
	if len(q.Sort) > 0 {
		opts.SetSort(q.Sort)
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find error: %w", err)
	}
	return decodeCursor(ctx, cursor)
}

func (c *Client) mongoCount(ctx context.Context, coll *mongo.Collection, q *models.DocumentQuery) ([]map[string]any, error) {
	filter := q.Filter
	if filter == nil {
		filter = bson.D{}
	}

	count, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count error: %w", err)
	}
	return []map[string]any{{"count": count}}, nil
}

func (c *Client) mongoAggregate(ctx context.Context, coll *mongo.Collection, q *models.DocumentQuery) ([]map[string]any, error) {
	pipeline := make(mongo.Pipeline, len(q.Pipeline))
	copy(pipeline, q.Pipeline)

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate error: %w", err)
	}
	return decodeCursor(ctx, cursor)
}

// ============================================
// HELPERS
// ============================================

func decodeCursor(ctx context.Context, cursor *mongo.Cursor) ([]map[string]any, error) {
	defer cursor.Close(ctx)

	results := []map[string]any{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode error: %w", err)
		}
		results = append(results, bsonToMap(doc))
	}
	return results, cursor.Err()
}

func rowsToMaps(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

func bsonToMap(doc bson.M) map[string]any {
	result := make(map[string]any, len(doc))
	for k, v := range doc {
		result[k] = stringifyIDs(v)
	}
	return result
}

// stringifyIDs replaces ObjectIDs with their hex form, at any depth
func stringifyIDs(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case bson.M:
		return bsonToMap(t)
	case map[string]any:
		return bsonToMap(t)
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = stringifyIDs(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = stringifyIDs(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = stringifyIDs(item)
		}
		return out
	default:
		return v
	}
}
