package models

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ============================================================================
// BACKEND QUERY - Lowered, executable form of an intent
// ============================================================================

// BackendQuery holds exactly one of Relational or Document
type BackendQuery struct {
	Backend    string
	Relational *RelationalQuery
	Document   *DocumentQuery
}

// RelationalQuery is a SQL statement with optional positional arguments
type RelationalQuery struct {
	SQL  string
	Args []any
}

// DocumentQuery is a Mongo operation against one collection
type DocumentQuery struct {
	Operation  string   // find, count, aggregate
	Collection string
	Filter     bson.D   // find, count
	Sort       bson.D   // find
	Pipeline   []bson.D // aggregate
}

// Doc renders the document query as one ordered document
func (q *DocumentQuery) Doc() bson.D {
	doc := bson.D{
		{Key: "operation", Value: q.Operation},
		{Key: "collection", Value: q.Collection},
	}
	if q.Pipeline != nil {
		doc = append(doc, bson.E{Key: "pipeline", Value: q.Pipeline})
		return doc
	}

	filter := q.Filter
	if filter == nil {
		filter = bson.D{}
	}
	doc = append(doc, bson.E{Key: "filter", Value: filter})
	if len(q.Sort) > 0 {
		doc = append(doc, bson.E{Key: "sort", Value: q.Sort})
	}
	return doc
}

// String returns SQL for relational queries and relaxed extended JSON for documents
func (q *BackendQuery) String() string {
	switch {
	case q.Relational != nil:
		return q.Relational.SQL
	case q.Document != nil:
		js, err := bson.MarshalExtJSON(q.Document.Doc(), false, false)
		if err != nil {
			return fmt.Sprintf("<invalid document query: %v>", err)
		}
		return string(js)
	default:
		return ""
	}
}

// Map returns a JSON-compatible view of the query
func (q *BackendQuery) Map() (map[string]any, error) {
	out := map[string]any{"backend": q.Backend}

	if q.Relational != nil {
		out["sql"] = q.Relational.SQL
		if len(q.Relational.Args) > 0 {
			args := make([]any, len(q.Relational.Args))
			copy(args, q.Relational.Args)
			out["args"] = args
		}
		return out, nil
	}

	if q.Document != nil {
		js, err := bson.MarshalExtJSON(q.Document.Doc(), false, false)
		if err != nil {
			return nil, fmt.Errorf("cannot encode document query: %w", err)
		}
		var doc map[string]any
		if err := json.Unmarshal(js, &doc); err != nil {
			return nil, fmt.Errorf("cannot decode document query: %w", err)
		}
		for k, v := range doc {
			out[k] = v
		}
		return out, nil
	}

	return nil, fmt.Errorf("empty backend query")
}

// Proto converts the query into a protobuf Struct envelope
func (q *BackendQuery) Proto() (*structpb.Struct, error) {
	m, err := q.Map()
	if err != nil {
		return nil, err
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("cannot build protobuf envelope: %w", err)
	}
	return s, nil
}
