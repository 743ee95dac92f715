package reverse

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	mongobuilders "github.com/omniql-engine/nlq/engine/builders/mongodb"
	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

// ============================================================================
// ENTRY POINTS
// ============================================================================

// ParseDocumentQuery reads the extended JSON form produced by BackendQuery.String
func ParseDocumentQuery(js string) (*models.DocumentQuery, error) {
	if strings.TrimSpace(js) == "" {
		return nil, ErrEmptyQuery
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(js), false, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid extended JSON: %v", ErrParseError, err)
	}

	q := &models.DocumentQuery{}
	for _, e := range doc {
		switch e.Key {
		case "operation":
			q.Operation, _ = e.Value.(string)
		case "collection":
			q.Collection, _ = e.Value.(string)
		case "filter":
			q.Filter, _ = e.Value.(bson.D)
		case "sort":
			q.Sort, _ = e.Value.(bson.D)
		case "pipeline":
			stages, ok := e.Value.(bson.A)
			if !ok {
				return nil, fmt.Errorf("%w: pipeline is not an array", ErrParseError)
			}
			q.Pipeline = []bson.D{}
			for _, s := range stages {
				stage, ok := s.(bson.D)
				if !ok {
					return nil, fmt.Errorf("%w: pipeline stage is not a document", ErrParseError)
				}
				q.Pipeline = append(q.Pipeline, stage)
			}
		default:
			return nil, fmt.Errorf("%w: unknown key '%s'", ErrParseError, e.Key)
		}
	}

	if q.Operation == "" || q.Collection == "" {
		return nil, fmt.Errorf("%w: operation and collection are required", ErrParseError)
	}
	return q, nil
}

// DocumentToIntent converts a find, count or aggregate query into an intent
func DocumentToIntent(q *models.DocumentQuery) (*models.Intent, error) {
	if q == nil {
		return nil, ErrEmptyQuery
	}

	intent := &models.Intent{Table: q.Collection}

	switch q.Operation {
	case mapping.DocFind:
		intent.Operation = mapping.OpFindAll
		if len(q.Filter) > 0 {
			intent.Operation = mapping.OpFind
		}
		if err := convertFilter(&intent.Filters, q.Filter); err != nil {
			return nil, err
		}
		ob, err := convertSort(q.Sort)
		if err != nil {
			return nil, err
		}
		intent.OrderBy = ob

	case mapping.DocCount:
		intent.Operation = mapping.OpCount
		if err := convertFilter(&intent.Filters, q.Filter); err != nil {
			return nil, err
		}

	case mapping.DocAggregate:
		if err := convertPipeline(intent, q.Collection, q.Pipeline); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: document operation '%s'", ErrNotSupported, q.Operation)
	}

	return intent, nil
}

// ============================================================================
// FILTER & SORT
// ============================================================================

func convertFilter(filters *models.Filters, filter bson.D) error {
	for _, e := range filter {
		if strings.HasPrefix(e.Key, "$") {
			return fmt.Errorf("%w: top-level operator '%s'", ErrNotSupported, e.Key)
		}

		cond, ok := e.Value.(bson.D)
		if !ok {
			value, err := numericValue(e.Value)
			if err != nil {
				return err
			}
			filters.Set(e.Key, mapping.FilterEQ, value)
			continue
		}

		if len(cond) != 1 {
			return fmt.Errorf("%w: compound condition on '%s'", ErrNotSupported, e.Key)
		}
		op, err := filterOperator(mapping.Document, cond[0].Key)
		if err != nil {
			return err
		}
		value, err := numericValue(cond[0].Value)
		if err != nil {
			return err
		}
		filters.Set(e.Key, op, value)
	}
	return nil
}

func convertSort(sort bson.D) (*models.OrderBy, error) {
	if len(sort) == 0 {
		return nil, nil
	}
	if len(sort) > 1 {
		return nil, fmt.Errorf("%w: multi-field sort", ErrNotSupported)
	}
	dir, err := numericValue(sort[0].Value)
	if err != nil {
		return nil, err
	}
	ob := &models.OrderBy{Field: sort[0].Key, Direction: mapping.DirectionAsc}
	if dir < 0 {
		ob.Direction = mapping.DirectionDesc
	}
	return ob, nil
}

// ============================================================================
// PIPELINE
// ============================================================================

func convertPipeline(intent *models.Intent, collection string, pipeline []bson.D) error {
	for i, stage := range pipeline {
		if len(stage) != 1 {
			return fmt.Errorf("%w: stage %d has %d operators", ErrParseError, i, len(stage))
		}
		body, _ := stage[0].Value.(bson.D)

		switch stage[0].Key {
		case "$match":
			if err := convertFilter(&intent.Filters, body); err != nil {
				return err
			}

		case "$group":
			if err := convertGroup(intent, body); err != nil {
				return err
			}

		case "$sort":
			ob, err := convertSort(body)
			if err != nil {
				return err
			}
			if ob != nil && intent.Aggregate != nil {
				ob.Field = ungroupedField(intent, ob.Field)
			}
			intent.OrderBy = ob

		case "$lookup":
			join, err := convertLookup(collection, body)
			if err != nil {
				return err
			}
			intent.Operation = mapping.OpJoin
			intent.Join = join

		case "$unwind":
			if intent.Join == nil {
				return fmt.Errorf("%w: $unwind without $lookup", ErrNotSupported)
			}
			intent.Join.Unwind = true

		default:
			return fmt.Errorf("%w: stage '%s'", ErrNotSupported, stage[0].Key)
		}
	}

	if intent.Operation == "" {
		return fmt.Errorf("%w: pipeline without $group or $lookup", ErrNotSupported)
	}
	return nil
}

// convertGroup reads {_id: "$g"|null, <name>: {$fn: "$f" | {$multiply: [...]}}}
func convertGroup(intent *models.Intent, group bson.D) error {
	for _, e := range group {
		if e.Key == "_id" {
			if g, ok := e.Value.(string); ok {
				intent.GroupBy = strings.TrimPrefix(g, "$")
			}
			continue
		}

		acc, ok := e.Value.(bson.D)
		if !ok || len(acc) != 1 {
			return fmt.Errorf("%w: accumulator '%s'", ErrNotSupported, e.Key)
		}
		fn, err := aggregateFunction(mapping.Document, acc[0].Key)
		if err != nil {
			return err
		}
		target, err := convertAccumulatorTarget(acc[0].Value)
		if err != nil {
			return err
		}
		intent.Operation = mapping.OpAggregate
		intent.Aggregate = &models.Aggregation{Function: fn, Target: target}
	}
	return nil
}

func convertAccumulatorTarget(v any) (*models.FieldExpression, error) {
	switch t := v.(type) {
	case string:
		return models.NewField(strings.TrimPrefix(t, "$")), nil
	case bson.D:
		if len(t) == 1 && t[0].Key == "$multiply" {
			operands, ok := t[0].Value.(bson.A)
			if ok && len(operands) == 2 {
				l, lok := operands[0].(string)
				r, rok := operands[1].(string)
				if lok && rok {
					return models.NewProduct(strings.TrimPrefix(l, "$"), strings.TrimPrefix(r, "$")), nil
				}
			}
		}
	}
	return nil, fmt.Errorf("%w: accumulator target %v", ErrNotSupported, v)
}

func convertLookup(collection string, lookup bson.D) (*models.Join, error) {
	var from, local, foreign, as string
	for _, e := range lookup {
		s, _ := e.Value.(string)
		switch e.Key {
		case "from":
			from = s
		case "localField":
			local = s
		case "foreignField":
			foreign = s
		case "as":
			as = s
		}
	}
	if from == "" || local == "" || foreign == "" {
		return nil, fmt.Errorf("%w: $lookup needs from, localField and foreignField", ErrParseError)
	}
	return &models.Join{
		Table: from,
		On:    fmt.Sprintf("%s.%s = %s.%s", collection, local, from, foreign),
		As:    as,
	}, nil
}

// ungroupedField maps a sort key on $group output back to the source field
func ungroupedField(intent *models.Intent, field string) string {
	target := intent.Aggregate.Target
	switch {
	case field == "_id" && intent.GroupBy != "":
		return intent.GroupBy
	case target != nil && !target.IsProduct() && field == mongobuilders.AccumulatorName(intent.Aggregate):
		return target.Left
	}
	return field
}
