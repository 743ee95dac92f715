package translator

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	mongobuilders "github.com/omniql-engine/nlq/engine/builders/mongodb"
	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

// ============================================================================
// DOCUMENT TRANSLATOR
// ============================================================================

// TranslateDocument renders an intent as a find, count or aggregate operation
func TranslateDocument(intent *models.Intent) (*models.DocumentQuery, error) {
	if intent == nil {
		return nil, fmt.Errorf("%w: nil intent", ErrIncompleteIntent)
	}
	if err := checkIntent(intent); err != nil {
		return nil, err
	}

	operation, ok := mapping.OperationMap[mapping.Document][intent.Operation]
	if !ok {
		return nil, fmt.Errorf("%w: '%s' on document backend", ErrUnsupportedOperation, intent.Operation)
	}

	query := &models.DocumentQuery{
		Operation:  operation,
		Collection: intent.Table,
	}

	switch intent.Operation {
	case mapping.OpSelectAll, mapping.OpFindAll:
		query.Filter = bson.D{}
		query.Sort = mongobuilders.BuildMongoSort(intent.OrderBy)

	case mapping.OpFind:
		filter, err := mongobuilders.BuildMongoFilter(intent.Filters)
		if err != nil {
			return nil, err
		}
		query.Filter = filter
		query.Sort = mongobuilders.BuildMongoSort(intent.OrderBy)

	case mapping.OpCount:
		filter, err := mongobuilders.BuildMongoFilter(intent.Filters)
		if err != nil {
			return nil, err
		}
		query.Filter = filter

	case mapping.OpAggregate:
		pipeline, err := buildAggregatePipeline(intent)
		if err != nil {
			return nil, err
		}
		query.Pipeline = pipeline

	case mapping.OpJoin:
		pipeline, err := buildJoinPipeline(intent)
		if err != nil {
			return nil, err
		}
		query.Pipeline = pipeline
	}

	return query, nil
}

// [$match?, $group, $sort?]
func buildAggregatePipeline(intent *models.Intent) ([]bson.D, error) {
	pipeline := []bson.D{}

	if len(intent.Filters) > 0 {
		match, err := mongobuilders.BuildMongoDBMatchStage(intent.Filters)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, match)
	}

	group, err := mongobuilders.BuildMongoDBGroupStage(intent.GroupBy, intent.Aggregate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteIntent, err)
	}
	pipeline = append(pipeline, group)

	if intent.OrderBy != nil && intent.OrderBy.Field != "" {
		pipeline = append(pipeline, mongobuilders.BuildMongoDBSortStage(groupedOrder(intent)))
	}

	return pipeline, nil
}

// groupedOrder points a sort at the $group output: the group key becomes
// _id and the aggregated field becomes its accumulator
func groupedOrder(intent *models.Intent) *models.OrderBy {
	field := mongobuilders.ExtractFieldName(intent.OrderBy.Field)
	target := intent.Aggregate.Target

	switch {
	case intent.GroupBy != "" && field == intent.GroupBy:
		field = "_id"
	case !target.IsProduct() && field == target.Left:
		field = mongobuilders.AccumulatorName(intent.Aggregate)
	}
	return &models.OrderBy{Field: field, Direction: intent.OrderBy.Direction}
}

// [$lookup, $unwind?, $match?]
func buildJoinPipeline(intent *models.Intent) ([]bson.D, error) {
	lookup, err := mongobuilders.BuildMongoDBLookupStage(intent.Join)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteIntent, err)
	}
	pipeline := []bson.D{lookup}

	if intent.Join.Unwind {
		as := intent.Join.As
		if as == "" {
			as = intent.Join.Table + "_joined"
		}
		pipeline = append(pipeline, mongobuilders.BuildMongoDBUnwindStage(as))
	}

	if len(intent.Filters) > 0 {
		match, err := mongobuilders.BuildMongoDBMatchStage(intent.Filters)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, match)
	}

	return pipeline, nil
}
