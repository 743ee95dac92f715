package mongodb

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

// ============================================================================
// FILTERS
// ============================================================================

// BuildMongoFilter translates conditions into a native filter document
// Equality is written as a bare value rather than {$eq: v}
func BuildMongoFilter(filters models.Filters) (bson.D, error) {
	filter := bson.D{}
	for _, cond := range filters {
		op, ok := mapping.GetOperator(mapping.Document, cond.Operator)
		if !ok {
			return nil, fmt.Errorf("unsupported filter operator: %s", cond.Operator)
		}
		if op == "$eq" {
			filter = append(filter, bson.E{Key: cond.Field, Value: cond.NativeValue()})
			continue
		}
		filter = append(filter, bson.E{Key: cond.Field, Value: bson.D{{Key: op, Value: cond.NativeValue()}}})
	}
	return filter, nil
}

// ============================================================================
// PIPELINE STAGES
// ============================================================================

func BuildMongoDBMatchStage(filters models.Filters) (bson.D, error) {
	filter, err := BuildMongoFilter(filters)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: "$match", Value: filter}}, nil
}

// BuildMongoSort creates a single-field sort document
func BuildMongoSort(ob *models.OrderBy) bson.D {
	if ob == nil || ob.Field == "" {
		return nil
	}
	return bson.D{{Key: ExtractFieldName(ob.Field), Value: SortDirection(ob.Direction)}}
}

func BuildMongoDBSortStage(ob *models.OrderBy) bson.D {
	return bson.D{{Key: "$sort", Value: BuildMongoSort(ob)}}
}

// BuildMongoDBGroupStage groups by one field (or everything) and applies one accumulator
func BuildMongoDBGroupStage(groupBy string, agg *models.Aggregation) (bson.D, error) {
	if agg == nil || agg.Target == nil {
		return nil, fmt.Errorf("aggregate function and target are required")
	}
	fn, ok := mapping.GetAggregate(mapping.Document, agg.Function)
	if !ok {
		return nil, fmt.Errorf("unsupported aggregate function: %s", agg.Function)
	}

	var groupID any
	if groupBy != "" {
		groupID = "$" + groupBy
	}

	group := bson.D{
		{Key: "_id", Value: groupID},
		{Key: AccumulatorName(agg), Value: bson.D{{Key: fn, Value: BuildMongoExpression(agg.Target)}}},
	}
	return bson.D{{Key: "$group", Value: group}}, nil
}

// AccumulatorName names the group output: <function>_<field>, or <function>_value for a product
func AccumulatorName(agg *models.Aggregation) string {
	fn := strings.ToLower(agg.Function)
	if agg.Target == nil || agg.Target.IsProduct() {
		return fn + "_value"
	}
	return fn + "_" + agg.Target.Left
}

// BuildMongoExpression renders "$field" or {$multiply: ["$a", "$b"]}
func BuildMongoExpression(expr *models.FieldExpression) any {
	if expr.IsProduct() {
		return bson.D{{Key: "$multiply", Value: bson.A{"$" + expr.Left, "$" + expr.Right}}}
	}
	return "$" + expr.Left
}

// BuildMongoDBLookupStage splits "left.key = right.key" into local and foreign fields
func BuildMongoDBLookupStage(join *models.Join) (bson.D, error) {
	parts := strings.SplitN(join.On, "=", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid join condition: %s", join.On)
	}
	local := ExtractFieldName(strings.TrimSpace(parts[0]))
	foreign := ExtractFieldName(strings.TrimSpace(parts[1]))
	if local == "" || foreign == "" {
		return nil, fmt.Errorf("invalid join condition: %s", join.On)
	}

	as := join.As
	if as == "" {
		as = join.Table + "_joined"
	}

	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: join.Table},
		{Key: "localField", Value: local},
		{Key: "foreignField", Value: foreign},
		{Key: "as", Value: as},
	}}}, nil
}

func BuildMongoDBUnwindStage(as string) bson.D {
	return bson.D{{Key: "$unwind", Value: "$" + as}}
}

// ============================================================================
// HELPERS
// ============================================================================

// SortDirection maps ASC/DESC to 1/-1
func SortDirection(direction string) int {
	if direction == "-1" || strings.ToUpper(direction) == mapping.DirectionDesc {
		return -1
	}
	return 1
}

// ExtractFieldName strips a table qualifier: "orders.price" -> "price"
func ExtractFieldName(field string) string {
	parts := strings.Split(field, ".")
	if len(parts) == 2 {
		return parts[1]
	}
	return field
}
