package relational

import (
	"fmt"
	"strings"

	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

// ============================================================================
// SELECT BUILDERS
// ============================================================================

// BuildSelectSQL creates "SELECT <columns> FROM <table>"; no columns means *
func BuildSelectSQL(table string, columns []string) string {
	cols := "*"
	if len(columns) > 0 {
		cols = strings.Join(columns, ", ")
	}
	return fmt.Sprintf("SELECT %s FROM %s", cols, table)
}

// BuildCountSQL creates "SELECT COUNT(*) AS total_count FROM <table>"
func BuildCountSQL(table string) string {
	return BuildSelectSQL(table, []string{"COUNT(*) AS total_count"})
}

// BuildAggregateColumn creates "<FN>(<expr>) AS <fn>_value"
func BuildAggregateColumn(agg *models.Aggregation) (string, error) {
	if agg == nil || agg.Target == nil {
		return "", fmt.Errorf("aggregate function and target are required")
	}
	fn, ok := mapping.GetAggregate(mapping.Relational, agg.Function)
	if !ok {
		return "", fmt.Errorf("unsupported aggregate function: %s", agg.Function)
	}
	return fmt.Sprintf("%s(%s) AS %s_value", fn, BuildExpressionSQL(agg.Target), strings.ToLower(agg.Function)), nil
}

// BuildExpressionSQL renders a field or "a * b"
func BuildExpressionSQL(expr *models.FieldExpression) string {
	return expr.String()
}

// ============================================================================
// CLAUSE BUILDERS
// ============================================================================

// BuildJoinClause creates " JOIN <table> ON <condition>"
func BuildJoinClause(join *models.Join) string {
	if join == nil || join.Table == "" || join.On == "" {
		return ""
	}
	return fmt.Sprintf(" JOIN %s ON %s", join.Table, join.On)
}

// BuildWhereClause conjoins every condition with AND
// Values are numeric literals rendered from validated numbers
func BuildWhereClause(filters models.Filters) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(filters))
	for _, cond := range filters {
		op, ok := mapping.GetOperator(mapping.Relational, cond.Operator)
		if !ok {
			return "", fmt.Errorf("unsupported filter operator: %s", cond.Operator)
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", cond.Field, op, cond.FormatValue()))
	}
	return " WHERE " + strings.Join(parts, " AND "), nil
}

// BuildGroupByClause creates " GROUP BY <field>"
func BuildGroupByClause(field string) string {
	if field == "" {
		return ""
	}
	return " GROUP BY " + field
}

// BuildOrderByClause creates " ORDER BY <field> <ASC|DESC>"
func BuildOrderByClause(ob *models.OrderBy) string {
	if ob == nil || ob.Field == "" {
		return ""
	}
	direction := strings.ToUpper(ob.Direction)
	if direction != mapping.DirectionDesc {
		direction = mapping.DirectionAsc
	}
	return fmt.Sprintf(" ORDER BY %s %s", ob.Field, direction)
}
