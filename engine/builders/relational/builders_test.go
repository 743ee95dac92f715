package relational

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniql-engine/nlq/engine/models"
)

func TestBuildSelectSQL(t *testing.T) {
	assert.Equal(t, "SELECT * FROM products", BuildSelectSQL("products", nil))
	assert.Equal(t, "SELECT a, b FROM t", BuildSelectSQL("t", []string{"a", "b"}))
	assert.Equal(t, "SELECT COUNT(*) AS total_count FROM orders", BuildCountSQL("orders"))
}

func TestBuildAggregateColumn(t *testing.T) {
	col, err := BuildAggregateColumn(&models.Aggregation{Function: "average", Target: models.NewField("unit_price")})
	require.NoError(t, err)
	assert.Equal(t, "AVG(unit_price) AS average_value", col)

	col, err = BuildAggregateColumn(&models.Aggregation{Function: "sum", Target: models.NewProduct("transaction_qty", "unit_price")})
	require.NoError(t, err)
	assert.Equal(t, "SUM(transaction_qty * unit_price) AS sum_value", col)

	_, err = BuildAggregateColumn(&models.Aggregation{Function: "median", Target: models.NewField("x")})
	assert.Error(t, err)

	_, err = BuildAggregateColumn(&models.Aggregation{Function: "sum"})
	assert.Error(t, err)
}

func TestBuildWhereClause(t *testing.T) {
	clause, err := BuildWhereClause(nil)
	require.NoError(t, err)
	assert.Empty(t, clause)

	var f models.Filters
	f.Set("price", "gt", 5)
	f.Set("quantity", "eq", 2.5)
	clause, err = BuildWhereClause(f)
	require.NoError(t, err)
	assert.Equal(t, " WHERE price > 5 AND quantity = 2.5", clause)

	_, err = BuildWhereClause(models.Filters{{Field: "x", Operator: "like", Value: 1}})
	assert.Error(t, err)
}

func TestClauseBuilders(t *testing.T) {
	assert.Equal(t, " JOIN users ON a.id = b.id", BuildJoinClause(&models.Join{Table: "users", On: "a.id = b.id"}))
	assert.Empty(t, BuildJoinClause(&models.Join{Table: "users"}))
	assert.Equal(t, " GROUP BY store_location", BuildGroupByClause("store_location"))
	assert.Empty(t, BuildGroupByClause(""))
	assert.Equal(t, " ORDER BY unit_price DESC", BuildOrderByClause(&models.OrderBy{Field: "unit_price", Direction: "desc"}))
	assert.Equal(t, " ORDER BY unit_price ASC", BuildOrderByClause(&models.OrderBy{Field: "unit_price"}))
	assert.Empty(t, BuildOrderByClause(nil))
}
