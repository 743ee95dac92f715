package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

func TestParseCountWithFilter(t *testing.T) {
	intent, err := Parse("how many transactions are greater than 100", mapping.Relational)
	require.NoError(t, err)

	assert.Equal(t, mapping.OpCount, intent.Operation)
	assert.Equal(t, mapping.RuleCount, intent.Rule)
	assert.Equal(t, "transactions", intent.Table)
	assert.Equal(t, models.Filters{{Field: "transactions", Operator: mapping.FilterGT, Value: 100}}, intent.Filters)
}

func TestParseDocumentTotalSales(t *testing.T) {
	intent, err := Parse("total sales", mapping.Document)
	require.NoError(t, err)

	assert.Equal(t, mapping.OpAggregate, intent.Operation)
	require.NotNil(t, intent.Aggregate)
	assert.Equal(t, mapping.FuncSum, intent.Aggregate.Function)
	assert.Equal(t, models.NewProduct("quantity", "price"), intent.Aggregate.Target)
	assert.Empty(t, intent.GroupBy)
	assert.Empty(t, intent.Filters)
}

func TestParseSelectAll(t *testing.T) {
	intent, err := Parse("show all products", mapping.Relational)
	require.NoError(t, err)
	assert.Equal(t, mapping.OpSelectAll, intent.Operation)
	assert.Equal(t, "products", intent.Table)

	intent, err = Parse("show all products", mapping.Document)
	require.NoError(t, err)
	assert.Equal(t, mapping.OpFindAll, intent.Operation)
}

func TestParseDocumentFindWithFilter(t *testing.T) {
	intent, err := Parse("find orders with price greater than 20", mapping.Document)
	require.NoError(t, err)

	assert.Equal(t, mapping.OpFind, intent.Operation)
	assert.Equal(t, "orders", intent.Table)
	assert.Len(t, intent.Filters, 1)
}

func TestParseNoMatch(t *testing.T) {
	_, err := Parse("banana", mapping.Relational)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMatch))

	var matchErr *MatchError
	require.True(t, errors.As(err, &matchErr))
	assert.Empty(t, matchErr.Suggestion)
}

func TestParseNoMatchSuggestion(t *testing.T) {
	_, err := Parse("shw all products", mapping.Relational)

	var matchErr *MatchError
	require.True(t, errors.As(err, &matchErr))
	assert.Equal(t, "show", matchErr.Suggestion)
	assert.Contains(t, err.Error(), "Did you mean 'show'?")
}

func TestParseImplicitJoin(t *testing.T) {
	// Join detection wins over the count trigger
	intent, err := Parse("how many transaction_qty and user_name", mapping.Relational)
	require.NoError(t, err)

	assert.Equal(t, mapping.OpJoin, intent.Operation)
	assert.Equal(t, mapping.RuleImplicitJoin, intent.Rule)
	assert.Equal(t, "transactions", intent.Table)
	require.NotNil(t, intent.Join)
	assert.Equal(t, "users", intent.Join.Table)
	assert.Equal(t, "transactions.user_id = users.user_id", intent.Join.On)
	assert.Equal(t, []string{"transactions.transaction_qty", "users.user_name"}, intent.Join.Columns)
}

func TestParseImplicitJoinDocument(t *testing.T) {
	intent, err := Parse("show customer_email and price", mapping.Document)
	require.NoError(t, err)

	assert.Equal(t, mapping.OpJoin, intent.Operation)
	assert.Equal(t, "orders", intent.Table)
	assert.Equal(t, "customers", intent.Join.Table)
	assert.Equal(t, "joined_result", intent.Join.As)
	assert.False(t, intent.Join.Unwind)
}

func TestParseCustomerDetailsPrecedence(t *testing.T) {
	intent, err := Parse("how many customer details with total sales", mapping.Relational)
	require.NoError(t, err)

	assert.Equal(t, mapping.RuleCustomerDetails, intent.Rule)
	assert.Equal(t, mapping.OpJoin, intent.Operation)
	assert.Equal(t, []string{"transactions.*", "users.user_name", "users.user_email"}, intent.Join.Columns)

	intent, err = Parse("get customer details", mapping.Document)
	require.NoError(t, err)
	assert.Equal(t, "orders", intent.Table)
	assert.Equal(t, "customers", intent.Join.Table)
	assert.Equal(t, "customer_details", intent.Join.As)
	assert.True(t, intent.Join.Unwind)
}

func TestParseSumWithoutTargetFails(t *testing.T) {
	_, err := Parse("sum of bananas", mapping.Relational)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAggregateTarget))

	var matchErr *MatchError
	require.True(t, errors.As(err, &matchErr))
	assert.Equal(t, mapping.RuleSum, matchErr.Rule)
}

func TestParseAverageWithoutTargetProceeds(t *testing.T) {
	intent, err := Parse("average of bananas", mapping.Relational)
	require.NoError(t, err)

	assert.Equal(t, mapping.OpAggregate, intent.Operation)
	require.NotNil(t, intent.Aggregate)
	assert.Equal(t, mapping.FuncAverage, intent.Aggregate.Function)
	assert.Nil(t, intent.Aggregate.Target)
}

func TestParseGroupBy(t *testing.T) {
	intent, err := Parse("total sales by store location", mapping.Relational)
	require.NoError(t, err)

	assert.Equal(t, "transactions", intent.Table)
	assert.Equal(t, models.NewProduct("transaction_qty", "unit_price"), intent.Aggregate.Target)
	assert.Equal(t, "store_location", intent.GroupBy)
}

func TestParseAverageSingleField(t *testing.T) {
	intent, err := Parse("average price for each category", mapping.Document)
	require.NoError(t, err)

	assert.Equal(t, models.NewField("price"), intent.Aggregate.Target)
	assert.Equal(t, "category", intent.GroupBy)
}

func TestParseOrderBy(t *testing.T) {
	intent, err := Parse("show products ordered by price desc", mapping.Relational)
	require.NoError(t, err)
	require.NotNil(t, intent.OrderBy)
	assert.Equal(t, models.OrderBy{Field: "unit_price", Direction: mapping.DirectionDesc}, *intent.OrderBy)

	intent, err = Parse("list orders order by quantity", mapping.Document)
	require.NoError(t, err)
	assert.Equal(t, models.OrderBy{Field: "quantity", Direction: mapping.DirectionAsc}, *intent.OrderBy)
}

func TestParseOrderByUnknownFieldDropped(t *testing.T) {
	intent, err := Parse("show products ordered by banana", mapping.Relational)
	require.NoError(t, err)
	assert.Nil(t, intent.OrderBy)
}

func TestParseFiltersLastWriteWins(t *testing.T) {
	intent, err := Parse("count orders with price greater than 5 and price less than 10", mapping.Document)
	require.NoError(t, err)
	assert.Equal(t, models.Filters{{Field: "price", Operator: mapping.FilterLT, Value: 10}}, intent.Filters)

	intent, err = Parse("count orders with price greater than 5 and quantity less than 3", mapping.Document)
	require.NoError(t, err)
	assert.Equal(t, models.Filters{
		{Field: "price", Operator: mapping.FilterGT, Value: 5},
		{Field: "quantity", Operator: mapping.FilterLT, Value: 3},
	}, intent.Filters)
}

func TestParseFilterSymbols(t *testing.T) {
	intent, err := Parse("count orders where price>2.5", mapping.Document)
	require.NoError(t, err)
	assert.Equal(t, models.Filters{{Field: "price", Operator: mapping.FilterGT, Value: 2.5}}, intent.Filters)
}

func TestParseMalformedFilterValue(t *testing.T) {
	_, err := Parse("count orders with price greater than ten", mapping.Document)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedFilterValue))

	var matchErr *MatchError
	require.True(t, errors.As(err, &matchErr))
	assert.Equal(t, "ten", matchErr.Value)
}

func TestParseExtremum(t *testing.T) {
	intent, err := Parse("highest price of products", mapping.Relational)
	require.NoError(t, err)
	assert.Equal(t, mapping.FuncMax, intent.Aggregate.Function)
	assert.Equal(t, models.NewField("unit_price"), intent.Aggregate.Target)
	assert.Equal(t, "products", intent.Table)

	intent, err = Parse("lowest sales amount", mapping.Document)
	require.NoError(t, err)
	assert.Equal(t, mapping.FuncMin, intent.Aggregate.Function)
	assert.Equal(t, models.NewField("sales_amount"), intent.Aggregate.Target)
}

func TestParseExtremumNeedsNumericField(t *testing.T) {
	intent, err := Parse("show the largest store", mapping.Relational)
	require.NoError(t, err)
	assert.Equal(t, mapping.OpSelectAll, intent.Operation)
}

func TestParseDeterministic(t *testing.T) {
	input := "average price by category ordered by date desc"
	first, err := Parse(input, mapping.Document)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Parse(input, mapping.Document)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNewUnsupportedBackend(t *testing.T) {
	_, err := New("graph", nil)
	assert.Error(t, err)
}

func TestParseFilterForms(t *testing.T) {
	tests := []struct {
		phrase string
		op     string
	}{
		{"greater than", mapping.FilterGT},
		{">", mapping.FilterGT},
		{"less than", mapping.FilterLT},
		{"<", mapping.FilterLT},
		{"equal to", mapping.FilterEQ},
		{"=", mapping.FilterEQ},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			intent, err := Parse("count orders with price "+tt.phrase+" 7", mapping.Document)
			require.NoError(t, err)
			assert.Equal(t, models.Filters{{Field: "price", Operator: tt.op, Value: 7}}, intent.Filters)
		})
	}
}

func TestParseCustomerDetailsIgnoresFilters(t *testing.T) {
	intent, err := Parse("show customer details where price greater than ten", mapping.Relational)
	require.NoError(t, err)
	assert.Equal(t, mapping.RuleCustomerDetails, intent.Rule)
	assert.Empty(t, intent.Filters)
	assert.Empty(t, intent.Fields)

	intent, err = Parse("get customer details with price greater than 5", mapping.Document)
	require.NoError(t, err)
	assert.Equal(t, mapping.RuleCustomerDetails, intent.Rule)
	assert.Empty(t, intent.Filters)
}

func TestParseSelectBeatsExtremum(t *testing.T) {
	intent, err := Parse("show the highest price products", mapping.Relational)
	require.NoError(t, err)
	assert.Equal(t, mapping.RuleSelect, intent.Rule)
	assert.Equal(t, mapping.OpSelectAll, intent.Operation)
	assert.Equal(t, "products", intent.Table)
	assert.Nil(t, intent.Aggregate)
}

func TestParseMeanIsNotATrigger(t *testing.T) {
	_, err := Parse("what do you mean", mapping.Relational)
	assert.True(t, errors.Is(err, ErrNoMatch))
}
