package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFiltersLastWriteWins(t *testing.T) {
	var f Filters
	f.Set("price", "gt", 10)
	f.Set("quantity", "lt", 5)
	f.Set("price", "eq", 7)

	require.Len(t, f, 2)
	assert.Equal(t, Condition{Field: "price", Operator: "eq", Value: 7}, f[0])
	assert.Equal(t, "quantity", f[1].Field)

	c, ok := f.Get("quantity")
	require.True(t, ok)
	assert.Equal(t, "lt", c.Operator)

	_, ok = f.Get("missing")
	assert.False(t, ok)
}

func TestConditionValues(t *testing.T) {
	assert.Equal(t, int64(100), Condition{Value: 100}.NativeValue())
	assert.Equal(t, 2.5, Condition{Value: 2.5}.NativeValue())
	assert.Equal(t, "100", Condition{Value: 100}.FormatValue())
	assert.Equal(t, "-3", Condition{Value: -3}.FormatValue())
	assert.Equal(t, "0.25", Condition{Value: 0.25}.FormatValue())
}

func TestFieldExpression(t *testing.T) {
	p := NewProduct("quantity", "price")
	assert.True(t, p.IsProduct())
	assert.Equal(t, "quantity * price", p.String())
	assert.Equal(t, []string{"quantity", "price"}, p.Fields())

	f := NewField("unit_price")
	assert.False(t, f.IsProduct())
	assert.Equal(t, "unit_price", f.String())

	var none *FieldExpression
	assert.Equal(t, "", none.String())
	assert.Nil(t, none.Fields())
}

func TestBackendQueryString(t *testing.T) {
	q := &BackendQuery{Backend: "relational", Relational: &RelationalQuery{SQL: "SELECT * FROM products"}}
	assert.Equal(t, "SELECT * FROM products", q.String())

	doc := &BackendQuery{Backend: "document", Document: &DocumentQuery{
		Operation:  "count",
		Collection: "orders",
		Filter:     bson.D{{Key: "price", Value: bson.D{{Key: "$gt", Value: int64(5)}}}},
	}}
	assert.Equal(t, `{"operation":"count","collection":"orders","filter":{"price":{"$gt":5}}}`, doc.String())
}

func TestBackendQueryProto(t *testing.T) {
	q := &BackendQuery{Backend: "document", Document: &DocumentQuery{
		Operation:  "aggregate",
		Collection: "orders",
		Pipeline: []bson.D{
			{{Key: "$group", Value: bson.D{{Key: "_id", Value: nil}}}},
		},
	}}

	s, err := q.Proto()
	require.NoError(t, err)
	assert.Equal(t, "aggregate", s.Fields["operation"].GetStringValue())
	assert.Equal(t, "document", s.Fields["backend"].GetStringValue())
	assert.Len(t, s.Fields["pipeline"].GetListValue().GetValues(), 1)

	_, err = (&BackendQuery{}).Proto()
	assert.Error(t, err)
}
