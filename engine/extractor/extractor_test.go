package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omniql-engine/nlq/mapping"
)

func TestFields(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		backend string
		context string
		want    []string
	}{
		{
			name:    "document total sales expands to the product operands",
			text:    "What are the total sales",
			backend: mapping.Document,
			context: ContextAggregation,
			want:    []string{"price", "quantity"},
		},
		{
			name:    "longer synonyms hide shorter ones",
			text:    "total sales by store location",
			backend: mapping.Relational,
			context: ContextGeneral,
			want:    []string{"transaction_qty", "store_location", "unit_price"},
		},
		{
			name:    "compound date phrase hides the bare date synonym",
			text:    "show the order date",
			backend: mapping.Relational,
			context: ContextGeneral,
			want:    []string{"order_date"},
		},
		{
			name:    "aggregation keeps numeric fields",
			text:    "total sales by store location",
			backend: mapping.Relational,
			context: ContextAggregation,
			want:    []string{"transaction_qty", "unit_price"},
		},
		{
			name:    "plural synonym matches singular key",
			text:    "count users by registration dates",
			backend: mapping.Relational,
			context: ContextGeneral,
			want:    []string{"registration_date"},
		},
		{
			name:    "canonical names match directly",
			text:    "show unit_price and user_name",
			backend: mapping.Relational,
			context: ContextGeneral,
			want:    []string{"unit_price", "user_name"},
		},
		{
			name:    "singular sale matches on document backend",
			text:    "average sale",
			backend: mapping.Document,
			context: ContextAggregation,
			want:    []string{"sales_amount"},
		},
		{
			name:    "nothing recognized",
			text:    "banana",
			backend: mapping.Relational,
			context: ContextGeneral,
			want:    nil,
		},
		{
			name:    "unknown backend",
			text:    "price",
			backend: "graph",
			context: ContextGeneral,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fields(tt.text, tt.backend, tt.context))
		})
	}
}

func TestFieldsDeterministic(t *testing.T) {
	text := "average price and quantity by category ordered by date"
	first := Fields(text, mapping.Document, ContextGeneral)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Fields(text, mapping.Document, ContextGeneral))
	}
}

func TestTable(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"how many transactions are greater than 100", "transactions"},
		{"total coffee sales last month", "coffee_sales"},
		{"total sales", "transactions"},
		{"what was the total sale", "transactions"},
		{"count customers with orders", "customers"},
		{"list every user", "users"},
		{"banana", mapping.DefaultTable},
		{"show all products", "products"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Table(tt.text))
		})
	}
}
