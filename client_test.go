package nlq

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/engine/validator"
)

func openStore(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE products (product_name TEXT, unit_price REAL);
		CREATE TABLE users (user_id INTEGER, user_name TEXT, user_email TEXT, registration_date TEXT);
		CREATE TABLE transactions (transaction_qty INTEGER, unit_price REAL, store_location TEXT, user_id INTEGER);
		INSERT INTO products VALUES ('latte', 4.5), ('espresso', 3.0);
		INSERT INTO users VALUES (1, 'ada', 'ada@example.com', '2024-01-01'), (2, 'bob', 'bob@example.com', '2024-02-01');
		INSERT INTO transactions VALUES (2, 4.5, 'Astoria', 1), (1, 3.0, 'Astoria', 2), (4, 2.5, 'Hell''s Kitchen', 1);
	`)
	require.NoError(t, err)
	return db
}

func TestClientAskRelational(t *testing.T) {
	db := openStore(t)
	client := WrapSQL(db)
	ctx := context.Background()

	_, rows, err := client.Ask(ctx, "show all products", "sql")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	res, rows, err := client.Ask(ctx, "total sales", "sql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT SUM(transaction_qty * unit_price) AS sum_value FROM transactions", res.Query.String())
	require.Len(t, rows, 1)
	assert.InDelta(t, 22.0, rows[0]["sum_value"], 1e-9)

	_, rows, err = client.Ask(ctx, "total sales by store location", "sql")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, rows, err = client.Ask(ctx, "show customer details", "sql")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Contains(t, rows[0], "user_email")
	assert.Contains(t, rows[0], "transaction_qty")
}

func TestClientAskWithSchemaValidation(t *testing.T) {
	db := openStore(t)
	insp, err := validator.NewSQLInspector(db, validator.DialectSQLite)
	require.NoError(t, err)

	client := WrapSQL(db, WithInspector("sql", insp), WithSyntaxCheck(validator.DialectSQLite))

	_, _, err = client.Ask(context.Background(), "how many transactions are greater than 100", "sql")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, rows, err := client.Ask(context.Background(), "how many transactions", "sql")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 3, rows[0]["total_count"])
}

func TestClientMissingConnection(t *testing.T) {
	client := WrapSQL(nil)
	_, err := client.Execute(context.Background(), &models.BackendQuery{
		Document: &models.DocumentQuery{Operation: "find", Collection: "orders"},
	})
	assert.ErrorIs(t, err, ErrNoConnection)

	_, err = client.Execute(context.Background(), &models.BackendQuery{
		Relational: &models.RelationalQuery{SQL: "SELECT 1"},
	})
	assert.ErrorIs(t, err, ErrNoConnection)

	_, err = client.Execute(context.Background(), nil)
	assert.Error(t, err)
}

func TestStringifyIDs(t *testing.T) {
	id := primitive.NewObjectID()
	nested := primitive.NewObjectID()

	got := bsonToMap(bson.M{
		"_id":   id,
		"price": 4.5,
		"customer_details": bson.D{
			{Key: "_id", Value: nested},
			{Key: "customer_name", Value: "ada"},
		},
		"tags": bson.A{nested, "x"},
	})

	assert.Equal(t, id.Hex(), got["_id"])
	assert.Equal(t, 4.5, got["price"])
	assert.Equal(t, map[string]any{"_id": nested.Hex(), "customer_name": "ada"}, got["customer_details"])
	assert.Equal(t, []any{nested.Hex(), "x"}, got["tags"])
}
