package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniql-engine/nlq"
	"github.com/omniql-engine/nlq/engine/history"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE products (product_name TEXT, unit_price REAL);
		CREATE TABLE transactions (transaction_qty INTEGER, unit_price REAL, store_location TEXT, user_id INTEGER);
		INSERT INTO products VALUES ('latte', 4.5), ('espresso', 3.0);
		INSERT INTO transactions VALUES (2, 4.5, 'Astoria', 1), (1, 3.0, 'Astoria', 2);
	`)
	require.NoError(t, err)
	return db
}

func newTestServer(t *testing.T, client *nlq.Client, rec history.Recorder) http.Handler {
	t.Helper()
	s, err := NewServer(Config{Addr: ":0", CORS: CORSConfig{TrustedOrigins: []string{"http://localhost:3000"}}}, discardLogger(), client, rec)
	require.NoError(t, err)
	return s.routes()
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		js, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(js)
	}

	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var res apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	return rr, res
}

func TestNewServerValidatesConfig(t *testing.T) {
	_, err := NewServer(Config{}, discardLogger(), nlq.NewClient(nil, nil), nil)
	assert.Error(t, err)

	_, err = NewServer(Config{Addr: ":8080"}, discardLogger(), nil, nil)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	h := newTestServer(t, nlq.NewClient(nil, nil), nil)

	rr, res := do(t, h, http.MethodGet, "/api/healthcheck", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, res.Success)
	assert.Equal(t, "OK", res.Message)
}

func TestQueryCompileOnly(t *testing.T) {
	h := newTestServer(t, nlq.NewClient(nil, nil), nil)

	rr, res := do(t, h, http.MethodPost, "/api/query", queryRequest{Query: "total sales", Backend: "mysql"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, res.Success)
	assert.Equal(t, "relational", res.Data["backend"])

	generated, ok := res.Data["generated_query"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "SELECT SUM(transaction_qty * unit_price) AS sum_value FROM transactions", generated["sql"])
	assert.NotContains(t, res.Data, "result")

	intent, ok := res.Data["intent"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, intent)
}

func TestQueryDocumentBackend(t *testing.T) {
	h := newTestServer(t, nlq.NewClient(nil, nil), nil)

	rr, res := do(t, h, http.MethodPost, "/api/query", queryRequest{Query: "show all products", Backend: "mongodb"})
	require.Equal(t, http.StatusOK, rr.Code)

	generated := res.Data["generated_query"].(map[string]any)
	assert.Equal(t, "find", generated["operation"])
	assert.Equal(t, "products", generated["collection"])
}

func TestQueryExecute(t *testing.T) {
	client := nlq.WrapSQL(openStore(t))
	h := newTestServer(t, client, nil)

	rr, res := do(t, h, http.MethodPost, "/api/query", queryRequest{Query: "total sales", Backend: "sql", Execute: true})
	require.Equal(t, http.StatusOK, rr.Code)

	rows, ok := res.Data["result"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.InDelta(t, 12.0, rows[0].(map[string]any)["sum_value"], 1e-9)
}

func TestQueryErrors(t *testing.T) {
	h := newTestServer(t, nlq.NewClient(nil, nil), nil)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{name: "empty body", body: nil, status: http.StatusBadRequest},
		{name: "malformed json", body: `{"query": `, status: http.StatusBadRequest},
		{name: "unknown field", body: `{"question": "show all products"}`, status: http.StatusUnprocessableEntity},
		{name: "two values", body: `{"query": "a", "backend": "sql"}{}`, status: http.StatusBadRequest},
		{name: "missing query", body: queryRequest{Backend: "sql"}, status: http.StatusUnprocessableEntity},
		{name: "unknown backend", body: queryRequest{Query: "show all products", Backend: "oracle"}, status: http.StatusUnprocessableEntity},
		{name: "no match", body: queryRequest{Query: "banana", Backend: "sql"}, status: http.StatusUnprocessableEntity},
		{name: "no connection", body: queryRequest{Query: "show all products", Backend: "sql", Execute: true}, status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, res := do(t, h, http.MethodPost, "/api/query", tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.False(t, res.Success)
		})
	}
}

func TestQueryNoMatchCarriesStage(t *testing.T) {
	h := newTestServer(t, nlq.NewClient(nil, nil), nil)

	_, res := do(t, h, http.MethodPost, "/api/query", queryRequest{Query: "banana", Backend: "sql"})
	ctxMeta, ok := res.Metadata["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, nlq.StageMatch, ctxMeta["stage"])
}

func TestHistory(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	rec := history.NewRedisRecorder(rdb, "nlq:history", 10)
	client := nlq.NewClient(nil, nil, nlq.WithRecorder(rec))
	h := newTestServer(t, client, rec)

	for _, q := range []string{"show all products", "total sales"} {
		rr, _ := do(t, h, http.MethodPost, "/api/query", queryRequest{Query: q, Backend: "sql"})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr, res := do(t, h, http.MethodGet, "/api/history?limit=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	entries := res.Data["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "total sales", entries[0].(map[string]any)["query_text"])

	rr, _ = do(t, h, http.MethodGet, "/api/history?limit=zero", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHistoryDisabled(t *testing.T) {
	h := newTestServer(t, nlq.NewClient(nil, nil), history.Nop{})

	rr, res := do(t, h, http.MethodGet, "/api/history", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, res.Success)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, nlq.NewClient(nil, nil), nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeStopsOnCancel(t *testing.T) {
	s, err := NewServer(Config{Addr: "127.0.0.1:0"}, discardLogger(), nlq.NewClient(nil, nil), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
