package config

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniql-engine/nlq"
	"github.com/omniql-engine/nlq/engine/history"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "nlq.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Type)
	assert.Equal(t, DriverSQLite, cfg.Relational.Driver)
	assert.Equal(t, HistoryRedis, cfg.History.Type)
	assert.Equal(t, "nlq:questions", cfg.History.Key)
	assert.EqualValues(t, 50, cfg.History.MaxEntries)
	assert.True(t, cfg.Validation.Syntax)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORS.TrustedOrigins)

	// untouched sections keep their defaults
	assert.Equal(t, "nlq", cfg.Document.Database)
	assert.Equal(t, 20, cfg.Server.HistoryLimit)
	assert.Equal(t, DriverSQLite, cfg.SyntaxDialect())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown key", yaml: "loger:\n  level: info\n"},
		{name: "log level", yaml: "logger:\n  level: verbose\n"},
		{name: "log type", yaml: "logger:\n  type: xml\n"},
		{name: "driver", yaml: "relational:\n  driver: oracle\n"},
		{name: "history type", yaml: "history:\n  type: kafka\n"},
		{name: "sql history without dsn", yaml: "history:\n  type: sql\n"},
		{name: "redis history without addr", yaml: "history:\n  type: redis\n"},
		{name: "schema without connection", yaml: "validation:\n  schema: true\n"},
		{name: "document without database", yaml: "document:\n  uri: mongodb://localhost\n  database: \"\"\n"},
		{name: "server address", yaml: "server:\n  addr: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseLoggerConfig(t *testing.T) {
	var buf bytes.Buffer
	logger, err := parseLoggerConfig(LoggerConfig{Level: "warn", Type: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "stage", "match")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "match", line["stage"])

	for _, typ := range []string{"text", "colored-text"} {
		_, err := parseLoggerConfig(LoggerConfig{Level: "info", Type: typ}, io.Discard)
		assert.NoError(t, err, typ)
	}
}

func TestBuildSQLiteWithRedisHistory(t *testing.T) {
	mr := miniredis.RunT(t)
	dsn := filepath.Join(t.TempDir(), "store.db")

	seed, err := sql.Open(DriverSQLite, dsn)
	require.NoError(t, err)
	_, err = seed.Exec(`
		CREATE TABLE products (product_name TEXT, unit_price REAL);
		INSERT INTO products VALUES ('latte', 4.5), ('espresso', 3.0), ('mocha', 5.0);
	`)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	cfg, err := Parse([]byte(fmt.Sprintf(`
relational:
  driver: sqlite3
  dsn: %q
history:
  type: redis
  addr: %q
validation:
  syntax: true
  schema: true
`, dsn, mr.Addr())))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt, err := Build(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close(context.Background()) })

	_, rows, err := rt.Client.Ask(context.Background(), "show all products", "sql")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, _, err = rt.Client.Ask(context.Background(), "show all users", "sql")
	assert.ErrorIs(t, err, nlq.ErrUnknownTable)

	lister, ok := rt.History.(history.Lister)
	require.True(t, ok)
	entries, err := lister.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "show all products", entries[0].Question)
}

func TestBuildWithoutConnections(t *testing.T) {
	rt, err := Build(context.Background(), Default(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer rt.Close(context.Background())

	assert.Nil(t, rt.SQL)
	assert.Nil(t, rt.Mongo)
	assert.IsType(t, history.Nop{}, rt.History)

	res, err := rt.Client.Compiler().Compile(context.Background(), "how many products", "sql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) AS total_count FROM products", res.Query.String())

	_, err = rt.Client.Execute(context.Background(), res.Query)
	assert.ErrorIs(t, err, nlq.ErrNoConnection)
}

func TestBuildUnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := Default()
	cfg.History = HistoryConfig{Type: HistoryRedis, Addr: addr, Key: "k"}
	_, err := Build(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
