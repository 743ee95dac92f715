package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is one recorded question
type Entry struct {
	Question string    `json:"query_text"`
	Backend  string    `json:"db_type"`
	At       time.Time `json:"at"`
}

// Recorder keeps a log of compiled questions
type Recorder interface {
	Record(ctx context.Context, question, backend string) error
}

// Lister is a Recorder that can return its most recent entries
type Lister interface {
	Recorder
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Nop discards every entry
type Nop struct{}

func (Nop) Record(context.Context, string, string) error { return nil }

// ============================================================================
// SQL SINK
// ============================================================================

// SQLRecorder appends to the user_queries table
type SQLRecorder struct {
	db     *sql.DB
	insert string
}

// NewSQLRecorder creates a recorder; postgres takes numbered placeholders
func NewSQLRecorder(db *sql.DB, dialect string) *SQLRecorder {
	insert := "INSERT INTO user_queries (query_text, db_type) VALUES (?, ?)"
	if dialect == "postgres" {
		insert = "INSERT INTO user_queries (query_text, db_type) VALUES ($1, $2)"
	}
	return &SQLRecorder{db: db, insert: insert}
}

func (r *SQLRecorder) Record(ctx context.Context, question, backend string) error {
	if _, err := r.db.ExecContext(ctx, r.insert, question, backend); err != nil {
		return fmt.Errorf("cannot record question: %w", err)
	}
	return nil
}

// ============================================================================
// REDIS SINK
// ============================================================================

// RedisRecorder keeps a capped list, newest first
type RedisRecorder struct {
	client redis.UniversalClient
	key    string
	max    int64
	now    func() time.Time
}

// NewRedisRecorder creates a recorder holding at most max entries under key
func NewRedisRecorder(client redis.UniversalClient, key string, max int64) *RedisRecorder {
	if max <= 0 {
		max = 1000
	}
	return &RedisRecorder{client: client, key: key, max: max, now: time.Now}
}

func (r *RedisRecorder) Record(ctx context.Context, question, backend string) error {
	data, err := json.Marshal(Entry{Question: question, Backend: backend, At: r.now().UTC()})
	if err != nil {
		return fmt.Errorf("cannot encode history entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, data)
	pipe.LTrim(ctx, r.key, 0, r.max-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot record question: %w", err)
	}
	return nil
}

func (r *RedisRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	raw, err := r.client.LRange(ctx, r.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot read history: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("corrupt history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
