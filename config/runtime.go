package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/omniql-engine/nlq"
	"github.com/omniql-engine/nlq/engine/history"
	"github.com/omniql-engine/nlq/engine/validator"
	"github.com/omniql-engine/nlq/mapping"
)

const defaultConnectTimeout = 10 * time.Second

// Runtime holds every connection a configuration opens
type Runtime struct {
	Logger  *slog.Logger
	Client  *nlq.Client
	History history.Recorder
	SQL     *sql.DB
	Mongo   *mongo.Client
	Redis   *redis.Client
}

// Build opens the configured connections and assembles a client
func Build(ctx context.Context, cfg Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Logger: logger, History: history.Nop{}}

	if err := rt.open(ctx, cfg); err != nil {
		rt.Close(context.Background()) //nolint:errcheck
		return nil, err
	}

	opts := []nlq.Option{nlq.WithLogger(logger), nlq.WithRecorder(rt.History)}
	if cfg.Validation.Syntax {
		opts = append(opts, nlq.WithSyntaxCheck(cfg.SyntaxDialect()))
	}

	var mongoDB *mongo.Database
	if rt.Mongo != nil {
		mongoDB = rt.Mongo.Database(cfg.Document.Database)
	}

	if cfg.Validation.Schema {
		if rt.SQL != nil {
			insp, err := validator.NewSQLInspector(rt.SQL, cfg.Relational.Driver)
			if err != nil {
				rt.Close(context.Background()) //nolint:errcheck
				return nil, fmt.Errorf("cannot create schema inspector: %w", err)
			}
			opts = append(opts, nlq.WithInspector(mapping.Relational, insp))
		}
		if mongoDB != nil {
			opts = append(opts, nlq.WithInspector(mapping.Document, validator.NewMongoInspector(mongoDB)))
		}
	}

	rt.Client = nlq.NewClient(rt.SQL, mongoDB, opts...)
	return rt, nil
}

func (rt *Runtime) open(ctx context.Context, cfg Config) error {
	if cfg.Relational.DSN != "" {
		db, err := sql.Open(cfg.Relational.Driver, cfg.Relational.DSN)
		if err != nil {
			return fmt.Errorf("cannot open relational database: %w", err)
		}
		rt.SQL = db
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("cannot reach relational database: %w", err)
		}
		rt.Logger.Info("connected to relational database", "driver", cfg.Relational.Driver)
	}

	if cfg.Document.URI != "" {
		timeout := cfg.Document.ConnectTimeout
		if timeout <= 0 {
			timeout = defaultConnectTimeout
		}
		connectCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Document.URI))
		if err != nil {
			return fmt.Errorf("cannot connect to document database: %w", err)
		}
		rt.Mongo = client
		if err := client.Ping(connectCtx, nil); err != nil {
			return fmt.Errorf("cannot reach document database: %w", err)
		}
		rt.Logger.Info("connected to document database", "database", cfg.Document.Database)
	}

	switch cfg.History.Type {
	case HistorySQL:
		rt.History = history.NewSQLRecorder(rt.SQL, cfg.Relational.Driver)
	case HistoryRedis:
		rt.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.History.Addr,
			Password: cfg.History.Password,
			DB:       cfg.History.DB,
		})
		if err := rt.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("cannot reach history redis: %w", err)
		}
		rt.History = history.NewRedisRecorder(rt.Redis, cfg.History.Key, cfg.History.MaxEntries)
	}

	return nil
}

// Close releases every open connection
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.SQL != nil {
		errs = append(errs, rt.SQL.Close())
	}
	if rt.Mongo != nil {
		errs = append(errs, rt.Mongo.Disconnect(ctx))
	}
	if rt.Redis != nil {
		errs = append(errs, rt.Redis.Close())
	}
	return errors.Join(errs...)
}
