package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/yaml.v3"

	"github.com/omniql-engine/nlq/api"
)

const (
	HistoryNone  = "none"
	HistorySQL   = "sql"
	HistoryRedis = "redis"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

type Config struct {
	Logger     LoggerConfig     `yaml:"logger"`
	Relational RelationalConfig `yaml:"relational"`
	Document   DocumentConfig   `yaml:"document"`
	History    HistoryConfig    `yaml:"history"`
	Validation ValidationConfig `yaml:"validation"`
	Server     api.Config       `yaml:"server"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Type  string `yaml:"type"`
}

// RelationalConfig is the SQL store questions run against; empty DSN disables it
type RelationalConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// DocumentConfig is the MongoDB store; empty URI disables it
type DocumentConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type HistoryConfig struct {
	Type       string `yaml:"type"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	Key        string `yaml:"key"`
	MaxEntries int64  `yaml:"max_entries"`
}

type ValidationConfig struct {
	Syntax  bool   `yaml:"syntax"`
	Dialect string `yaml:"dialect"`
	Schema  bool   `yaml:"schema"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Logger: LoggerConfig{Level: "info", Type: "colored-text"},
		Relational: RelationalConfig{
			Driver: DriverSQLite,
		},
		Document: DocumentConfig{
			Database:       "nlq",
			ConnectTimeout: defaultConnectTimeout,
		},
		History: HistoryConfig{
			Type:       HistoryNone,
			Key:        "nlq:history",
			MaxEntries: 1000,
		},
		Server: api.Config{
			Addr:         ":8080",
			HistoryLimit: 20,
		},
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("cannot parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	if _, err := parseLevel(cfg.Logger.Level); err != nil {
		return err
	}
	switch cfg.Logger.Type {
	case "json", "text", "colored-text":
	default:
		return fmt.Errorf("invalid log type: %s", cfg.Logger.Type)
	}

	switch cfg.Relational.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("invalid relational driver: %s", cfg.Relational.Driver)
	}

	if cfg.Document.URI != "" && cfg.Document.Database == "" {
		return errors.New("document database name is required")
	}

	switch cfg.History.Type {
	case HistoryNone:
	case HistorySQL:
		if cfg.Relational.DSN == "" {
			return errors.New("sql history requires a relational dsn")
		}
	case HistoryRedis:
		if cfg.History.Addr == "" {
			return errors.New("redis history requires an address")
		}
		if cfg.History.Key == "" {
			return errors.New("redis history requires a key")
		}
	default:
		return fmt.Errorf("invalid history type: %s", cfg.History.Type)
	}

	if cfg.Validation.Schema && cfg.Relational.DSN == "" && cfg.Document.URI == "" {
		return errors.New("schema validation requires a relational or document connection")
	}

	return cfg.Server.Validate()
}

// SyntaxDialect is the grammar generated SQL is checked against
func (cfg Config) SyntaxDialect() string {
	if cfg.Validation.Dialect != "" {
		return cfg.Validation.Dialect
	}
	return cfg.Relational.Driver
}

// ============================================================================
// LOGGER
// ============================================================================

func NewLogger(cfg LoggerConfig) (*slog.Logger, error) {
	return parseLoggerConfig(cfg, os.Stdout)
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
}

func parseLoggerConfig(cfg LoggerConfig, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch cfg.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "colored-text":
		handler = tint.NewHandler(w, &tint.Options{Level: level, AddSource: true, TimeFormat: time.Kitchen})
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Type)
	}

	return slog.New(handler), nil
}
