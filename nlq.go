package nlq

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/omniql-engine/nlq/engine/history"
	"github.com/omniql-engine/nlq/engine/lexer"
	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/engine/parser"
	"github.com/omniql-engine/nlq/engine/translator"
	"github.com/omniql-engine/nlq/engine/validator"
	"github.com/omniql-engine/nlq/mapping"
)

// ============================================================================
// ERRORS
// ============================================================================

// Pipeline stages reported by Error
const (
	StageBackend   = "backend"
	StageMatch     = "match"
	StageTranslate = "translate"
	StageSyntax    = "syntax"
	StageSchema    = "schema"
)

var (
	ErrNoMatch                = parser.ErrNoMatch
	ErrMissingAggregateTarget = parser.ErrMissingAggregateTarget
	ErrMalformedFilterValue   = parser.ErrMalformedFilterValue
	ErrUnsupportedOperation   = translator.ErrUnsupportedOperation
	ErrIncompleteIntent       = translator.ErrIncompleteIntent
	ErrUnsupportedBackend     = translator.ErrUnsupportedBackend
	ErrUnknownTable           = validator.ErrUnknownTable
	ErrUnknownField           = validator.ErrUnknownField
)

// Error wraps a compilation failure with the stage that produced it
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ============================================================================
// OPTIONS
// ============================================================================

// Option configures a Compiler
type Option func(*Compiler)

// WithLogger traces every stage at debug level
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithInspector enables schema validation for one backend
func WithInspector(backend string, insp validator.Inspector) Option {
	return func(c *Compiler) {
		if resolved, ok := mapping.ResolveBackend(backend); ok && insp != nil {
			c.inspectors[resolved] = insp
		}
	}
}

// WithRecorder logs every successfully compiled question
func WithRecorder(rec history.Recorder) Option {
	return func(c *Compiler) { c.recorder = rec }
}

// WithSyntaxCheck parses generated SQL with the given dialect's grammar
func WithSyntaxCheck(dialect string) Option {
	return func(c *Compiler) {
		c.dialect = dialect
		c.checkSyntax = true
	}
}

// ============================================================================
// COMPILER
// ============================================================================

// Result is a compiled question
type Result struct {
	Question string               `json:"question"`
	Backend  string               `json:"backend"`
	Intent   *models.Intent       `json:"intent"`
	Query    *models.BackendQuery `json:"-"`
}

// Compiler turns questions into backend queries; safe for concurrent use
type Compiler struct {
	logger      *slog.Logger
	inspectors  map[string]validator.Inspector
	recorder    history.Recorder
	dialect     string
	checkSyntax bool
}

// New creates a compiler
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		inspectors: make(map[string]validator.Inspector),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile runs one question through the whole pipeline
func Compile(ctx context.Context, raw, backend string, opts ...Option) (*Result, error) {
	return New(opts...).Compile(ctx, raw, backend)
}

// Compile matches a question, lowers it and runs the enabled checks
func (c *Compiler) Compile(ctx context.Context, raw, backend string) (*Result, error) {
	resolved, ok := mapping.ResolveBackend(backend)
	if !ok {
		return nil, &Error{Stage: StageBackend, Err: fmt.Errorf("%w: '%s'", ErrUnsupportedBackend, backend)}
	}

	p, err := parser.New(resolved, c.logger)
	if err != nil {
		return nil, &Error{Stage: StageBackend, Err: fmt.Errorf("%w: %v", ErrUnsupportedBackend, err)}
	}

	tokens := lexer.Normalize(raw)
	c.logger.Debug("normalized question", "question", raw, "tokens", tokens)

	intent, err := p.Parse(raw, tokens)
	if err != nil {
		return nil, &Error{Stage: StageMatch, Err: err}
	}

	query, err := translator.Translate(intent, resolved)
	if err != nil {
		return nil, &Error{Stage: StageTranslate, Err: err}
	}
	c.logger.Debug("lowered intent", "rule", intent.Rule, "operation", intent.Operation, "query", query.String())

	if c.checkSyntax {
		if err := validator.ValidateQuery(query, c.dialect); err != nil {
			return nil, &Error{Stage: StageSyntax, Err: err}
		}
	}

	if insp, ok := c.inspectors[resolved]; ok {
		if err := validator.CheckIntent(ctx, insp, intent); err != nil {
			return nil, &Error{Stage: StageSchema, Err: err}
		}
	}

	if c.recorder != nil {
		if err := c.recorder.Record(ctx, raw, resolved); err != nil {
			c.logger.Warn("question not recorded", "error", err)
		}
	}

	return &Result{
		Question: raw,
		Backend:  resolved,
		Intent:   intent,
		Query:    query,
	}, nil
}
