package parser

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/omniql-engine/nlq/engine/extractor"
	"github.com/omniql-engine/nlq/engine/lexer"
	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

// Parser matches questions against the intent rule cascade for one backend
type Parser struct {
	backend string
	logger  *slog.Logger
	rules   []rule
}

// triggerPatterns - one compiled alternation per rule, built from mapping
var triggerPatterns map[string]*regexp.Regexp

func init() {
	triggerPatterns = make(map[string]*regexp.Regexp)
	for rule, phrases := range mapping.TriggerPhrases {
		triggerPatterns[rule] = regexp.MustCompile(lexer.AlternationExpr(phrases))
	}
}

// Parse is the package-level entry point: normalize and match one question
func Parse(input, backend string) (*models.Intent, error) {
	p, err := New(backend, nil)
	if err != nil {
		return nil, err
	}
	return p.Parse(input, lexer.Normalize(input))
}

// New creates a parser for a backend; a nil logger discards output
func New(backend string, logger *slog.Logger) (*Parser, error) {
	if _, ok := mapping.Fields[backend]; !ok {
		return nil, fmt.Errorf("unsupported backend '%s'", backend)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{
		backend: backend,
		logger:  logger,
		rules:   cascade(),
	}, nil
}

// Parse runs the cascade over a question and its normalized tokens
// The first rule whose trigger fires builds the intent; no trigger yields ErrNoMatch
func (p *Parser) Parse(input string, tokens []string) (*models.Intent, error) {
	ctx, err := p.prepare(input, tokens)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("matching question",
		"backend", p.backend,
		"tokens", tokens,
		"fields", ctx.fields,
		"aggregate_fields", ctx.aggregateFields,
		"group_by", ctx.groupBy,
		"filters", len(ctx.filters),
	)

	for _, r := range p.rules {
		if !r.trigger(ctx) {
			continue
		}
		if r.readsFilters && ctx.filterErr != nil {
			p.logger.Debug("rule failed", "rule", r.name, "error", ctx.filterErr)
			return nil, ctx.filterErr
		}
		intent, err := r.build(ctx)
		if err != nil {
			p.logger.Debug("rule failed", "rule", r.name, "error", err)
			return nil, &MatchError{Err: err, Input: input, Rule: r.name}
		}
		intent.Rule = r.name
		p.logger.Debug("rule matched", "rule", r.name, "operation", intent.Operation, "table", intent.Table)
		return intent, nil
	}

	p.logger.Debug("no rule matched", "input", input)
	return nil, p.errorWithSuggestion(input)
}

// prepare runs the side computations every rule may draw on
func (p *Parser) prepare(input string, tokens []string) (*matchContext, error) {
	ctx := &matchContext{
		raw:     lexer.Fold(input),
		input:   input,
		tokens:  tokens,
		backend: p.backend,
	}
	ctx.fields = extractor.Fields(input, p.backend, extractor.ContextGeneral)
	ctx.aggregateFields = extractor.Fields(input, p.backend, extractor.ContextAggregation)
	ctx.groupBy = detectGroupBy(ctx)
	ctx.orderBy = detectOrderBy(ctx)

	ctx.filters, ctx.filterErr = detectFilters(ctx)
	return ctx, nil
}

func (p *Parser) errorWithSuggestion(input string) error {
	var words []string
	for _, tok := range lexer.Tokenize(input) {
		words = append(words, tok.Value)
	}
	return &MatchError{
		Err:        ErrNoMatch,
		Input:      input,
		Suggestion: lexer.SuggestForWords(words),
	}
}
