package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/omniql-engine/nlq/engine/lexer"
	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

// matchContext holds everything derived from a question before the cascade runs
type matchContext struct {
	input           string // Original question
	raw             string // Case-folded question; triggers and clauses read this
	tokens          []string
	backend         string
	fields          []string // Canonical fields mentioned
	aggregateFields []string // Numeric subset of fields
	groupBy         string
	orderBy         *models.OrderBy
	filters         models.Filters
	filterErr       error // Deferred until a rule that reads filters fires
}

var (
	groupByCuePattern *regexp.Regexp
	orderByPattern    *regexp.Regexp
	filterPatterns    map[string]*regexp.Regexp
)

func init() {
	groupByCuePattern = regexp.MustCompile(lexer.AlternationExpr(mapping.GroupByCues))

	orderByPattern = regexp.MustCompile(
		lexer.AlternationExpr(mapping.OrderByPhrases) + `\s+([a-z_]+)(?:\s+(asc|desc))?`,
	)

	copulas := lexer.AlternationExpr(mapping.FilterCopulas)
	filterPatterns = make(map[string]*regexp.Regexp)
	for _, op := range mapping.FilterOperators {
		filterPatterns[op] = regexp.MustCompile(
			`(\w+)\s*(?:` + copulas + `\s+)?` + lexer.AlternationExpr(mapping.FilterPhrases[op]) + `\s*([\w.\-]+)`,
		)
	}
}

// ============================================================================
// GROUP BY
// ============================================================================

// detectGroupBy returns the first mentioned non-aggregate field when the
// question carries an "each"/"by" cue
func detectGroupBy(ctx *matchContext) string {
	if !groupByCuePattern.MatchString(ctx.raw) {
		return ""
	}

	claimed := make(map[string]bool, len(ctx.aggregateFields))
	for _, f := range ctx.aggregateFields {
		claimed[f] = true
	}

	mentioned := make(map[string]bool, len(ctx.fields))
	for _, f := range ctx.fields {
		mentioned[f] = true
	}

	for _, field := range mapping.Fields[ctx.backend].Canonical {
		if mentioned[field] && !claimed[field] {
			return field
		}
	}
	return ""
}

// ============================================================================
// ORDER BY
// ============================================================================

// detectOrderBy captures "order(ed) by <field> [asc|desc]"
// A field that does not resolve to a canonical name is dropped
func detectOrderBy(ctx *matchContext) *models.OrderBy {
	m := orderByPattern.FindStringSubmatch(ctx.raw)
	if m == nil {
		return nil
	}

	field := mapping.NormalizeField(ctx.backend, m[1])
	if field == "" {
		field = mapping.NormalizeField(ctx.backend, lexer.Lemma(m[1]))
	}
	if field == "" {
		return nil
	}

	direction := mapping.DirectionAsc
	if strings.EqualFold(m[2], "desc") {
		direction = mapping.DirectionDesc
	}
	return &models.OrderBy{Field: field, Direction: direction}
}

// ============================================================================
// FILTERS
// ============================================================================

// detectFilters runs one scan per comparison operator, in order
// Each scan keys its condition by the literal word before the comparison;
// a later scan on the same word replaces the earlier condition
func detectFilters(ctx *matchContext) (models.Filters, error) {
	var filters models.Filters

	for _, op := range mapping.FilterOperators {
		m := filterPatterns[op].FindStringSubmatch(ctx.raw)
		if m == nil {
			continue
		}

		literal := strings.TrimRight(m[2], ".")
		value, err := strconv.ParseFloat(literal, 64)
		if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
			return nil, &MatchError{Err: ErrMalformedFilterValue, Input: ctx.input, Value: m[2]}
		}
		filters.Set(m[1], op, value)
	}

	return filters, nil
}
