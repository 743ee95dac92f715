package parser

import (
	"fmt"

	"github.com/omniql-engine/nlq/engine/extractor"
	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

// rule is one step of the cascade: a trigger predicate and an intent builder
type rule struct {
	name         string
	trigger      func(*matchContext) bool
	build        func(*matchContext) (*models.Intent, error)
	readsFilters bool
}

// cascade returns the rules in precedence order
func cascade() []rule {
	builders := map[string]rule{
		// customer details is a fixed join: no fields, no filters
		mapping.RuleCustomerDetails: {trigger: phraseTrigger(mapping.RuleCustomerDetails), build: buildCustomerDetails},
		mapping.RuleImplicitJoin:    {trigger: implicitJoinTrigger, build: buildImplicitJoin, readsFilters: true},
		mapping.RuleSum:             {trigger: phraseTrigger(mapping.RuleSum), build: buildAggregate(mapping.FuncSum, true), readsFilters: true},
		mapping.RuleAverage:         {trigger: phraseTrigger(mapping.RuleAverage), build: buildAggregate(mapping.FuncAverage, false), readsFilters: true},
		mapping.RuleCount:           {trigger: phraseTrigger(mapping.RuleCount), build: buildCount, readsFilters: true},
		mapping.RuleSelect:          {trigger: phraseTrigger(mapping.RuleSelect), build: buildSelect, readsFilters: true},
		mapping.RuleMaximum:         {trigger: extremumTrigger(mapping.RuleMaximum), build: buildAggregate(mapping.FuncMax, false), readsFilters: true},
		mapping.RuleMinimum:         {trigger: extremumTrigger(mapping.RuleMinimum), build: buildAggregate(mapping.FuncMin, false), readsFilters: true},
	}

	rules := make([]rule, 0, len(mapping.RuleOrder))
	for _, name := range mapping.RuleOrder {
		r, ok := builders[name]
		if !ok {
			panic(fmt.Sprintf("parser: no builder for rule '%s'", name))
		}
		r.name = name
		rules = append(rules, r)
	}
	return rules
}

// ============================================================================
// TRIGGERS
// ============================================================================

func phraseTrigger(name string) func(*matchContext) bool {
	return func(ctx *matchContext) bool {
		return triggerPatterns[name].MatchString(ctx.raw)
	}
}

// extremumTrigger fires only when there is something numeric to compare
func extremumTrigger(name string) func(*matchContext) bool {
	return func(ctx *matchContext) bool {
		return len(ctx.aggregateFields) > 0 && triggerPatterns[name].MatchString(ctx.raw)
	}
}

// implicitJoinTrigger fires when the tokens name fields of both join groups
func implicitJoinTrigger(ctx *matchContext) bool {
	primary, secondary := joinMatches(ctx)
	return len(primary) > 0 && len(secondary) > 0
}

func joinMatches(ctx *matchContext) (primary, secondary []string) {
	spec, ok := mapping.JoinGroups[ctx.backend]
	if !ok {
		return nil, nil
	}

	tokens := make(map[string]bool, len(ctx.tokens))
	for _, t := range ctx.tokens {
		tokens[t] = true
	}
	for _, f := range spec.Primary.Fields {
		if tokens[f] {
			primary = append(primary, f)
		}
	}
	for _, f := range spec.Secondary.Fields {
		if tokens[f] {
			secondary = append(secondary, f)
		}
	}
	return primary, secondary
}

// ============================================================================
// BUILDERS
// ============================================================================

// buildCustomerDetails joins the facts with the full customer record
func buildCustomerDetails(ctx *matchContext) (*models.Intent, error) {
	spec := mapping.JoinGroups[ctx.backend]
	intent := &models.Intent{
		Operation: mapping.OpJoin,
		Table:     spec.Primary.Table,
		Join: &models.Join{
			Table: spec.Secondary.Table,
			On:    joinOn(spec),
		},
	}

	if ctx.backend == mapping.Document {
		intent.Join.As = "customer_details"
		intent.Join.Unwind = true
		return intent, nil
	}

	intent.Join.Columns = []string{spec.Primary.Table + ".*"}
	for _, f := range []string{"user_name", "user_email"} {
		intent.Join.Columns = append(intent.Join.Columns, spec.Secondary.Table+"."+f)
	}
	return intent, nil
}

// buildImplicitJoin projects the matched fields of both groups
func buildImplicitJoin(ctx *matchContext) (*models.Intent, error) {
	spec := mapping.JoinGroups[ctx.backend]
	primary, secondary := joinMatches(ctx)

	matched := append(append([]string{}, primary...), secondary...)
	mapping.SortCanonical(ctx.backend, matched)

	columns := make([]string, len(matched))
	for i, f := range matched {
		columns[i] = mapping.GroupOf(ctx.backend, f) + "." + f
	}

	return &models.Intent{
		Operation: mapping.OpJoin,
		Table:     spec.Primary.Table,
		Fields:    matched,
		Filters:   ctx.filters,
		Join: &models.Join{
			Table:   spec.Secondary.Table,
			On:      joinOn(spec),
			As:      spec.As,
			Columns: columns,
		},
	}, nil
}

// buildAggregate builds an aggregate intent for one function
// With required set, a missing numeric target is an error; otherwise the
// intent carries no target and lowering decides
func buildAggregate(function string, required bool) func(*matchContext) (*models.Intent, error) {
	return func(ctx *matchContext) (*models.Intent, error) {
		target := aggregateTarget(ctx.backend, ctx.aggregateFields)
		if target == nil && required {
			return nil, ErrMissingAggregateTarget
		}

		return &models.Intent{
			Operation: mapping.OpAggregate,
			Table:     extractor.Table(ctx.input),
			Fields:    ctx.fields,
			Aggregate: &models.Aggregation{Function: function, Target: target},
			GroupBy:   ctx.groupBy,
			OrderBy:   ctx.orderBy,
			Filters:   ctx.filters,
		}, nil
	}
}

func buildCount(ctx *matchContext) (*models.Intent, error) {
	return &models.Intent{
		Operation: mapping.OpCount,
		Table:     extractor.Table(ctx.input),
		Fields:    ctx.fields,
		Filters:   ctx.filters,
	}, nil
}

func buildSelect(ctx *matchContext) (*models.Intent, error) {
	op := mapping.OpSelectAll
	if ctx.backend == mapping.Document {
		op = mapping.OpFindAll
		if len(ctx.filters) > 0 {
			op = mapping.OpFind
		}
	}

	return &models.Intent{
		Operation: op,
		Table:     extractor.Table(ctx.input),
		Fields:    ctx.fields,
		OrderBy:   ctx.orderBy,
		Filters:   ctx.filters,
	}, nil
}

// ============================================================================
// HELPERS
// ============================================================================

// aggregateTarget prefers the known product when both operands are eligible,
// else the first eligible field in canonical order
func aggregateTarget(backend string, eligible []string) *models.FieldExpression {
	if len(eligible) == 0 {
		return nil
	}

	product := mapping.Fields[backend].Product
	var hasLeft, hasRight bool
	for _, f := range eligible {
		hasLeft = hasLeft || f == product[0]
		hasRight = hasRight || f == product[1]
	}
	if hasLeft && hasRight {
		return models.NewProduct(product[0], product[1])
	}
	return models.NewField(eligible[0])
}

func joinOn(spec mapping.JoinSpec) string {
	return fmt.Sprintf("%s.%s = %s.%s", spec.Primary.Table, spec.Key, spec.Secondary.Table, spec.Key)
}
