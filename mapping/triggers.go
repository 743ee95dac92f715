package mapping

// Intent rules, in cascade order
const (
	RuleCustomerDetails = "customer_details"
	RuleImplicitJoin    = "implicit_join"
	RuleSum             = "sum"
	RuleAverage         = "average"
	RuleCount           = "count"
	RuleMaximum         = "maximum"
	RuleMinimum         = "minimum"
	RuleSelect          = "select"
)

// RuleOrder is the cascade order; the first rule that fires wins
// Extremum rules come last so they only see questions nothing else claimed
var RuleOrder = []string{
	RuleCustomerDetails,
	RuleImplicitJoin,
	RuleSum,
	RuleAverage,
	RuleCount,
	RuleSelect,
	RuleMaximum,
	RuleMinimum,
}

// TriggerPhrases maps a rule to the phrases that fire it
// Phrases match on word boundaries; spaces match any whitespace
var TriggerPhrases = map[string][]string{
	RuleCustomerDetails: {"customer details"},
	RuleSum:             {"total sales amount", "total sales", "sum", "total amount"},
	RuleAverage:         {"average", "avg"},
	RuleCount:           {"how many", "count", "total number of", "number of"},
	RuleMaximum:         {"maximum", "max", "highest", "largest"},
	RuleMinimum:         {"minimum", "min", "lowest", "smallest"},
	RuleSelect:          {"show", "list", "get", "select", "find", "display"},
}

// GroupByCues signal that the question asks for a per-group result
var GroupByCues = []string{"each", "by"}

// OrderByPhrases introduce a sort field
var OrderByPhrases = []string{"order by", "ordered by", "sorted by", "sort by", "ordered"}

// Sort directions
const (
	DirectionAsc  = "ASC"
	DirectionDesc = "DESC"
)

// AllTriggerPhrases returns every trigger phrase, for suggestions
func AllTriggerPhrases() []string {
	var phrases []string
	for _, rule := range RuleOrder {
		phrases = append(phrases, TriggerPhrases[rule]...)
	}
	return phrases
}
