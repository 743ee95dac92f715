package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/omniql-engine/nlq/engine/lexer"
	"github.com/omniql-engine/nlq/mapping"
)

// Extraction contexts
const (
	ContextGeneral     = "general"
	ContextAggregation = "aggregation" // Keep numeric fields only
)

type synonymPattern struct {
	phrase  string // Lemmatized phrase
	pattern *regexp.Regexp
	target  mapping.SynonymTarget
}

type tablePattern struct {
	pattern *regexp.Regexp
	table   string
}

var (
	canonicalPatterns map[string][]*regexp.Regexp
	synonymPatterns   map[string][]synonymPattern
	tablePatterns     []tablePattern
)

func init() {
	canonicalPatterns = make(map[string][]*regexp.Regexp)
	synonymPatterns = make(map[string][]synonymPattern)

	for backend, catalog := range mapping.Fields {
		for _, field := range catalog.Canonical {
			canonicalPatterns[backend] = append(canonicalPatterns[backend], lexer.PhrasePattern(field))
		}

		// "sale" and "sales" share one lemma; keep the first expansion seen in phrase order
		seen := make(map[string]bool)
		var patterns []synonymPattern
		for _, phrase := range mapping.SynonymPhrases[backend] {
			lemma := lexer.LemmaText(phrase)
			if seen[lemma] {
				continue
			}
			seen[lemma] = true
			patterns = append(patterns, synonymPattern{
				phrase:  lemma,
				pattern: lexer.PhrasePattern(lemma),
				target:  mapping.SynonymTargets[backend][phrase],
			})
		}
		sort.SliceStable(patterns, func(i, j int) bool {
			if len(patterns[i].phrase) != len(patterns[j].phrase) {
				return len(patterns[i].phrase) > len(patterns[j].phrase)
			}
			return patterns[i].phrase < patterns[j].phrase
		})
		synonymPatterns[backend] = patterns
	}

	for _, phrase := range mapping.TablePhrases {
		tablePatterns = append(tablePatterns, tablePattern{
			pattern: lexer.PhrasePattern(phrase),
			table:   mapping.TableSynonyms[phrase],
		})
	}
}

// ============================================================================
// FIELDS
// ============================================================================

// Fields returns the canonical fields a question mentions, in canonical order
// Canonical names are matched first, then synonyms longest-first; a matched synonym
// hides its words from shorter synonyms. Returns nil when nothing matches.
func Fields(text, backend, context string) []string {
	catalog, ok := mapping.Fields[backend]
	if !ok {
		return nil
	}

	lowered := lexer.Fold(text)
	lemmas := lexer.LemmaText(text)
	found := make(map[string]bool)

	// Pass 1: canonical names
	for i, field := range catalog.Canonical {
		p := canonicalPatterns[backend][i]
		if p.MatchString(lowered) || p.MatchString(lemmas) {
			found[field] = true
		}
	}

	// Pass 2: synonyms
	masked := lemmas
	for _, sp := range synonymPatterns[backend] {
		if !sp.pattern.MatchString(masked) {
			continue
		}
		for _, field := range sp.target.Fields {
			found[field] = true
		}
		masked = sp.pattern.ReplaceAllStringFunc(masked, func(m string) string {
			return strings.Repeat(" ", len(m))
		})
	}

	var fields []string
	for _, field := range catalog.Canonical {
		if !found[field] {
			continue
		}
		if context == ContextAggregation && !mapping.IsNumeric(backend, field) {
			continue
		}
		fields = append(fields, field)
	}
	return fields
}

// ============================================================================
// TABLE
// ============================================================================

// Table returns the table or collection a question refers to
// Synonyms are tried longest-first on whole words, then each normalized token
// and its plural; the default table is returned when nothing matches.
func Table(text string) string {
	lowered := lexer.Fold(text)
	for _, tp := range tablePatterns {
		if tp.pattern.MatchString(lowered) {
			return tp.table
		}
	}

	for _, token := range lexer.Normalize(text) {
		if table, ok := mapping.TableSynonyms[token]; ok {
			return table
		}
		if table, ok := mapping.TableSynonyms[inflection.Plural(token)]; ok {
			return table
		}
	}

	return mapping.DefaultTable
}
