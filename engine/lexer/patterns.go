package lexer

import (
	"regexp"
	"strings"
	"unicode"
)

// PhrasePattern compiles a phrase into a whole-word regular expression
// Spaces in the phrase match any run of whitespace
func PhrasePattern(phrase string) *regexp.Regexp {
	return regexp.MustCompile(PhraseExpr(phrase))
}

// PhraseExpr returns the regular expression source for a phrase
func PhraseExpr(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	expr := strings.Join(words, `\s+`)

	runes := []rune(phrase)
	if len(runes) > 0 && isWordRune(runes[0]) {
		expr = `\b` + expr
	}
	if len(runes) > 0 && isWordRune(runes[len(runes)-1]) {
		expr += `\b`
	}
	return expr
}

// AlternationExpr joins phrases into one non-capturing alternation
func AlternationExpr(phrases []string) string {
	parts := make([]string, len(phrases))
	for i, p := range phrases {
		parts[i] = PhraseExpr(p)
	}
	return "(?:" + strings.Join(parts, "|") + ")"
}

// startsWithLetter reports whether a word begins with a letter
func startsWithLetter(word string) bool {
	for _, r := range word {
		return unicode.IsLetter(r)
	}
	return false
}
