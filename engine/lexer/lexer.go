package lexer

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Token is one word of a question
type Token struct {
	Value    string // Case-folded surface form
	Position int    // Rune offset in the folded input
}

// Tokenizer splits folded text into word tokens
type Tokenizer struct {
	input  []rune
	pos    int
	tokens []Token
}

// Fold applies NFC normalization and Unicode case folding
func Fold(text string) string {
	return cases.Fold().String(norm.NFC.String(text))
}

// Tokenize folds the input and returns its word tokens in order
// Letters, digits, underscores and inner apostrophes form words; everything else separates them
func Tokenize(text string) []Token {
	t := &Tokenizer{input: []rune(Fold(text))}
	return t.tokenize()
}

func (t *Tokenizer) tokenize() []Token {
	for t.pos < len(t.input) {
		ch := t.input[t.pos]
		if isWordRune(ch) {
			t.tokens = append(t.tokens, t.scanWord())
			continue
		}
		t.pos++
	}
	return t.tokens
}

func (t *Tokenizer) scanWord() Token {
	start := t.pos
	for t.pos < len(t.input) {
		ch := t.input[t.pos]
		if isWordRune(ch) {
			t.pos++
			continue
		}
		// Keep decimals (2.5) and contractions (don't) together
		if (ch == '.' || ch == '\'') && t.pos+1 < len(t.input) && t.pos > start {
			prev, next := t.input[t.pos-1], t.input[t.pos+1]
			if ch == '.' && unicode.IsDigit(prev) && unicode.IsDigit(next) {
				t.pos++
				continue
			}
			if ch == '\'' && unicode.IsLetter(prev) && unicode.IsLetter(next) {
				t.pos++
				continue
			}
		}
		break
	}
	return Token{Value: string(t.input[start:t.pos]), Position: start}
}

func isWordRune(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// Lemma reduces a word to its singular base form
// Numbers and identifiers with underscores are returned unchanged
func Lemma(word string) string {
	if !startsWithLetter(word) || strings.Contains(word, "_") {
		return word
	}
	return inflection.Singular(word)
}

// Normalize returns the lemmatized, stop-word-free tokens of a question
func Normalize(text string) []string {
	tokens := Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if IsStopWord(tok.Value) {
			continue
		}
		out = append(out, Lemma(tok.Value))
	}
	return out
}

// LemmaText lemmatizes every word, keeping stop words, and joins them with single spaces
func LemmaText(text string) string {
	tokens := Tokenize(text)
	words := make([]string, len(tokens))
	for i, tok := range tokens {
		words[i] = Lemma(tok.Value)
	}
	return strings.Join(words, " ")
}
