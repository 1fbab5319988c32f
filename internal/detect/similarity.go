package detect

import (
	"strings"
	"unicode"
)

// stopwords excluded from similarity tokenization. Short function words
// dominate free text and would inflate overlap with any theme string.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "i": true, "in": true,
	"is": true, "it": true, "my": true, "of": true, "on": true, "or": true,
	"so": true, "that": true, "the": true, "to": true, "was": true,
	"with": true, "you": true,
}

// tokenize lowercases, strips non-letter runes, and drops stopwords.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		w := b.String()
		b.Reset()
		if len(w) < 2 || stopwords[w] {
			return
		}
		tokens[w] = true
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// themeSimilarity scores how strongly free text echoes a category's theme
// string: the share of theme tokens present in the text. Returns a value
// in [0, 1]; zero when either side has no usable tokens.
func themeSimilarity(freeText, theme string) float64 {
	themeTokens := tokenize(theme)
	if len(themeTokens) == 0 {
		return 0
	}
	textTokens := tokenize(freeText)
	if len(textTokens) == 0 {
		return 0
	}

	hits := 0
	for tok := range themeTokens {
		if textTokens[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(themeTokens))
}
