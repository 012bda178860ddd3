package ranking

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var pathSeparators = strings.NewReplacer("/", " ", "\\", " ")

// TokenizeCandidate splits a candidate representation into terms. Path
// separators become spaces so each directory and file name is its own term.
func TokenizeCandidate(text string) []string {
	return words(pathSeparators.Replace(text))
}

// TokenizeQuery splits a query into terms.
func TokenizeQuery(text string) []string {
	return words(text)
}

// words lower-cases, NFKC-normalizes and returns maximal runs of letters,
// digits and underscores. Everything else separates terms.
func words(text string) []string {
	text = norm.NFKC.String(strings.ToLower(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
