package recognition

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// defaultGenericTerms are web entity labels that describe what the image is
// rather than which title it shows. Matching is exact on the lowercased,
// trimmed entity text, so "action film" is not excluded by "action".
var defaultGenericTerms = []string{
	"video",
	"film",
	"films",
	"movie",
	"movies",
	"cinema",
	"poster",
	"movie poster",
	"film poster",
	"trailer",
	"actor",
	"actress",
	"film director",
	"director",
	"screenplay",
	"hollywood",
	"celebrity",
	"drama",
	"action",
	"comedy",
	"thriller",
	"horror",
	"romance",
	"adventure",
	"fantasy",
	"animation",
	"documentary",
	"science fiction",
	"television",
	"television show",
	"tv series",
	"image",
	"photograph",
	"album cover",
	"book cover",
	"graphic design",
	"font",
	"text",
	"logo",
	"brand",
}

// defaultStopWords may not open an OCR window. Credit-block filler dominates
// poster text and would otherwise resolve to arbitrary titles.
var defaultStopWords = []string{
	"a",
	"an",
	"the",
	"of",
	"and",
	"or",
	"in",
	"on",
	"at",
	"to",
	"for",
	"with",
	"by",
	"from",
	"is",
	"&",
	"starring",
	"presents",
	"present",
	"presented",
	"directed",
	"written",
	"produced",
	"producer",
	"executive",
	"music",
	"screenplay",
	"based",
	"pictures",
	"studios",
	"studio",
	"production",
	"productions",
	"entertainment",
	"films",
	"film",
	"coming",
	"soon",
	"only",
	"theaters",
	"official",
	"selection",
}

type termSet map[string]struct{}

func newTermSet(base []string, extra []string) termSet {
	set := make(termSet, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, term := range list {
			if key := foldTerm(term); key != "" {
				set[key] = struct{}{}
			}
		}
	}
	return set
}

func (s termSet) has(value string) bool {
	_, ok := s[value]
	return ok
}

func foldTerm(value string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(value))
}

// normalizeTitle lowercases, trims and drops one leading article so that
// "The Dark Knight" and "dark knight" compare equal.
func normalizeTitle(value string) string {
	folded := foldTerm(value)
	for _, article := range []string{"the ", "a "} {
		if strings.HasPrefix(folded, article) {
			return strings.TrimSpace(strings.TrimPrefix(folded, article))
		}
	}
	return folded
}

// stripWordPunctuation removes punctuation around an OCR token so "STARRING:"
// still counts as a stop word.
func stripWordPunctuation(word string) string {
	trimmed := strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if trimmed == "" {
		return word
	}
	return trimmed
}
