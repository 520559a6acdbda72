package recognition

import (
	"math"
	"strings"
	"unicode/utf8"
)

// scoreMatch buckets how a web entity relates to the title it resolved to.
// minLen guards the substring buckets against trivial fragments.
func scoreMatch(entityText, title string, entityScore float64, minLen int) int {
	rawEntity := foldTerm(entityText)
	rawTitle := foldTerm(title)
	entity := normalizeTitle(entityText)
	normalized := normalizeTitle(title)

	if rawEntity != "" && rawEntity == rawTitle {
		return ScorePerfect
	}
	if entity != "" && entity == normalized {
		return ScorePerfect
	}
	if entity != "" && normalized != "" {
		if utf8.RuneCountInString(entity) > minLen && strings.Contains(normalized, entity) {
			return ScoreContainedInTitle
		}
		if utf8.RuneCountInString(normalized) > minLen && strings.Contains(entity, normalized) {
			return ScoreContainsTitle
		}
	}
	return weakScore(entityScore)
}

func weakScore(entityScore float64) int {
	if math.IsNaN(entityScore) || entityScore <= 0 {
		return 0
	}
	if entityScore >= 1 {
		return 1
	}
	return int(entityScore)
}
