package titlesearch

import "strings"

const (
	maxQueryLength = 100
	maxQueryWords  = 10
)

// CleanQuery flattens line breaks and shortens very long queries to their
// first words, which TMDB otherwise rejects or matches poorly.
func CleanQuery(query string) string {
	cleaned := strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(query))
	if len(cleaned) <= maxQueryLength {
		return cleaned
	}
	words := strings.Fields(cleaned)
	if len(words) > maxQueryWords {
		words = words[:maxQueryWords]
	}
	return strings.Join(words, " ")
}
