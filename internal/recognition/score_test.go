package recognition

import "testing"

func TestScoreMatchBuckets(t *testing.T) {
	tests := []struct {
		name   string
		entity string
		title  string
		score  float64
		want   int
	}{
		{name: "raw equality", entity: "Inception", title: "inception", want: ScorePerfect},
		{name: "article stripped", entity: "Dark Knight", title: "The Dark Knight", want: ScorePerfect},
		{name: "leading a", entity: "A Quiet Place", title: "quiet place", want: ScorePerfect},
		{name: "entity inside title", entity: "Fury Road", title: "Mad Max: Fury Road", want: ScoreContainedInTitle},
		{name: "short entity inside title", entity: "Road", title: "Mad Max: Fury Road", score: 0.4, want: 0},
		{name: "title inside entity", entity: "Interstellar IMAX poster", title: "Interstellar", want: ScoreContainsTitle},
		{name: "short title inside entity", entity: "Tom Hanks", title: "Tom", score: 7, want: 1},
		{name: "unrelated", entity: "Christopher Nolan", title: "Following", score: 0.7, want: 0},
		{name: "negative score", entity: "x", title: "y", score: -2, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreMatch(tt.entity, tt.title, tt.score, DefaultMinSubstringLength); got != tt.want {
				t.Fatalf("scoreMatch(%q, %q) = %d, want %d", tt.entity, tt.title, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct{ input, want string }{
		{"  The Matrix ", "matrix"},
		{"A Few Good Men", "few good men"},
		{"Theodore", "theodore"},
		{"ÉCOLE", "école"},
	}
	for _, tc := range cases {
		if got := normalizeTitle(tc.input); got != tc.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestStopWordPunctuation(t *testing.T) {
	set := newTermSet(defaultStopWords, nil)
	for _, word := range []string{"STARRING:", "Presents", "&", "(directed"} {
		if !set.has(foldTerm(stripWordPunctuation(word))) {
			t.Errorf("expected %q to be a stop word", word)
		}
	}
	if set.has(foldTerm(stripWordPunctuation("Runner"))) {
		t.Error("Runner should not be a stop word")
	}
}
