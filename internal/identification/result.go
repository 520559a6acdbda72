package identification

import (
	"strings"

	"cinescan/internal/audd"
	"cinescan/internal/recognition"
	"cinescan/internal/tmdb"
)

// Kind names the input a recognition started from.
type Kind string

const (
	KindImage  Kind = "image"
	KindAudio  Kind = "audio"
	KindVideo  Kind = "video"
	KindSearch Kind = "search"
)

// Source tags for flows that bypass the candidate resolver.
const (
	SourceAudio  = "audio"
	SourceSearch = "search"
)

// CastCredit is one billed performer.
type CastCredit struct {
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
}

// Movie is the movie payload returned to clients.
type Movie struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	OriginalTitle string       `json:"original_title,omitempty"`
	ReleaseDate   string       `json:"release_date,omitempty"`
	Year          string       `json:"year,omitempty"`
	Overview      string       `json:"overview,omitempty"`
	Tagline       string       `json:"tagline,omitempty"`
	PosterPath    string       `json:"poster_path,omitempty"`
	BackdropPath  string       `json:"backdrop_path,omitempty"`
	Runtime       int          `json:"runtime,omitempty"`
	IMDbID        string       `json:"imdb_id,omitempty"`
	Popularity    float64      `json:"popularity,omitempty"`
	VoteAverage   float64      `json:"vote_average,omitempty"`
	Genres        []string     `json:"genres,omitempty"`
	Directors     []string     `json:"directors,omitempty"`
	Cast          []CastCredit `json:"cast,omitempty"`
}

// Result is the outcome of one recognition request.
type Result struct {
	Success    bool                    `json:"success"`
	Kind       Kind                    `json:"kind"`
	Source     string                  `json:"source,omitempty"`
	Movie      *Movie                  `json:"movie"`
	Error      string                  `json:"error,omitempty"`
	Query      string                  `json:"query,omitempty"`
	Song       *audd.Song              `json:"song,omitempty"`
	Candidates []recognition.Candidate `json:"candidates,omitempty"`
	RequestID  string                  `json:"request_id,omitempty"`
}

const castLimit = 10

func movieFromMatch(title *recognition.MatchedTitle) *Movie {
	if title == nil {
		return nil
	}
	return &Movie{
		ID:            title.ID,
		Title:         title.Title,
		OriginalTitle: title.OriginalTitle,
		ReleaseDate:   title.ReleaseDate,
		Year:          releaseYear(title.ReleaseDate),
		Overview:      title.Overview,
		PosterPath:    title.PosterPath,
		Popularity:    title.Popularity,
		VoteAverage:   title.VoteAverage,
	}
}

func movieFromDetails(details *tmdb.MovieDetails) *Movie {
	movie := &Movie{
		ID:            details.ID,
		Title:         details.Title,
		OriginalTitle: details.OriginalTitle,
		ReleaseDate:   details.ReleaseDate,
		Year:          releaseYear(details.ReleaseDate),
		Overview:      details.Overview,
		Tagline:       details.Tagline,
		PosterPath:    details.PosterPath,
		BackdropPath:  details.BackdropPath,
		Runtime:       details.Runtime,
		IMDbID:        details.IMDbID,
		Popularity:    details.Popularity,
		VoteAverage:   details.VoteAverage,
		Directors:     details.Directors(),
	}
	for _, genre := range details.Genres {
		movie.Genres = append(movie.Genres, genre.Name)
	}
	for _, member := range details.TopCast(castLimit) {
		movie.Cast = append(movie.Cast, CastCredit{Name: member.Name, Character: member.Character})
	}
	return movie
}

func releaseYear(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}
