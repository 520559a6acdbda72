package history

import "time"

// Entry is one recorded recognition.
type Entry struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Source    string        `json:"source,omitempty"`
	Query     string        `json:"query,omitempty"`
	Title     string        `json:"title,omitempty"`
	TMDBID    int64         `json:"tmdb_id,omitempty"`
	Success   bool          `json:"success"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Stats summarizes the stored history.
type Stats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
}
