package domain

const MinMashupTracks = 2

type Mashup struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Tracks      []Track  `json:"tracks"`
	Duration    string   `json:"duration"`
	Suggestions []string `json:"suggestions"`
	CreatedAt   int64    `json:"created_at"`
}
