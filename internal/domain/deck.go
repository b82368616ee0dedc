package domain

import "github.com/raveai/server/pkg/ytvideodata"

const DeckCount = 2

var DefaultDeckURLs = [DeckCount]string{
	"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	"https://www.youtube.com/watch?v=3YxaaGgTQYM",
}

// Deck holds the text a user pasted and the video id resolved from it.
// VideoID is empty when the text has no known YouTube URL shape.
type Deck struct {
	URL     string `json:"url"`
	VideoID string `json:"video_id"`
}

func NewDeck(url string) Deck {
	videoID, _ := ytvideodata.ExtractID(url)
	return Deck{
		URL:     url,
		VideoID: videoID,
	}
}

func (d Deck) Loaded() bool {
	return d.VideoID != ""
}
