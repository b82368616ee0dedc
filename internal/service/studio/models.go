package studio

import (
	"github.com/raveai/server/internal/domain"
	"github.com/raveai/server/pkg/ytvideodata"
)

type Deck struct {
	Deck     int    `json:"deck"`
	URL      string `json:"url"`
	VideoID  string `json:"video_id"`
	EmbedURL string `json:"embed_url"`
}

type Volume struct {
	Volume      int     `json:"volume"`
	EmbedVolume float64 `json:"embed_volume"`
}

type Selection struct {
	SelectedTrackIDs []string `json:"selected_track_ids"`
}

type MashupProgress struct {
	Percent int `json:"percent"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

type Resolution struct {
	VideoID  string `json:"video_id"`
	Matched  bool   `json:"matched"`
	EmbedURL string `json:"embed_url,omitempty"`
}

func deckFromState(state domain.State, i int) Deck {
	d := state.Decks[i]
	out := Deck{
		Deck:    i,
		URL:     d.URL,
		VideoID: d.VideoID,
	}
	if d.Loaded() {
		out.EmbedURL = ytvideodata.WatchURL(d.VideoID)
	}

	return out
}

func volumeFromState(state domain.State) Volume {
	return Volume{
		Volume:      state.Volume,
		EmbedVolume: state.EmbedVolume(),
	}
}
