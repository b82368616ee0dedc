package domain

import (
	"errors"
	"fmt"
	"slices"
)

const (
	DefaultVolume = 75
	maxVolume     = 100
)

var (
	ErrInvalidDeck   = errors.New("invalid deck")
	ErrInvalidVolume = errors.New("volume must be between 0 and 100")
	ErrUnknownAction = errors.New("unknown action")
	ErrEmptyTrackID  = errors.New("empty track id")
)

// State is everything a session shows. It changes only through Reduce.
type State struct {
	SessionID        string          `json:"session_id"`
	Decks            [DeckCount]Deck `json:"decks"`
	Playback         Playback        `json:"playback"`
	Volume           int             `json:"volume"`
	SelectedTrackIDs []string        `json:"selected_track_ids"`
	// Revision grows by one with every stored change.
	Revision         int64           `json:"revision"`
	UpdatedAt        int64           `json:"updated_at"`
}

func NewState(sessionID string, deckURLs [DeckCount]string) State {
	s := State{
		SessionID:        sessionID,
		Volume:           DefaultVolume,
		SelectedTrackIDs: []string{},
	}
	for i, url := range deckURLs {
		s.Decks[i] = NewDeck(url)
	}

	return s
}

type Action interface {
	action()
}

type SetDeckURL struct {
	Deck int
	URL  string
}

type TogglePlayback struct{}

type Tick struct {
	Step float64
}

type SetVolume struct {
	Volume int
}

// ToggleTrack adds TrackID to the selection, or removes it if already selected.
type ToggleTrack struct {
	TrackID string
}

func (SetDeckURL) action()     {}
func (TogglePlayback) action() {}
func (Tick) action()           {}
func (SetVolume) action()      {}
func (ToggleTrack) action()    {}

// Reduce returns the state that results from applying a to s. s is not
// modified; on error the returned state equals s.
func Reduce(s State, a Action) (State, error) {
	switch a := a.(type) {
	case SetDeckURL:
		if a.Deck < 0 || a.Deck >= DeckCount {
			return s, fmt.Errorf("%w: %d", ErrInvalidDeck, a.Deck)
		}
		s.Decks[a.Deck] = NewDeck(a.URL)
	case TogglePlayback:
		s.Playback = s.Playback.Toggle()
	case Tick:
		s.Playback = s.Playback.Tick(a.Step)
	case SetVolume:
		if a.Volume < 0 || a.Volume > maxVolume {
			return s, ErrInvalidVolume
		}
		s.Volume = a.Volume
	case ToggleTrack:
		if a.TrackID == "" {
			return s, ErrEmptyTrackID
		}
		s.SelectedTrackIDs = toggle(s.SelectedTrackIDs, a.TrackID)
	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}

	return s, nil
}

func toggle(ids []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	if i := slices.Index(ids, id); i >= 0 {
		out = append(out, ids[:i]...)
		return append(out, ids[i+1:]...)
	}

	out = append(out, ids...)
	return append(out, id)
}

// EmbedVolume is the volume handed to the embedded player, in [0,1].
func (s State) EmbedVolume() float64 {
	return float64(s.Volume) / float64(maxVolume)
}
