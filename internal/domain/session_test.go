package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateResolvesDefaults(t *testing.T) {
	s := NewState("s1", DefaultDeckURLs)

	assert.Equal(t, "dQw4w9WgXcQ", s.Decks[0].VideoID)
	assert.Equal(t, "3YxaaGgTQYM", s.Decks[1].VideoID)
	assert.Equal(t, DefaultVolume, s.Volume)
	assert.False(t, s.Playback.IsPlaying)
	assert.NotNil(t, s.SelectedTrackIDs)
}

func TestReduceSetDeckURL(t *testing.T) {
	s := NewState("s1", DefaultDeckURLs)

	s, err := Reduce(s, SetDeckURL{Deck: 1, URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", s.Decks[1].VideoID)
	assert.True(t, s.Decks[1].Loaded())

	s, err = Reduce(s, SetDeckURL{Deck: 1, URL: "not a url"})
	require.NoError(t, err, "unparseable input is not an error")
	assert.Equal(t, "not a url", s.Decks[1].URL)
	assert.Empty(t, s.Decks[1].VideoID)
	assert.False(t, s.Decks[1].Loaded())
	assert.Equal(t, "dQw4w9WgXcQ", s.Decks[0].VideoID, "other deck untouched")
}

func TestReduceSetDeckURLInvalidDeck(t *testing.T) {
	s := NewState("s1", DefaultDeckURLs)

	for _, deck := range []int{-1, DeckCount} {
		got, err := Reduce(s, SetDeckURL{Deck: deck, URL: "x"})
		assert.ErrorIs(t, err, ErrInvalidDeck)
		assert.Equal(t, s, got)
	}
}

func TestReduceTogglePlaybackAndTick(t *testing.T) {
	s := NewState("s1", DefaultDeckURLs)

	s, _ = Reduce(s, TogglePlayback{})
	require.True(t, s.Playback.IsPlaying)

	s, _ = Reduce(s, Tick{Step: 0.5})
	s, _ = Reduce(s, Tick{Step: 0.5})
	assert.Equal(t, 1.0, s.Playback.Progress)

	s, _ = Reduce(s, TogglePlayback{})
	assert.False(t, s.Playback.IsPlaying)
	assert.Equal(t, 1.0, s.Playback.Progress)
}

func TestReduceSetVolume(t *testing.T) {
	s := NewState("s1", DefaultDeckURLs)

	s, err := Reduce(s, SetVolume{Volume: 30})
	require.NoError(t, err)
	assert.Equal(t, 30, s.Volume)
	assert.InDelta(t, 0.3, s.EmbedVolume(), 1e-9)

	got, err := Reduce(s, SetVolume{Volume: 101})
	assert.ErrorIs(t, err, ErrInvalidVolume)
	assert.Equal(t, 30, got.Volume)
}

func TestReduceToggleTrackDoesNotAlias(t *testing.T) {
	s := NewState("s1", DefaultDeckURLs)

	a, err := Reduce(s, ToggleTrack{TrackID: "t1"})
	require.NoError(t, err)
	b, _ := Reduce(a, ToggleTrack{TrackID: "t2"})
	c, _ := Reduce(b, ToggleTrack{TrackID: "t1"})

	assert.Empty(t, s.SelectedTrackIDs)
	assert.Equal(t, []string{"t1"}, a.SelectedTrackIDs)
	assert.Equal(t, []string{"t1", "t2"}, b.SelectedTrackIDs)
	assert.Equal(t, []string{"t2"}, c.SelectedTrackIDs)

	_, err = Reduce(s, ToggleTrack{})
	assert.ErrorIs(t, err, ErrEmptyTrackID)
}

type bogusAction struct{ Action }

func TestReduceUnknownAction(t *testing.T) {
	_, err := Reduce(State{}, bogusAction{})
	assert.ErrorIs(t, err, ErrUnknownAction)
}
