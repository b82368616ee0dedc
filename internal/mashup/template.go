package mashup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raveai/server/internal/domain"
)

const (
	FixedDuration = "4:20"
	titleSuffix   = " (Rave.AI Mix)"
	progressSteps = 10
)

// TemplateSynthesizer waits a fixed delay, reporting progress in even steps,
// and fills the record from string templates.
type TemplateSynthesizer struct {
	delay time.Duration
	steps int
}

func NewTemplateSynthesizer(delay time.Duration) *TemplateSynthesizer {
	return &TemplateSynthesizer{
		delay: delay,
		steps: progressSteps,
	}
}

func (s *TemplateSynthesizer) Synthesize(ctx context.Context, tracks []domain.Track, progress ProgressFunc) (Synthesis, error) {
	if len(tracks) < domain.MinMashupTracks {
		return Synthesis{}, ErrNotEnoughTracks
	}

	if progress == nil {
		progress = func(int) {}
	}

	progress(0)
	if interval := s.delay / time.Duration(s.steps); interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for step := 1; step <= s.steps; step++ {
			select {
			case <-ctx.Done():
				return Synthesis{}, ctx.Err()
			case <-ticker.C:
				progress(step * 100 / s.steps)
			}
		}
	} else {
		progress(100)
	}

	return Synthesis{
		Title:       Title(tracks),
		Duration:    FixedDuration,
		Suggestions: Suggestions(tracks),
	}, nil
}

func Title(tracks []domain.Track) string {
	titles := make([]string, 0, len(tracks))
	for _, t := range tracks {
		titles = append(titles, t.Title)
	}

	return strings.Join(titles, " x ") + titleSuffix
}

// Suggestions returns mixing hints for the first two tracks.
func Suggestions(tracks []domain.Track) []string {
	if len(tracks) < 2 {
		return nil
	}
	a, b := tracks[0], tracks[1]

	suggestions := make([]string, 0, 4)

	diff := a.BPM - b.BPM
	if diff < 0 {
		diff = -diff
	}
	if diff <= 5 {
		suggestions = append(suggestions, fmt.Sprintf("Tempos are within %d BPM: beatmatch %s and %s directly.", diff, a.Title, b.Title))
	} else {
		slow, fast := a, b
		if slow.BPM > fast.BPM {
			slow, fast = fast, slow
		}
		suggestions = append(suggestions, fmt.Sprintf("Stretch %s from %d to %d BPM to lock the groove with %s.", slow.Title, slow.BPM, fast.BPM, fast.Title))
	}

	if a.Key == b.Key {
		suggestions = append(suggestions, fmt.Sprintf("Both tracks sit in %s: layer the vocals freely.", a.Key))
	} else {
		suggestions = append(suggestions, fmt.Sprintf("Transpose %s from %s to %s for a harmonic blend.", b.Title, b.Key, a.Key))
	}

	suggestions = append(suggestions,
		fmt.Sprintf("Drop the %s hook of %s over the %s breakdown of %s.", a.Genre, a.Title, b.Genre, b.Title),
		"Add a 16-bar build before the first drop.",
	)

	return suggestions
}
