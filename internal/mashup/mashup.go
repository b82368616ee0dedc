// Package mashup synthesizes the mock mashup records: a title, a fixed
// duration and a few mixing suggestions. No audio is processed.
package mashup

import (
	"context"
	"errors"

	"github.com/raveai/server/internal/domain"
)

var ErrNotEnoughTracks = errors.New("at least 2 tracks are required")

type Synthesis struct {
	Title       string
	Duration    string
	Suggestions []string
}

// ProgressFunc receives processing progress in percent, 0 to 100.
type ProgressFunc func(percent int)

type Synthesizer interface {
	Synthesize(ctx context.Context, tracks []domain.Track, progress ProgressFunc) (Synthesis, error)
}
