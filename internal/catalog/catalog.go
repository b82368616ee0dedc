// Package catalog holds the fixture tracks offered for mashups.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/raveai/server/internal/domain"
	"github.com/raveai/server/pkg/validator"
)

var (
	ErrTrackNotFound = errors.New("track not found")
	ErrEmptyCatalog  = errors.New("catalog has no tracks")
	ErrDuplicateID   = errors.New("duplicate track id")
)

//go:embed tracks.yaml
var defaultTracks []byte

type file struct {
	Tracks []domain.Track `yaml:"tracks"`
}

type Catalog struct {
	mu       sync.RWMutex
	tracks   []domain.Track
	byID     map[string]domain.Track
	validate *validator.Validator
	logger   *slog.Logger
}

// New returns a catalog loaded with the embedded fixture tracks.
func New(logger *slog.Logger) (*Catalog, error) {
	c := &Catalog{
		validate: validator.NewValidator(),
		logger:   logger,
	}

	tracks, err := c.parse(defaultTracks)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded tracks: %w", err)
	}
	c.set(tracks)

	return c, nil
}

// LoadFile replaces the tracks with those in path. On error the current
// tracks are kept.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	tracks, err := c.parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	c.set(tracks)

	c.logger.Info("catalog loaded", "path", path, "tracks", len(tracks))
	return nil
}

func (c *Catalog) parse(data []byte) ([]domain.Track, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}

	if len(f.Tracks) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]struct{}, len(f.Tracks))
	for i, track := range f.Tracks {
		if errs, ok := c.validate.Validate(track); !ok {
			return nil, fmt.Errorf("track %d: %w", i, errs[0])
		}
		if _, ok := seen[track.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, track.ID)
		}
		seen[track.ID] = struct{}{}
	}

	return f.Tracks, nil
}

func (c *Catalog) set(tracks []domain.Track) {
	byID := make(map[string]domain.Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tracks = tracks
	c.byID = byID
}

func (c *Catalog) List() []domain.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

func (c *Catalog) Get(id string) (domain.Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	track, ok := c.byID[id]
	if !ok {
		return domain.Track{}, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}

	return track, nil
}

// Lookup returns the tracks for ids in the same order.
func (c *Catalog) Lookup(ids []string) ([]domain.Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tracks := make([]domain.Track, 0, len(ids))
	for _, id := range ids {
		track, ok := c.byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}
