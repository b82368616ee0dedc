package domain

const MaxProgress = 100.0

// Playback is the simulated telemetry of a session: a playing flag and a
// progress percentage advanced by ticks.
type Playback struct {
	IsPlaying bool    `json:"is_playing"`
	Progress  float64 `json:"progress"`
}

// Toggle flips between playing and stopped. Progress is kept.
func (p Playback) Toggle() Playback {
	p.IsPlaying = !p.IsPlaying
	return p
}

// Tick advances progress by step while playing. Reaching MaxProgress stops
// playback and resets progress to 0 in the same tick.
func (p Playback) Tick(step float64) Playback {
	if !p.IsPlaying {
		return p
	}

	p.Progress += step
	if p.Progress >= MaxProgress {
		p.Progress = 0
		p.IsPlaying = false
	}

	return p
}
