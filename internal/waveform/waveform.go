// Package waveform draws the decorative deck visualizer. Bar heights are a
// closed-form function of time, the playing flag and progress; no audio is
// read.
package waveform

import (
	"math"
	"time"
)

const (
	DefaultBarCount = 32
	DefaultWidth    = 320
	DefaultHeight   = 64
)

type Frame struct {
	Time      time.Time `json:"-"`
	IsPlaying bool      `json:"is_playing"`
	Progress  float64   `json:"progress"`
	// Bars are heights as a fraction of the surface height. Values may
	// exceed 1 and are clipped when rendered.
	Bars []float64 `json:"bars"`
}

// Heights returns barCount bar heights for a surface of the given height.
func Heights(t time.Time, isPlaying bool, progress, height float64, barCount int) []float64 {
	ts := float64(t.UnixMilli()) * 0.001
	lit := progress / 100 * float64(barCount)

	bars := make([]float64, barCount)
	for i := range bars {
		frequency := float64(i+1) * 0.5
		h := math.Sin(ts*frequency)*(height*0.3) + height*0.2

		if isPlaying {
			h += math.Sin(ts*10+float64(i)*0.5) * (height * 0.2)
		}

		if float64(i) < lit {
			h *= 1.5
		} else {
			h *= 0.6
		}

		bars[i] = math.Abs(h)
	}

	return bars
}

func NewFrame(t time.Time, isPlaying bool, progress float64, barCount int) Frame {
	return Frame{
		Time:      t,
		IsPlaying: isPlaying,
		Progress:  progress,
		Bars:      Heights(t, isPlaying, progress, 1, barCount),
	}
}
