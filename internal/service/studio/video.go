package studio

import (
	"context"
	"fmt"

	"github.com/raveai/server/internal/waveform"
	"github.com/raveai/server/pkg/ytvideodata"
)

// Resolve extracts a video id from free text. No match is not an error.
func (s *service) Resolve(text string) Resolution {
	videoID, ok := ytvideodata.ExtractID(text)
	if !ok {
		return Resolution{}
	}

	return Resolution{
		VideoID:  videoID,
		Matched:  true,
		EmbedURL: ytvideodata.WatchURL(videoID),
	}
}

func (s *service) GetVideo(ctx context.Context, videoID string) (*ytvideodata.VideoData, error) {
	if id, ok := ytvideodata.ExtractID(ytvideodata.WatchURL(videoID)); !ok || id != videoID {
		return nil, ErrInvalidVideoID
	}

	data, err := s.videoData.Get(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get video data: %w", err)
	}

	return data, nil
}

// GetWaveformFrame computes the session's waveform for the current instant.
func (s *service) GetWaveformFrame(ctx context.Context, params *GetSessionParams) (waveform.Frame, error) {
	state, err := s.GetSession(ctx, params)
	if err != nil {
		return waveform.Frame{}, err
	}

	return waveform.NewFrame(s.now(), state.Playback.IsPlaying, state.Playback.Progress, s.cfg.BarCount), nil
}
