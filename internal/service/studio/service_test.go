package studio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raveai/server/internal/catalog"
	"github.com/raveai/server/internal/domain"
	"github.com/raveai/server/internal/mashup"
	"github.com/raveai/server/internal/repository/connection/inmemory"
	sessionRedis "github.com/raveai/server/internal/repository/session/redis"
	"github.com/raveai/server/internal/waveform"
	"github.com/raveai/server/pkg/ytvideodata"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// recordingSocket keeps every Output written to it.
type recordingSocket struct {
	mu     sync.Mutex
	out    []Output
	closed bool
}

func (r *recordingSocket) ReadJSON(any) error { return nil }

func (r *recordingSocket) WriteJSON(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = append(r.out, v.(Output))
	return nil
}

func (r *recordingSocket) SetWriteDeadline(time.Time) error { return nil }

func (r *recordingSocket) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingSocket) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *recordingSocket) count(outputType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, o := range r.out {
		if o.Type == outputType {
			n++
		}
	}
	return n
}

func (r *recordingSocket) payloads(outputType string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	var p []any
	for _, o := range r.out {
		if o.Type == outputType {
			p = append(p, o.Payload)
		}
	}
	return p
}

// heldFrames never fires on its own; it only counts live requests.
type heldFrames struct {
	mu      sync.Mutex
	pending int
}

func (h *heldFrames) RequestFrame(func(time.Time)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending++

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.pending--
		})
	}
}

func (h *heldFrames) live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending
}

// stalledSocket is a peer that stopped reading: writes hang until release.
type stalledSocket struct {
	recordingSocket
	writing atomic.Bool
	release chan struct{}
	once    sync.Once
}

func newStalledSocket() *stalledSocket {
	return &stalledSocket{release: make(chan struct{})}
}

func (s *stalledSocket) WriteJSON(any) error {
	s.writing.Store(true)
	<-s.release
	return errors.New("i/o timeout")
}

func (s *stalledSocket) unblock() {
	s.once.Do(func() { close(s.release) })
}

// gateSynthesizer holds Synthesize until release is closed.
type gateSynthesizer struct {
	started chan struct{}
	release chan struct{}
}

func newGateSynthesizer() *gateSynthesizer {
	return &gateSynthesizer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gateSynthesizer) Synthesize(ctx context.Context, tracks []domain.Track, _ mashup.ProgressFunc) (mashup.Synthesis, error) {
	close(g.started)

	select {
	case <-g.release:
	case <-ctx.Done():
		return mashup.Synthesis{}, ctx.Err()
	}

	return mashup.Synthesis{
		Title:    mashup.Title(tracks),
		Duration: mashup.FixedDuration,
	}, nil
}

type fakeVideoData struct{}

func (fakeVideoData) Get(_ context.Context, id string) (*ytvideodata.VideoData, error) {
	if id == "dQw4w9WgXcQ" {
		return &ytvideodata.VideoData{Title: "Never Gonna Give You Up", AuthorName: "Rick Astley"}, nil
	}
	return nil, ytvideodata.ErrVideoNotFound
}

type testEnv struct {
	service *service
	frames  *heldFrames
	mr      *miniredis.Miniredis
}

func newTestService(t *testing.T, cfg Config) testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	cat, err := catalog.New(discard)
	require.NoError(t, err)

	if cfg.Secret == "" {
		cfg.Secret = "test-secret"
	}
	s := NewService(
		sessionRedis.NewRepo(rc, time.Hour, discard),
		inmemory.NewRepo(),
		cat,
		mashup.NewTemplateSynthesizer(0),
		fakeVideoData{},
		discard,
		cfg,
	)
	frames := &heldFrames{}
	s.frames = frames
	t.Cleanup(s.Close)

	return testEnv{service: s, frames: frames, mr: mr}
}

func (e testEnv) connect(t *testing.T, created CreateSessionResponse) (*recordingSocket, ConnectResponse) {
	t.Helper()

	socket := &recordingSocket{}
	resp, err := e.service.Connect(context.Background(), &ConnectParams{
		SessionID: created.SessionID,
		AuthToken: created.AuthToken,
		Socket:    socket,
	})
	require.NoError(t, err)
	return socket, resp
}

func (e testEnv) selectTracks(t *testing.T, sessionID string, ids ...string) {
	t.Helper()

	for _, id := range ids {
		_, err := e.service.ToggleTrack(context.Background(), &ToggleTrackParams{SessionID: sessionID, TrackID: id})
		require.NoError(t, err)
	}
}

type mashupResult struct {
	resp CreateMashupResponse
	err  error
}

func (e testEnv) createMashupAsync(sessionID string) <-chan mashupResult {
	done := make(chan mashupResult, 1)
	go func() {
		resp, err := e.service.CreateMashup(context.Background(), sessionID)
		done <- mashupResult{resp: resp, err: err}
	}()
	return done
}

func trackIDs(tracks []domain.Track) []string {
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestCreateAndGetSession(t *testing.T) {
	env := newTestService(t, Config{})
	ctx := context.Background()

	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	assert.NotEmpty(t, created.SessionID)
	assert.NotEmpty(t, created.AuthToken)
	assert.Equal(t, "dQw4w9WgXcQ", created.State.Decks[0].VideoID)
	assert.Equal(t, "3YxaaGgTQYM", created.State.Decks[1].VideoID)
	assert.Equal(t, domain.DefaultVolume, created.State.Volume)
	assert.False(t, created.State.Playback.IsPlaying)

	state, err := env.service.GetSession(ctx, &GetSessionParams{
		SessionID: created.SessionID,
		AuthToken: created.AuthToken,
	})
	require.NoError(t, err)
	assert.Equal(t, created.State, state)
}

func TestCreateSession_CustomDecks(t *testing.T) {
	env := newTestService(t, Config{})

	created, err := env.service.CreateSession(context.Background(), &CreateSessionParams{
		DeckURLs: &[domain.DeckCount]string{"https://youtu.be/kJQP7kiw5Fk", "not a url"},
	})
	require.NoError(t, err)
	assert.Equal(t, "kJQP7kiw5Fk", created.State.Decks[0].VideoID)
	assert.Empty(t, created.State.Decks[1].VideoID)
}

func TestGetSession_Unauthorized(t *testing.T) {
	env := newTestService(t, Config{})
	ctx := context.Background()

	a, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	b, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)

	_, err = env.service.GetSession(ctx, &GetSessionParams{SessionID: a.SessionID, AuthToken: b.AuthToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = env.service.GetSession(ctx, &GetSessionParams{SessionID: a.SessionID, AuthToken: "garbage"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetSession_Expired(t *testing.T) {
	env := newTestService(t, Config{})
	ctx := context.Background()

	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	env.mr.FastForward(2 * time.Hour)

	_, err = env.service.GetSession(ctx, &GetSessionParams{SessionID: created.SessionID, AuthToken: created.AuthToken})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateDeckURL(t *testing.T) {
	env := newTestService(t, Config{})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	env.connect(t, created)

	resp, err := env.service.UpdateDeckURL(ctx, &UpdateDeckURLParams{
		SessionID: created.SessionID,
		Deck:      1,
		URL:       "https://www.youtube.com/embed/9bZkp7q19f0",
	})
	require.NoError(t, err)
	assert.Equal(t, "9bZkp7q19f0", resp.Deck.VideoID)
	assert.Equal(t, "https://www.youtube.com/watch?v=9bZkp7q19f0", resp.Deck.EmbedURL)
	assert.Len(t, resp.Conns, 1)

	resp, err = env.service.UpdateDeckURL(ctx, &UpdateDeckURLParams{
		SessionID: created.SessionID,
		Deck:      1,
		URL:       "not a url",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Deck.VideoID)
	assert.Empty(t, resp.Deck.EmbedURL)

	_, err = env.service.UpdateDeckURL(ctx, &UpdateDeckURLParams{SessionID: created.SessionID, Deck: 2, URL: "x"})
	assert.ErrorIs(t, err, ErrInvalidDeck)
}

func TestSetVolume(t *testing.T) {
	env := newTestService(t, Config{})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)

	resp, err := env.service.SetVolume(ctx, &SetVolumeParams{SessionID: created.SessionID, Volume: 40})
	require.NoError(t, err)
	assert.Equal(t, 40, resp.Volume.Volume)
	assert.InDelta(t, 0.4, resp.Volume.EmbedVolume, 1e-9)

	_, err = env.service.SetVolume(ctx, &SetVolumeParams{SessionID: created.SessionID, Volume: 101})
	assert.ErrorIs(t, err, ErrInvalidVolume)
}

func TestToggleTrack(t *testing.T) {
	env := newTestService(t, Config{})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)

	resp, err := env.service.ToggleTrack(ctx, &ToggleTrackParams{SessionID: created.SessionID, TrackID: "dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dQw4w9WgXcQ"}, resp.Selection.SelectedTrackIDs)

	resp, err = env.service.ToggleTrack(ctx, &ToggleTrackParams{SessionID: created.SessionID, TrackID: "dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Empty(t, resp.Selection.SelectedTrackIDs)

	_, err = env.service.ToggleTrack(ctx, &ToggleTrackParams{SessionID: created.SessionID, TrackID: "unknown"})
	assert.ErrorIs(t, err, ErrTrackNotFound)
}

func TestTogglePlayback_TicksAndAutoStops(t *testing.T) {
	env := newTestService(t, Config{TickInterval: 5 * time.Millisecond, ProgressStep: 25})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	socket, _ := env.connect(t, created)

	resp, err := env.service.TogglePlayback(ctx, created.SessionID)
	require.NoError(t, err)
	assert.True(t, resp.Playback.IsPlaying)

	require.Eventually(t, func() bool {
		state, err := env.service.GetState(ctx, created.SessionID)
		return err == nil && !state.Playback.IsPlaying
	}, 2*time.Second, 5*time.Millisecond)

	state, err := env.service.GetState(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, state.Playback.Progress)

	updates := socket.payloads(OutputTypePlayerUpdated)
	require.NotEmpty(t, updates)
	prev := -1.0
	for _, u := range updates[:len(updates)-1] {
		p := u.(domain.Playback)
		assert.True(t, p.IsPlaying)
		assert.Greater(t, p.Progress, prev)
		prev = p.Progress
	}
	last := updates[len(updates)-1].(domain.Playback)
	assert.False(t, last.IsPlaying)
	assert.Equal(t, 0.0, last.Progress)

	require.Eventually(t, func() bool {
		env.service.mu.Lock()
		defer env.service.mu.Unlock()
		rt := env.service.runtimes[created.SessionID]
		return rt != nil && rt.ticker == nil
	}, time.Second, 5*time.Millisecond)

	settled := len(socket.payloads(OutputTypePlayerUpdated))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, len(socket.payloads(OutputTypePlayerUpdated)))
}

func TestTogglePlayback_StopKeepsProgress(t *testing.T) {
	env := newTestService(t, Config{TickInterval: 5 * time.Millisecond, ProgressStep: 1})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	env.connect(t, created)

	_, err = env.service.TogglePlayback(ctx, created.SessionID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		state, err := env.service.GetState(ctx, created.SessionID)
		return err == nil && state.Playback.Progress >= 3
	}, 2*time.Second, 5*time.Millisecond)

	resp, err := env.service.TogglePlayback(ctx, created.SessionID)
	require.NoError(t, err)
	assert.False(t, resp.Playback.IsPlaying)
	kept := resp.Playback.Progress
	assert.Greater(t, kept, 0.0)

	time.Sleep(30 * time.Millisecond)
	state, err := env.service.GetState(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, kept, state.Playback.Progress)
}

func TestWaveformLoopFollowsPlayback(t *testing.T) {
	env := newTestService(t, Config{TickInterval: time.Hour})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	socket, _ := env.connect(t, created)

	require.Eventually(t, func() bool {
		return socket.count(OutputTypeWaveformFrame) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, 0, env.frames.live())

	_, err = env.service.TogglePlayback(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, env.frames.live())

	_, err = env.service.TogglePlayback(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, env.frames.live())

	// intermediate frames may be replaced by newer ones; the last one sent
	// always reflects the latest state
	require.Eventually(t, func() bool {
		frames := socket.payloads(OutputTypeWaveformFrame)
		if len(frames) < 2 {
			return false
		}
		return !frames[len(frames)-1].(waveform.Frame).IsPlaying
	}, time.Second, time.Millisecond)
}

func TestStalledConnDoesNotBlockOtherSessions(t *testing.T) {
	env := newTestService(t, Config{TickInterval: time.Hour})
	ctx := context.Background()

	stalled := newStalledSocket()
	t.Cleanup(stalled.unblock)

	a, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	_, err = env.service.Connect(ctx, &ConnectParams{SessionID: a.SessionID, AuthToken: a.AuthToken, Socket: stalled})
	require.NoError(t, err)
	require.Eventually(t, stalled.writing.Load, time.Second, time.Millisecond)

	errs := make(chan error, 1)
	go func() {
		if _, err := env.service.TogglePlayback(ctx, a.SessionID); err != nil {
			errs <- err
			return
		}

		b, err := env.service.CreateSession(ctx, &CreateSessionParams{})
		if err == nil {
			_, err = env.service.Connect(ctx, &ConnectParams{SessionID: b.SessionID, AuthToken: b.AuthToken, Socket: &recordingSocket{}})
		}
		if err == nil {
			_, err = env.service.TogglePlayback(ctx, b.SessionID)
		}
		errs <- err
	}()

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session b blocked behind a stalled write to session a")
	}

	// the failed write closes the stalled conn
	stalled.unblock()
	require.Eventually(t, stalled.isClosed, time.Second, time.Millisecond)
}

func TestSyncRuntime_IgnoresStaleState(t *testing.T) {
	env := newTestService(t, Config{TickInterval: time.Hour})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	env.connect(t, created)

	_, err = env.service.TogglePlayback(ctx, created.SessionID)
	require.NoError(t, err)
	stale, err := env.service.GetState(ctx, created.SessionID)
	require.NoError(t, err)
	require.True(t, stale.Playback.IsPlaying)

	_, err = env.service.TogglePlayback(ctx, created.SessionID)
	require.NoError(t, err)

	// a tick that read the playing state before the stop lands late
	env.service.syncRuntime(stale)

	env.service.mu.Lock()
	rt := env.service.runtimes[created.SessionID]
	require.NotNil(t, rt)
	assert.Nil(t, rt.ticker)
	assert.Equal(t, stale.Revision+1, rt.revision)
	env.service.mu.Unlock()
	assert.Equal(t, 0, env.frames.live())
}

func TestDisconnectTearsDownRuntime(t *testing.T) {
	env := newTestService(t, Config{TickInterval: time.Hour})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	socketA, a := env.connect(t, created)
	_, b := env.connect(t, created)

	_, err = env.service.TogglePlayback(ctx, created.SessionID)
	require.NoError(t, err)

	require.NoError(t, env.service.Disconnect(a.Conn))
	assert.True(t, socketA.closed)
	env.service.mu.Lock()
	assert.Contains(t, env.service.runtimes, created.SessionID)
	env.service.mu.Unlock()

	require.NoError(t, env.service.Disconnect(b.Conn))
	env.service.mu.Lock()
	assert.NotContains(t, env.service.runtimes, created.SessionID)
	env.service.mu.Unlock()
	assert.Equal(t, 0, env.frames.live())

	// playing survives in the store and resumes on reconnect
	_, _ = env.connect(t, created)
	env.service.mu.Lock()
	rt := env.service.runtimes[created.SessionID]
	require.NotNil(t, rt)
	assert.NotNil(t, rt.ticker)
	env.service.mu.Unlock()
}

func TestConnect_Errors(t *testing.T) {
	env := newTestService(t, Config{})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)

	_, err = env.service.Connect(ctx, &ConnectParams{SessionID: created.SessionID, AuthToken: "bad", Socket: &recordingSocket{}})
	assert.ErrorIs(t, err, ErrInvalidToken)

	env.service.Close()
	_, err = env.service.Connect(ctx, &ConnectParams{SessionID: created.SessionID, AuthToken: created.AuthToken, Socket: &recordingSocket{}})
	assert.ErrorIs(t, err, ErrServiceClosed)
}

func TestCreateMashup_NotEnoughTracks(t *testing.T) {
	env := newTestService(t, Config{})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	socket, _ := env.connect(t, created)

	_, err = env.service.ToggleTrack(ctx, &ToggleTrackParams{SessionID: created.SessionID, TrackID: "dQw4w9WgXcQ"})
	require.NoError(t, err)
	before, err := env.service.GetState(ctx, created.SessionID)
	require.NoError(t, err)

	_, err = env.service.CreateMashup(ctx, created.SessionID)
	assert.ErrorIs(t, err, ErrNotEnoughTracks)

	after, err := env.service.GetState(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 0, socket.count(OutputTypeMashupProcessing))

	mashups, err := env.service.GetMashups(ctx, &GetSessionParams{SessionID: created.SessionID, AuthToken: created.AuthToken})
	require.NoError(t, err)
	assert.Empty(t, mashups)
}

func TestCreateMashup(t *testing.T) {
	env := newTestService(t, Config{})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	socket, _ := env.connect(t, created)

	for _, id := range []string{"3YxaaGgTQYM", "dQw4w9WgXcQ"} {
		_, err = env.service.ToggleTrack(ctx, &ToggleTrackParams{SessionID: created.SessionID, TrackID: id})
		require.NoError(t, err)
	}

	resp, err := env.service.CreateMashup(ctx, created.SessionID)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Mashup.ID)
	assert.Equal(t, "Sandstorm x Never Gonna Give You Up (Rave.AI Mix)", resp.Mashup.Title)
	assert.Equal(t, mashup.FixedDuration, resp.Mashup.Duration)
	require.Len(t, resp.Mashup.Tracks, 2)
	assert.Equal(t, "3YxaaGgTQYM", resp.Mashup.Tracks[0].ID)
	assert.Equal(t, "dQw4w9WgXcQ", resp.Mashup.Tracks[1].ID)
	assert.Len(t, resp.Conns, 1)
	assert.Equal(t, 2, socket.count(OutputTypeMashupProcessing))

	mashups, err := env.service.GetMashups(ctx, &GetSessionParams{SessionID: created.SessionID, AuthToken: created.AuthToken})
	require.NoError(t, err)
	require.Len(t, mashups, 1)
	assert.Equal(t, resp.Mashup.ID, mashups[0].ID)
}

func TestCreateMashup_UsesSelectionAtCallTime(t *testing.T) {
	env := newTestService(t, Config{})
	gate := newGateSynthesizer()
	env.service.synthesizer = gate
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	env.selectTracks(t, created.SessionID, "3YxaaGgTQYM", "dQw4w9WgXcQ")

	done := env.createMashupAsync(created.SessionID)
	select {
	case <-gate.started:
	case res := <-done:
		t.Fatalf("mashup finished before synthesis: %v", res.err)
	}

	env.selectTracks(t, created.SessionID, "3YxaaGgTQYM", "fJ9rUzIMcZQ")
	close(gate.release)
	res := <-done
	require.NoError(t, res.err)

	want := []string{"3YxaaGgTQYM", "dQw4w9WgXcQ"}
	assert.Equal(t, want, trackIDs(res.resp.Mashup.Tracks))

	mashups, err := env.service.GetMashups(ctx, &GetSessionParams{SessionID: created.SessionID, AuthToken: created.AuthToken})
	require.NoError(t, err)
	require.Len(t, mashups, 1)
	assert.Equal(t, want, trackIDs(mashups[0].Tracks))

	state, err := env.service.GetState(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"dQw4w9WgXcQ", "fJ9rUzIMcZQ"}, state.SelectedTrackIDs)
}

func TestClose_CancelsRunningMashup(t *testing.T) {
	env := newTestService(t, Config{})
	gate := newGateSynthesizer()
	env.service.synthesizer = gate
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	env.selectTracks(t, created.SessionID, "3YxaaGgTQYM", "dQw4w9WgXcQ")

	done := env.createMashupAsync(created.SessionID)
	<-gate.started

	env.service.Close()

	env.service.mu.Lock()
	assert.Empty(t, env.service.processing)
	env.service.mu.Unlock()

	select {
	case res := <-done:
		assert.ErrorIs(t, res.err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("mashup still running after Close")
	}

	mashups, err := env.service.sessionRepo.GetMashups(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Empty(t, mashups)

	_, err = env.service.CreateMashup(ctx, created.SessionID)
	assert.ErrorIs(t, err, ErrServiceClosed)
}

func TestCreateMashup_InProgress(t *testing.T) {
	env := newTestService(t, Config{})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)
	for _, id := range []string{"3YxaaGgTQYM", "dQw4w9WgXcQ"} {
		_, err = env.service.ToggleTrack(ctx, &ToggleTrackParams{SessionID: created.SessionID, TrackID: id})
		require.NoError(t, err)
	}

	require.NoError(t, env.service.beginMashup(created.SessionID))
	_, err = env.service.CreateMashup(ctx, created.SessionID)
	assert.ErrorIs(t, err, ErrMashupInProgress)
	env.service.endMashup(created.SessionID)

	_, err = env.service.CreateMashup(ctx, created.SessionID)
	assert.NoError(t, err)
}

func TestResolve(t *testing.T) {
	env := newTestService(t, Config{})

	got := env.service.Resolve("https://youtu.be/dQw4w9WgXcQ?t=42")
	assert.True(t, got.Matched)
	assert.Equal(t, "dQw4w9WgXcQ", got.VideoID)

	got = env.service.Resolve("not a url")
	assert.False(t, got.Matched)
	assert.Empty(t, got.VideoID)
}

func TestGetVideo(t *testing.T) {
	env := newTestService(t, Config{})
	ctx := context.Background()

	data, err := env.service.GetVideo(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Rick Astley", data.AuthorName)

	_, err = env.service.GetVideo(ctx, "short")
	assert.ErrorIs(t, err, ErrInvalidVideoID)

	_, err = env.service.GetVideo(ctx, "aaaaaaaaaaa")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestGetWaveformFrame(t *testing.T) {
	env := newTestService(t, Config{BarCount: 16})
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, &CreateSessionParams{})
	require.NoError(t, err)

	frame, err := env.service.GetWaveformFrame(ctx, &GetSessionParams{SessionID: created.SessionID, AuthToken: created.AuthToken})
	require.NoError(t, err)
	assert.Len(t, frame.Bars, 16)
	assert.False(t, frame.IsPlaying)
}
