package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State represents the capture session lifecycle.
type State string

const (
	StateIdle       State = "IDLE"
	StateRequesting State = "REQUESTING"
	StateRecording  State = "RECORDING"
	StateStopping   State = "STOPPING"
	StateSaved      State = "SAVED"
	StateFailed     State = "FAILED"
)

// ArtifactStore persists a finished recording and returns its absolute path.
type ArtifactStore interface {
	Persist(data []byte, name string) (string, error)
}

// SessionInfo is a snapshot of the current session.
type SessionInfo struct {
	State          State     `json:"state"`
	DeviceID       string    `json:"device_id"`
	Format         Format    `json:"format"`
	StartedAt      time.Time `json:"started_at"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	ArtifactPath   string    `json:"artifact_path"`
}

// Session is the recording state machine. One session records at most one
// artifact; starting again resets a finished or failed session.
type Session struct {
	backend     Backend
	store       ArtifactStore
	prefs       []string
	chunkMillis int

	mu             sync.Mutex
	state          State
	stream         Stream
	chunks         [][]byte
	format         Format
	deviceID       string
	startedAt      time.Time
	elapsedSeconds int
	artifactPath   string

	tickerStop  chan struct{}
	tickerDone  chan struct{}
	collectDone chan struct{}
}

// NewSession creates an idle capture session. formatPrefs is the ordered
// MIME preference list for negotiation; nil means the default order.
func NewSession(b Backend, store ArtifactStore, formatPrefs []string, chunkMillis int) *Session {
	if formatPrefs == nil {
		formatPrefs = DefaultFormatPreference
	}
	if chunkMillis <= 0 || chunkMillis > 200 {
		chunkMillis = 200
	}
	return &Session{
		backend:     b,
		store:       store,
		prefs:       formatPrefs,
		chunkMillis: chunkMillis,
		state:       StateIdle,
	}
}

// Start acquires a capture stream and begins recording. An empty deviceID
// selects the platform default input.
func (s *Session) Start(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle, StateSaved, StateFailed:
	default:
		return fmt.Errorf("can only start from idle, saved or failed state, current: %s", s.state)
	}

	// A new session discards the previous one's results.
	s.reset()
	s.state = StateRequesting
	s.deviceID = deviceID

	format := Negotiate(s.backend, s.prefs)

	stream, err := s.backend.Open(ctx, deviceID, format, s.chunkMillis)
	if err != nil {
		s.state = StateIdle
		return &CaptureUnavailableError{DeviceID: deviceID, Err: err}
	}

	s.stream = stream
	s.format = format
	s.startedAt = time.Now()
	s.state = StateRecording
	s.tickerStop = make(chan struct{})
	s.tickerDone = make(chan struct{})
	s.collectDone = make(chan struct{})

	go s.collectChunks(stream)
	go s.tickElapsed(s.tickerStop, s.tickerDone)

	slog.Info("Recording started", "device", deviceID, "format", format.MIME)
	return nil
}

// collectChunks buffers incoming chunks until the stream closes. The chunk
// buffer is written only here while recording.
func (s *Session) collectChunks(stream Stream) {
	defer close(s.collectDone)
	for chunk := range stream.Chunks() {
		s.mu.Lock()
		s.chunks = append(s.chunks, chunk)
		s.mu.Unlock()
	}
}

// tickElapsed updates the elapsed clock at 1 Hz until stop is closed. The
// channels are passed in so a restart cannot hand this goroutine the next
// session's channels.
func (s *Session) tickElapsed(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.elapsedSeconds = s.elapsed()
			s.mu.Unlock()
		}
	}
}

// elapsed computes whole seconds since startedAt, never negative.
// Caller holds s.mu.
func (s *Session) elapsed() int {
	if s.startedAt.IsZero() {
		return 0
	}
	secs := int(time.Since(s.startedAt) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// Stop ends the recording, waits for the flush, concatenates the buffered
// chunks and persists them. It returns the absolute artifact path. Stopping
// a session that is not recording is a no-op returning an empty path.
func (s *Session) Stop(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state != StateRecording {
		defer s.mu.Unlock()
		slog.Debug("Stop requested while not recording, ignoring", "state", s.state)
		return "", nil
	}

	s.state = StateStopping
	close(s.tickerStop)
	stream := s.stream
	tickerDone := s.tickerDone
	collectDone := s.collectDone
	s.mu.Unlock()

	// The hardware track is released by Stop on every path, success or not.
	stopErr := stream.Stop(ctx)
	<-collectDone
	<-tickerDone

	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsedSeconds = s.elapsed()
	s.stream = nil

	if stopErr != nil {
		s.state = StateFailed
		return "", fmt.Errorf("capture flush failed: %w", stopErr)
	}

	data := concat(s.chunks)
	name := fmt.Sprintf("recording-%d%s", time.Now().Unix(), s.format.Ext)

	path, err := s.store.Persist(data, name)
	if err != nil {
		s.state = StateFailed
		return "", err
	}

	s.state = StateSaved
	s.artifactPath = path
	slog.Info("Recording saved", "path", path, "bytes", len(data), "seconds", s.elapsedSeconds)
	return path, nil
}

// Info returns a snapshot of the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := s.elapsedSeconds
	if s.state == StateRecording {
		elapsed = s.elapsed()
	}
	return SessionInfo{
		State:          s.state,
		DeviceID:       s.deviceID,
		Format:         s.format,
		StartedAt:      s.startedAt,
		ElapsedSeconds: elapsed,
		ArtifactPath:   s.artifactPath,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// reset clears per-recording fields. Caller holds s.mu.
func (s *Session) reset() {
	s.stream = nil
	s.chunks = nil
	s.format = Format{}
	s.deviceID = ""
	s.startedAt = time.Time{}
	s.elapsedSeconds = 0
	s.artifactPath = ""
	s.tickerStop = nil
	s.tickerDone = nil
	s.collectDone = nil
}

func concat(chunks [][]byte) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	data := make([]byte, 0, total)
	for _, c := range chunks {
		data = append(data, c...)
	}
	return data
}
