package audio

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeStream struct {
	ch      chan []byte
	stopErr error
}

func newFakeStream() *fakeStream {
	return &fakeStream{ch: make(chan []byte, 16)}
}

func (f *fakeStream) Chunks() <-chan []byte { return f.ch }

func (f *fakeStream) Stop(ctx context.Context) error {
	close(f.ch)
	return f.stopErr
}

type fakeBackend struct {
	supported  map[string]bool
	openErr    error
	probeErr   error
	devices    []Device
	listErr    error
	stream     *fakeStream
	lastDevice string
	lastFormat Format
}

func (f *fakeBackend) ListDevices(ctx context.Context) ([]Device, error) {
	return f.devices, f.listErr
}
func (f *fakeBackend) Probe(ctx context.Context) error { return f.probeErr }
func (f *fakeBackend) Supports(fm Format) bool         { return f.supported[fm.MIME] }

func (f *fakeBackend) DefaultFormat() Format {
	fm, _ := FormatForMIME("audio/ogg")
	return fm
}

func (f *fakeBackend) Open(ctx context.Context, deviceID string, fm Format, chunkMillis int) (Stream, error) {
	f.lastDevice = deviceID
	f.lastFormat = fm
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.stream == nil {
		f.stream = newFakeStream()
	}
	return f.stream, nil
}

type fakeStore struct {
	path     string
	err      error
	gotData  []byte
	gotName  string
	persists int
}

func (f *fakeStore) Persist(data []byte, name string) (string, error) {
	f.persists++
	f.gotData = data
	f.gotName = name
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

func TestStopWhileIdle_NoOp(t *testing.T) {
	s := NewSession(&fakeBackend{}, &fakeStore{}, nil, 100)

	path, err := s.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop while idle should be a no-op, got error: %v", err)
	}
	if path != "" {
		t.Errorf("Stop while idle should return no path, got %q", path)
	}
	if s.State() != StateIdle {
		t.Errorf("Expected state IDLE, got %s", s.State())
	}
}

func TestStartStop_SavesConcatenatedChunks(t *testing.T) {
	backend := &fakeBackend{
		supported: map[string]bool{"audio/webm": true},
		stream:    newFakeStream(),
	}
	store := &fakeStore{path: "/recordings/recording-1.webm"}
	s := NewSession(backend, store, nil, 100)

	if err := s.Start(context.Background(), "mic-1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s.State() != StateRecording {
		t.Fatalf("Expected state RECORDING, got %s", s.State())
	}
	if backend.lastDevice != "mic-1" {
		t.Errorf("Backend opened device %q, want %q", backend.lastDevice, "mic-1")
	}

	backend.stream.ch <- []byte("abc")
	backend.stream.ch <- []byte("def")
	waitForChunks(t, s, 2)

	path, err := s.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if path != store.path {
		t.Errorf("Stop returned path %q, want the store's path %q", path, store.path)
	}
	if s.State() != StateSaved {
		t.Errorf("Expected state SAVED, got %s", s.State())
	}
	if string(store.gotData) != "abcdef" {
		t.Errorf("Persisted data = %q, want %q", store.gotData, "abcdef")
	}
	if !strings.HasPrefix(store.gotName, "recording-") || !strings.HasSuffix(store.gotName, ".webm") {
		t.Errorf("Artifact name %q should look like recording-<ts>.webm", store.gotName)
	}
}

func TestStart_EmptyDeviceUsesDefault(t *testing.T) {
	backend := &fakeBackend{supported: map[string]bool{"audio/mp4": true}}
	s := NewSession(backend, &fakeStore{path: "/r/x.m4a"}, nil, 100)

	if err := s.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start with empty device should use the default input, got: %v", err)
	}
	if backend.lastDevice != "" {
		t.Errorf("Expected empty device ID passed through, got %q", backend.lastDevice)
	}
	if _, err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestFormatNegotiation_PicksFirstSupported(t *testing.T) {
	// formatA unsupported, formatB supported: B wins and tags the extension.
	backend := &fakeBackend{supported: map[string]bool{"audio/webm": true}}
	store := &fakeStore{path: "/r/out.webm"}
	s := NewSession(backend, store, []string{"audio/mp4", "audio/webm"}, 100)

	if err := s.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if backend.lastFormat.MIME != "audio/webm" {
		t.Errorf("Negotiated %q, want audio/webm", backend.lastFormat.MIME)
	}

	if _, err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !strings.HasSuffix(store.gotName, ".webm") {
		t.Errorf("Artifact name %q should carry the negotiated .webm extension", store.gotName)
	}
}

func TestStartFailure_ReturnsToIdle(t *testing.T) {
	backend := &fakeBackend{openErr: errors.New("permission denied")}
	s := NewSession(backend, &fakeStore{}, nil, 100)

	err := s.Start(context.Background(), "mic-1")
	if err == nil {
		t.Fatal("Expected error when backend open fails")
	}

	var capErr *CaptureUnavailableError
	if !errors.As(err, &capErr) {
		t.Fatalf("Expected CaptureUnavailableError, got %T: %v", err, err)
	}
	if !strings.Contains(capErr.Error(), "permission denied") {
		t.Errorf("Error should carry the platform message, got: %v", capErr)
	}
	if s.State() != StateIdle {
		t.Errorf("Expected state IDLE after failed start, got %s", s.State())
	}
}

func TestPersistFailure_EndsFailed(t *testing.T) {
	backend := &fakeBackend{supported: map[string]bool{"audio/mp4": true}}
	persistErr := errors.New("disk full")
	store := &fakeStore{err: persistErr}
	s := NewSession(backend, store, nil, 100)

	if err := s.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	path, err := s.Stop(context.Background())
	if !errors.Is(err, persistErr) {
		t.Fatalf("Expected the store error surfaced verbatim, got: %v", err)
	}
	if path != "" {
		t.Errorf("Expected no path on persist failure, got %q", path)
	}
	if s.State() != StateFailed {
		t.Errorf("Expected state FAILED, got %s", s.State())
	}
}

func TestStartWhileRecording_Rejected(t *testing.T) {
	backend := &fakeBackend{supported: map[string]bool{"audio/mp4": true}}
	s := NewSession(backend, &fakeStore{path: "/r/x.m4a"}, nil, 100)

	if err := s.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(context.Background(), ""); err == nil {
		t.Error("Expected second Start while recording to be rejected")
	}
	if _, err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestDoubleStop_SecondIsNoOp(t *testing.T) {
	backend := &fakeBackend{supported: map[string]bool{"audio/mp4": true}}
	store := &fakeStore{path: "/r/x.m4a"}
	s := NewSession(backend, store, nil, 100)

	if err := s.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := s.Stop(context.Background()); err != nil {
		t.Fatalf("First stop failed: %v", err)
	}

	path, err := s.Stop(context.Background())
	if err != nil || path != "" {
		t.Errorf("Second stop should be a no-op, got path=%q err=%v", path, err)
	}
	if store.persists != 1 {
		t.Errorf("Expected exactly one persist, got %d", store.persists)
	}
}

func TestRestartAfterSave_DiscardsPreviousResults(t *testing.T) {
	backend := &fakeBackend{supported: map[string]bool{"audio/mp4": true}}
	s := NewSession(backend, &fakeStore{path: "/r/x.m4a"}, nil, 100)

	if err := s.Start(context.Background(), "mic-1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if s.Info().ArtifactPath == "" {
		t.Fatal("Expected artifact path after save")
	}

	backend.stream = newFakeStream()
	if err := s.Start(context.Background(), "mic-2"); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	info := s.Info()
	if info.ArtifactPath != "" {
		t.Errorf("New session should discard the previous artifact path, got %q", info.ArtifactPath)
	}
	if info.DeviceID != "mic-2" {
		t.Errorf("New session device = %q, want mic-2", info.DeviceID)
	}
	if _, err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestRapidRestart_NoStaleTicker(t *testing.T) {
	backend := &fakeBackend{supported: map[string]bool{"audio/mp4": true}}
	s := NewSession(backend, &fakeStore{path: "/r/x.m4a"}, nil, 100)

	// Stop must not return until the previous session's ticker goroutine has
	// exited, so a restart never overlaps with a stale timer.
	for i := 0; i < 200; i++ {
		backend.stream = newFakeStream()
		if err := s.Start(context.Background(), ""); err != nil {
			t.Fatalf("Start %d failed: %v", i, err)
		}
		if _, err := s.Stop(context.Background()); err != nil {
			t.Fatalf("Stop %d failed: %v", i, err)
		}
	}
	if s.State() != StateSaved {
		t.Errorf("Expected state SAVED after final stop, got %s", s.State())
	}
}

func TestElapsed_NeverNegative(t *testing.T) {
	s := NewSession(&fakeBackend{}, &fakeStore{}, nil, 100)
	if got := s.Info().ElapsedSeconds; got != 0 {
		t.Errorf("Idle session elapsed = %d, want 0", got)
	}

	s.mu.Lock()
	s.startedAt = time.Now().Add(30 * time.Second) // clock skew
	got := s.elapsed()
	s.mu.Unlock()
	if got != 0 {
		t.Errorf("Elapsed with future start = %d, want 0", got)
	}
}

// waitForChunks blocks until the collector has buffered n chunks.
func waitForChunks(t *testing.T, s *Session, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		have := len(s.chunks)
		s.mu.Unlock()
		if have >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d chunks", n)
}
