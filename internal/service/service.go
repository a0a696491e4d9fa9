package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/scribelab/scribecapture/internal/audio"
	"github.com/scribelab/scribecapture/internal/config"
	"github.com/scribelab/scribecapture/internal/store"
	"github.com/scribelab/scribecapture/internal/summarize"
	"github.com/scribelab/scribecapture/internal/transcribe"
	"github.com/scribelab/scribecapture/internal/transcript"
)

// Transcriber sends an artifact path to the transcription engine.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (transcribe.Transcript, error)
}

// Summarizer sends flattened transcript text to the summarization engine.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Result bundles the outputs of one pipeline run. Later stages fill in
// later fields; an error in a late stage leaves the earlier fields valid.
type Result struct {
	ArtifactPath   string
	Transcript     transcribe.Transcript
	Blocks         []transcript.DisplayBlock
	TranscriptPath string
	Summary        string
	SummaryPath    string
}

// Service owns the single capture session and sequences the pipeline:
// record, persist, transcribe, summarize. Stages run strictly in that
// order; no stage is re-entered while its predecessor is in flight.
type Service struct {
	cfg     *config.Config
	session *audio.Session
	catalog *audio.DeviceCatalog
	store   *store.Store

	transcriber Transcriber
	summarizer  Summarizer

	lastError      string
	lastErrorMutex sync.RWMutex
}

// New wires a service from the configuration.
func New(cfg *config.Config) *Service {
	backend := audio.NewFFmpegBackend(cfg.Capture.SampleRate)
	st := store.New(cfg.Output.Directory)

	return &Service{
		cfg:     cfg,
		session: audio.NewSession(backend, st, cfg.Capture.Formats, cfg.Capture.ChunkMillis),
		catalog: audio.NewDeviceCatalog(backend),
		store:   st,
		transcriber: transcribe.NewClient(
			cfg.Transcriber.Command, cfg.Transcriber.Args...),
		summarizer: summarize.NewClient(summarize.Config{
			Endpoint: cfg.Summarizer.Endpoint,
			Model:    cfg.Summarizer.Model,
			Prompt:   cfg.Summarizer.Prompt,
			Timeout:  time.Duration(cfg.Summarizer.TimeoutSeconds) * time.Second,
		}),
	}
}

// ListDevices returns the available capture devices.
func (s *Service) ListDevices(ctx context.Context) []audio.Device {
	return s.catalog.ListInputDevices(ctx)
}

// StartRecording begins capturing. The configured device is used when
// deviceID is empty; an empty configured device means the platform default.
func (s *Service) StartRecording(ctx context.Context, deviceID string) error {
	s.clearLastError()
	if deviceID == "" {
		deviceID = s.cfg.Capture.Device
	}
	if err := s.session.Start(ctx, deviceID); err != nil {
		s.setLastError(fmt.Sprintf("Failed to start recording: %v", err))
		return err
	}
	return nil
}

// StopRecording stops the session and returns the saved artifact path. The
// path is recorded in the session-state file so transcription can be
// re-triggered later without re-specifying it.
func (s *Service) StopRecording(ctx context.Context) (string, error) {
	path, err := s.session.Stop(ctx)
	if err != nil {
		s.setLastError(fmt.Sprintf("Failed to stop recording: %v", err))
		return "", err
	}
	if path != "" {
		s.rememberState(func(st *SessionState) { st.LastRecording = path })
	}
	return path, nil
}

// RecordingInfo returns a snapshot of the capture session.
func (s *Service) RecordingInfo() audio.SessionInfo {
	return s.session.Info()
}

// ResolveArtifact picks the artifact for a stage re-run: the explicit path
// if given, else the last recorded one from the state file, else the
// newest file in the recordings directory.
func (s *Service) ResolveArtifact(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if st, err := s.loadState(); err == nil && st.LastRecording != "" {
		return st.LastRecording, nil
	}
	recordings, err := s.store.ListRecordings()
	if err != nil {
		return "", err
	}
	if len(recordings) == 0 {
		return "", fmt.Errorf("no recordings found in %s", s.store.Dir())
	}
	return recordings[0], nil
}

// Transcribe runs the transcription stage over an artifact and persists the
// transcript next to it.
func (s *Service) Transcribe(ctx context.Context, artifactPath string) (*Result, error) {
	s.clearLastError()

	tr, err := s.transcriber.Transcribe(ctx, artifactPath)
	if err != nil {
		s.setLastError(describeTranscribeError(err))
		return nil, err
	}

	res := &Result{
		ArtifactPath: artifactPath,
		Transcript:   tr,
		Blocks:       transcript.Group(tr.Segments),
	}

	transcriptPath := sidecarPath(artifactPath, ".transcript.json")
	if err := writeJSON(transcriptPath, tr); err != nil {
		slog.Warn("Failed to persist transcript", "path", transcriptPath, "error", err)
	} else {
		res.TranscriptPath = transcriptPath
		s.rememberState(func(st *SessionState) {
			st.LastRecording = artifactPath
			st.LastTranscript = transcriptPath
		})
	}

	return res, nil
}

// Summarize runs the summarization stage over a transcript. A failure here
// never invalidates the transcript; the partial result is still returned.
func (s *Service) Summarize(ctx context.Context, res *Result) error {
	s.clearLastError()

	corpus := transcript.Flatten(res.Transcript.Segments)
	summary, err := s.summarizer.Summarize(ctx, corpus)
	if err != nil {
		s.setLastError(fmt.Sprintf("Summarization failed: %v", err))
		return err
	}
	res.Summary = summary

	if res.ArtifactPath != "" && summary != "" {
		summaryPath := sidecarPath(res.ArtifactPath, ".summary.txt")
		if err := writeText(summaryPath, summary); err != nil {
			slog.Warn("Failed to persist summary", "path", summaryPath, "error", err)
		} else {
			res.SummaryPath = summaryPath
			s.rememberState(func(st *SessionState) { st.LastSummary = summaryPath })
		}
	}
	return nil
}

// ProcessRecording runs transcribe and, when requested, summarize over one
// artifact. On a summarization failure the returned Result still carries
// the transcript; the error reports the failed stage.
func (s *Service) ProcessRecording(ctx context.Context, artifactPath string, withSummary bool) (*Result, error) {
	res, err := s.Transcribe(ctx, artifactPath)
	if err != nil {
		return nil, err
	}
	if withSummary {
		if err := s.Summarize(ctx, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// GetLastError returns the last stage failure, for display.
func (s *Service) GetLastError() string {
	s.lastErrorMutex.RLock()
	defer s.lastErrorMutex.RUnlock()
	return s.lastError
}

func (s *Service) setLastError(msg string) {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = msg
}

func (s *Service) clearLastError() {
	s.setLastError("")
}

// describeTranscribeError phrases the two transcription failure classes
// differently: engine-reported versus could-not-reach.
func describeTranscribeError(err error) string {
	var engineErr *transcribe.EngineError
	if errors.As(err, &engineErr) {
		return fmt.Sprintf("Transcription engine reported: %s", engineErr.Message)
	}
	return fmt.Sprintf("Could not reach transcription engine: %v", err)
}

// sidecarPath replaces the artifact extension with the given suffix.
func sidecarPath(artifactPath, suffix string) string {
	return strings.TrimSuffix(artifactPath, filepath.Ext(artifactPath)) + suffix
}
