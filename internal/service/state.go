package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scribelab/scribecapture/internal/transcribe"
)

// SessionState records the last session's output paths so the transcribe
// and summarize stages can be re-triggered standalone.
type SessionState struct {
	LastRecording  string `yaml:"last_recording"`
	LastTranscript string `yaml:"last_transcript"`
	LastSummary    string `yaml:"last_summary"`
	LastUpdated    string `yaml:"last_updated"`
}

func (s *Service) loadState() (*SessionState, error) {
	data, err := os.ReadFile(s.cfg.Output.StateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return &SessionState{}, nil
		}
		return nil, fmt.Errorf("error reading state file: %w", err)
	}

	var st SessionState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("error parsing state file: %w", err)
	}
	return &st, nil
}

func (s *Service) saveState(st *SessionState) error {
	st.LastUpdated = time.Now().Format(time.RFC3339)

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("error encoding state: %w", err)
	}

	path := s.cfg.Output.StateFile
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing state file: %w", err)
	}
	return nil
}

// rememberState applies a mutation to the state file. State persistence is
// best-effort and never fails a pipeline stage.
func (s *Service) rememberState(mutate func(*SessionState)) {
	st, err := s.loadState()
	if err != nil {
		slog.Warn("Failed to load session state", "error", err)
		st = &SessionState{}
	}
	mutate(st)
	if err := s.saveState(st); err != nil {
		slog.Warn("Failed to save session state", "error", err)
	}
}

// LoadTranscript reads a persisted transcript bundle back.
func LoadTranscript(path string) (transcribe.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return transcribe.Transcript{}, fmt.Errorf("error reading transcript %s: %w", path, err)
	}
	var tr transcribe.Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return transcribe.Transcript{}, fmt.Errorf("error parsing transcript %s: %w", path, err)
	}
	return tr, nil
}

// ResolveTranscript picks the transcript for a summarize re-run: the
// explicit path if given, else the last one from the state file.
func (s *Service) ResolveTranscript(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	st, err := s.loadState()
	if err != nil {
		return "", err
	}
	if st.LastTranscript == "" {
		return "", fmt.Errorf("no transcript recorded yet, run transcribe first")
	}
	return st.LastTranscript, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeText(path, text string) error {
	return os.WriteFile(path, []byte(text), 0644)
}
