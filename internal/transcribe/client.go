package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// credentialsPaths are checked for an HF_TOKEN entry when the variable is
// not already in the environment. The token unlocks speaker diarization in
// the engine.
var credentialsPaths = []string{"../.credentials", ".credentials"}

// Client runs the external transcription engine over one artifact at a
// time. The engine is a standalone executable that takes the artifact path
// as its only argument and writes the response contract to stdout.
type Client struct {
	Command string
	Args    []string
}

// NewClient creates a client for the given engine command.
func NewClient(command string, args ...string) *Client {
	return &Client{Command: command, Args: args}
}

// Transcribe sends the artifact path to the engine and returns the decoded
// transcript. Errors are either *EngineError (the engine reported a
// failure) or *TransportError (the engine could not be reached or spoke an
// unknown shape). The call is never retried automatically.
func (c *Client) Transcribe(ctx context.Context, path string) (Transcript, error) {
	if c.Command == "" {
		return Transcript{}, &TransportError{Op: "exec", Err: fmt.Errorf("no transcriber command configured")}
	}

	slog.Info("Invoking transcription", "path", path)

	args := append(append([]string{}, c.Args...), path)
	cmd := exec.CommandContext(ctx, c.Command, args...)
	cmd.Env = engineEnv()

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail := strings.TrimSpace(string(exitErr.Stderr))
			if detail == "" {
				detail = err.Error()
			}
			return Transcript{}, &TransportError{Op: "exec", Err: fmt.Errorf("engine failed: %s", detail)}
		}
		return Transcript{}, &TransportError{Op: "exec", Err: err}
	}

	transcript, err := Decode(output)
	if err != nil {
		return Transcript{}, err
	}

	slog.Info("Transcription completed", "segments", len(transcript.Segments))
	return transcript, nil
}

// engineEnv returns the process environment with HF_TOKEN filled in from a
// credentials file when not already set.
func engineEnv() []string {
	env := os.Environ()
	if os.Getenv("HF_TOKEN") != "" {
		return env
	}
	if token := tokenFromCredentials(); token != "" {
		env = append(env, "HF_TOKEN="+token)
	}
	return env
}

func tokenFromCredentials() string {
	for _, path := range credentialsPaths {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(content), "\n") {
			if strings.HasPrefix(line, "HF_TOKEN=") {
				token := strings.Trim(strings.TrimPrefix(line, "HF_TOKEN="), "\"")
				if token != "" {
					slog.Debug("Loaded HF_TOKEN from credentials file", "path", path)
					return token
				}
			}
		}
	}
	return ""
}
