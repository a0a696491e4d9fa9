package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// FFmpegBackend captures microphone audio by driving an ffmpeg process
// reading from the PulseAudio/PipeWire source and muxing to stdout.
type FFmpegBackend struct {
	SampleRate int

	muxersOnce sync.Once
	muxers     map[string]bool
}

// NewFFmpegBackend creates the default capture backend.
func NewFFmpegBackend(sampleRate int) *FFmpegBackend {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	return &FFmpegBackend{SampleRate: sampleRate}
}

// ListDevices parses `pactl list sources`, skipping monitor sources so only
// real capture inputs are returned.
func (b *FFmpegBackend) ListDevices(ctx context.Context) ([]Device, error) {
	cmd := exec.CommandContext(ctx, "pactl", "list", "sources")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list audio sources: %w", err)
	}
	return parseSources(string(output)), nil
}

// parseSources extracts capture devices from `pactl list sources` output,
// dropping monitor sources.
func parseSources(output string) []Device {
	var devices []Device
	var current Device
	flush := func() {
		if current.ID != "" && !strings.HasSuffix(current.ID, ".monitor") {
			devices = append(devices, current)
		}
		current = Device{}
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "Source #"):
			flush()
		case strings.HasPrefix(line, "Name: "):
			current.ID = strings.TrimPrefix(line, "Name: ")
		case strings.HasPrefix(line, "Description: "):
			current.Label = strings.TrimPrefix(line, "Description: ")
		}
	}
	flush()

	return devices
}

// Probe opens the default source for a moment and releases it. A working
// probe also means source descriptions are resolvable afterwards.
func (b *FFmpegBackend) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-f", "pulse", "-i", "default",
		"-t", "0.1", "-f", "null", "-")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("capture probe failed: %w (output: %s)", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Supports checks the requested muxer against `ffmpeg -muxers`.
func (b *FFmpegBackend) Supports(f Format) bool {
	b.muxersOnce.Do(func() {
		output, err := exec.Command("ffmpeg", "-hide_banner", "-muxers").Output()
		if err != nil {
			slog.Debug("Failed to list ffmpeg muxers", "error", err)
			b.muxers = make(map[string]bool)
			return
		}
		b.muxers = parseMuxers(string(output))
	})
	return b.muxers[f.Muxer]
}

// parseMuxers extracts muxer names from `ffmpeg -muxers` output. Muxer
// lines look like " E  webm  WebM".
func parseMuxers(output string) map[string]bool {
	muxers := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "E" {
			muxers[fields[1]] = true
		}
	}
	return muxers
}

// DefaultFormat returns the fallback container.
func (b *FFmpegBackend) DefaultFormat() Format {
	f, _ := FormatForMIME("audio/ogg")
	return f
}

// Open starts an ffmpeg capture process muxing to stdout and returns a
// stream that delivers the encoded output in chunkMillis-sized slices.
func (b *FFmpegBackend) Open(ctx context.Context, deviceID string, f Format, chunkMillis int) (Stream, error) {
	if deviceID == "" {
		deviceID = "default"
	}
	if chunkMillis <= 0 || chunkMillis > 200 {
		chunkMillis = 200
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "pulse", "-ar", fmt.Sprintf("%d", b.SampleRate), "-i", deviceID,
	}
	if f.Muxer == "mp4" {
		// mp4 must be fragmented to mux to a non-seekable pipe
		args = append(args, "-movflags", "frag_keyframe+empty_moov")
	}
	args = append(args, "-f", f.Muxer, "-")

	slog.Debug("Starting capture process", "device", deviceID, "format", f.MIME, "args", strings.Join(args, " "))

	cmd := exec.Command("ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture process: %w", err)
	}

	s := &ffmpegStream{
		cmd:    cmd,
		stderr: &stderr,
		chunks: make(chan []byte, 16),
		raw:    make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go s.read(stdout)
	go s.collect(time.Duration(chunkMillis) * time.Millisecond)

	// A capture process that dies immediately means the device or the
	// permission grant is bad; surface that as an open failure.
	select {
	case <-s.done:
		return nil, fmt.Errorf("capture process exited: %s", strings.TrimSpace(stderr.String()))
	case <-time.After(250 * time.Millisecond):
	}

	return s, nil
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	stderr *strings.Builder

	chunks chan []byte
	raw    chan []byte
	done   chan struct{}

	stopOnce sync.Once
	stopErr  error
	waitErr  error
}

func (s *ffmpegStream) Chunks() <-chan []byte { return s.chunks }

// read drains the process stdout until EOF, then waits on the process.
func (s *ffmpegStream) read(stdout io.ReadCloser) {
	defer close(s.done)
	defer close(s.raw)

	buf := make([]byte, 32*1024)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.raw <- chunk
		}
		if err != nil {
			if err != io.EOF {
				slog.Debug("Capture stdout read ended", "error", err)
			}
			break
		}
	}
	s.waitErr = s.cmd.Wait()
}

// collect aggregates raw reads into time-sliced chunks.
func (s *ffmpegStream) collect(slice time.Duration) {
	defer close(s.chunks)

	ticker := time.NewTicker(slice)
	defer ticker.Stop()

	var pending []byte
	flush := func() {
		if len(pending) > 0 {
			s.chunks <- pending
			pending = nil
		}
	}

	for {
		select {
		case data, ok := <-s.raw:
			if !ok {
				flush()
				return
			}
			pending = append(pending, data...)
		case <-ticker.C:
			flush()
		}
	}
}

// Stop interrupts the capture process and waits for the remaining output to
// be flushed. Safe to call more than once; only the first call resolves.
func (s *ffmpegStream) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		if s.cmd.Process != nil {
			if err := s.cmd.Process.Signal(os.Interrupt); err != nil {
				slog.Debug("Failed to interrupt capture process, killing", "error", err)
				s.cmd.Process.Kill()
			}
		}

		select {
		case <-s.done:
		case <-time.After(5 * time.Second):
			slog.Warn("Capture process did not exit within timeout, force killing")
			if s.cmd.Process != nil {
				s.cmd.Process.Kill()
			}
			<-s.done
		case <-ctx.Done():
			if s.cmd.Process != nil {
				s.cmd.Process.Kill()
			}
			<-s.done
		}

		if s.waitErr != nil && !isSignalExit(s.waitErr) {
			s.stopErr = fmt.Errorf("capture process failed: %w (stderr: %s)",
				s.waitErr, strings.TrimSpace(s.stderr.String()))
		}
	})
	return s.stopErr
}

// isSignalExit reports whether the process ended because of our own
// interrupt rather than an internal failure.
func isSignalExit(err error) bool {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	if exitErr.ExitCode() == 255 {
		return true
	}
	if exitErr.ProcessState != nil {
		state := exitErr.ProcessState.String()
		if state == "signal: interrupt" || state == "signal: killed" {
			return true
		}
	}
	return false
}
