package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the effective configuration for one invocation.
type Config struct {
	Capture     CaptureConfig     `mapstructure:"capture" yaml:"capture"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
	Transcriber TranscriberConfig `mapstructure:"transcriber" yaml:"transcriber"`
	Summarizer  SummarizerConfig  `mapstructure:"summarizer" yaml:"summarizer"`
}

type CaptureConfig struct {
	Device      string   `mapstructure:"device" yaml:"device"`             // empty = platform default input
	SampleRate  int      `mapstructure:"sample_rate" yaml:"sample_rate"`   //
	ChunkMillis int      `mapstructure:"chunk_millis" yaml:"chunk_millis"` // buffering time slice, max 200
	Formats     []string `mapstructure:"formats" yaml:"formats"`           // MIME preference order
}

type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
	StateFile string `mapstructure:"state_file" yaml:"state_file"`
}

type TranscriberConfig struct {
	Command string   `mapstructure:"command" yaml:"command"`
	Args    []string `mapstructure:"args" yaml:"args"`
}

type SummarizerConfig struct {
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint"`
	Model          string `mapstructure:"model" yaml:"model"`
	Prompt         string `mapstructure:"prompt" yaml:"prompt"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

var knownMIMETypes = map[string]bool{
	"audio/mp4":  true,
	"audio/webm": true,
	"audio/ogg":  true,
	"audio/wav":  true,
}

// DefaultPath is where the config file lives when --config is not given.
func DefaultPath() string {
	return os.ExpandEnv("$HOME/.config/scribecapture.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capture.sample_rate", 48000)
	v.SetDefault("capture.chunk_millis", 200)
	v.SetDefault("capture.formats", []string{"audio/mp4", "audio/webm", "audio/ogg"})
	v.SetDefault("output.directory", filepath.Join(os.Getenv("HOME"), "Audio", "ScribeCapture"))
	v.SetDefault("output.state_file", filepath.Join(os.Getenv("HOME"), ".local", "state", "scribecapture", "session.yaml"))
	v.SetDefault("transcriber.command", "api-sidecar")
	v.SetDefault("summarizer.endpoint", "http://localhost:11434")
	v.SetDefault("summarizer.model", "qwen2.5-coder:7b")
	v.SetDefault("summarizer.timeout_seconds", 120)
}

// Load reads the config file and merges it over the defaults. An empty
// configFile falls back to DefaultPath; a missing default file is not an
// error, the defaults apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := configFile != ""
	if configFile == "" {
		configFile = DefaultPath()
	}

	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		if explicit {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		// No config file at the default location, defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", configFile, err)
	}

	cfg.Output.Directory = expandPath(cfg.Output.Directory)
	cfg.Output.StateFile = expandPath(cfg.Output.StateFile)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks value ranges and format names.
func (c *Config) Validate() error {
	if c.Capture.ChunkMillis <= 0 || c.Capture.ChunkMillis > 200 {
		return fmt.Errorf("capture.chunk_millis must be in (0, 200], got %d", c.Capture.ChunkMillis)
	}
	if c.Capture.SampleRate <= 0 {
		return fmt.Errorf("capture.sample_rate must be positive, got %d", c.Capture.SampleRate)
	}
	for _, mime := range c.Capture.Formats {
		base := strings.TrimSpace(strings.SplitN(mime, ";", 2)[0])
		if !knownMIMETypes[base] {
			return fmt.Errorf("unknown capture format %q (known: audio/mp4, audio/webm, audio/ogg, audio/wav)", mime)
		}
	}
	if c.Output.Directory == "" {
		return fmt.Errorf("output.directory must not be empty")
	}
	if c.Summarizer.Endpoint == "" {
		return fmt.Errorf("summarizer.endpoint must not be empty")
	}
	if c.Summarizer.TimeoutSeconds <= 0 {
		return fmt.Errorf("summarizer.timeout_seconds must be positive, got %d", c.Summarizer.TimeoutSeconds)
	}
	return nil
}

// expandPath expands a leading tilde to the home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
