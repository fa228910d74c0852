package utils

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

type MirrorConfig struct {
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Profile string `yaml:"profile"`
}

func (m MirrorConfig) Enabled() bool {
	return m.Bucket != ""
}

// RunConfig holds every knob of a run. Values come from the built-in
// defaults, then an optional YAML file, then command-line flags.
type RunConfig struct {
	BaseURL    string           `yaml:"base_url"`
	OutputDir  string           `yaml:"output"`
	LogPath    string           `yaml:"log"`
	Workers    int              `yaml:"workers"`
	Mode       Mode             `yaml:"mode"`
	ChunkSize  int64            `yaml:"chunk_size"`
	BufferSize int              `yaml:"buffer_size"`
	HTTP       HTTPClientConfig `yaml:"http"`
	Mirror     MirrorConfig     `yaml:"mirror"`
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		BaseURL:    DefaultBaseURL,
		LogPath:    DefaultLogFile,
		Workers:    runtime.NumCPU(),
		Mode:       ModeRange,
		ChunkSize:  DefaultChunkSize,
		BufferSize: DefaultBufferSize,
		HTTP: HTTPClientConfig{
			Timeout:   DefaultTimeout,
			KATimeout: DefaultKATimeout,
			UserAgent: DefaultUserAgent,
			Headers:   map[string]string{},
		},
		Mirror: MirrorConfig{Profile: "default"},
	}
}

// LoadRunConfig overlays the YAML file at path on top of the defaults.
// An empty path returns the defaults.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config file: %w", err)
	}
	if cfg.HTTP.Headers == nil {
		cfg.HTTP.Headers = map[string]string{}
	}
	logger := GetLogger("config")
	logger.Debug().Str("file", path).Msg("Run configuration loaded")
	return cfg, nil
}

func (c *RunConfig) Validate() error {
	var errs []error
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize))
	}
	if c.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("buffer size must be positive, got %d", c.BufferSize))
	}
	mode, err := ParseMode(string(c.Mode))
	if err != nil {
		errs = append(errs, err)
	}
	c.Mode = mode
	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base URL %q must be an absolute http(s) URL", c.BaseURL))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
