// Package config loads the application configuration: the list of timers,
// the storage backend for persistent timers and the timeout alert.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"Countdown/store"
	"Countdown/timer"

	"gopkg.in/yaml.v3"
)

// DefaultAsset is the embedded configuration used when no file is given.
const DefaultAsset = "assets/timers.yaml"

// EnvPath names the environment variable holding a configuration file path.
const EnvPath = "COUNTDOWN_CONFIG"

// Storage backends.
const (
	BackendPreferences = "preferences"
	BackendSQLite      = "sqlite"
	BackendMemory      = "memory"
)

var (
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrStoragePath    = errors.New("sqlite backend requires a path")
	ErrTickInterval   = errors.New("tick interval must be positive")
	ErrDuplicateID    = errors.New("duplicate persistent timer id")
	ErrNoTimers       = errors.New("no timers configured")
)

// ContentReader reads bundled files, usually an embed.FS.
type ContentReader interface {
	ReadFile(name string) ([]byte, error)
}

// Config is the top-level configuration.
type Config struct {
	Language     string         `yaml:"language"`
	TickInterval time.Duration  `yaml:"tick_interval"`
	Storage      Storage        `yaml:"storage"`
	Alert        Alert          `yaml:"alert"`
	Timers       []timer.Config `yaml:"timers"`
}

// Storage selects where persistent timer records live.
type Storage struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Key     string `yaml:"key"`
}

// Alert configures the sound played when a timer runs out. When SoundFile is
// empty a sine tone of ToneHz is played for Duration.
type Alert struct {
	SoundFile string        `yaml:"sound_file"`
	ToneHz    float64       `yaml:"tone_hz"`
	Duration  time.Duration `yaml:"duration"`
	Muted     bool          `yaml:"muted"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TickInterval: 20 * time.Millisecond,
		Storage: Storage{
			Backend: BackendPreferences,
			Key:     store.DefaultKey,
		},
		Alert: Alert{
			ToneHz:   880,
			Duration: 600 * time.Millisecond,
		},
	}
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration file at path, or DefaultAsset from reader when
// path is empty.
func Load(reader ContentReader, path string) (*Config, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = reader.ReadFile(DefaultAsset)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// PathFromEnv returns the configuration path set in EnvPath, if any.
func PathFromEnv() string {
	return strings.TrimSpace(os.Getenv(EnvPath))
}

// Validate checks the storage section and every timer.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendPreferences, BackendMemory:
	case BackendSQLite:
		if c.Storage.Path == "" {
			return ErrStoragePath
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}

	if c.TickInterval <= 0 {
		return ErrTickInterval
	}
	if len(c.Timers) == 0 {
		return ErrNoTimers
	}

	seen := make(map[int]string)
	for _, t := range c.Timers {
		if err := t.Validate(); err != nil {
			return err
		}
		if !t.Persistent {
			continue
		}
		if other, ok := seen[t.ID]; ok {
			return fmt.Errorf("%w: %d (%q and %q)", ErrDuplicateID, t.ID, other, t.Name)
		}
		seen[t.ID] = t.Name
	}
	return nil
}
