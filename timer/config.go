package timer

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors.
var (
	ErrInvalidConfig     = errors.New("invalid timer configuration")
	ErrInvalidID         = errors.New("persistent timer requires a non-negative id")
	ErrPersistentScaled  = errors.New("persistent timer must use realtime mode")
	ErrNegativeThreshold = errors.New("low time threshold must not be negative")
	ErrNegativeDuration  = errors.New("countdown components must not be negative")
	ErrNoRegistry        = errors.New("timer registry is nil")
	ErrNoStore           = errors.New("persistent timer requires a registry with a store")
)

// Preset countdown lengths in seconds. Week, day, half day and hour presets
// stop one second short so the leading component never rolls over.
const (
	WeekSeconds       = 604799
	DaySeconds        = 86399
	HalfDaySeconds    = 43199
	HourSeconds       = 3599
	MinuteSeconds     = 60
	FiveMinuteSeconds = 300
)

// Mode selects how a timer measures elapsed time.
type Mode int

const (
	// ModeScaled subtracts the per-frame delta handed to Tick.
	ModeScaled Mode = iota
	// ModeRealtime recomputes the remaining time from wall-clock timestamps.
	ModeRealtime
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeScaled:
		return "scaled"
	case ModeRealtime:
		return "realtime"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "scaled", "":
		*m = ModeScaled
	case "realtime", "real-time":
		*m = ModeRealtime
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, text)
	}
	return nil
}

// DisplayMode selects which components appear in the display string.
type DisplayMode int

const (
	DisplayHours DisplayMode = iota
	DisplayMinutes
	DisplaySeconds
)

// String returns the configuration name of the display mode.
func (d DisplayMode) String() string {
	switch d {
	case DisplayHours:
		return "hours"
	case DisplayMinutes:
		return "minutes"
	case DisplaySeconds:
		return "seconds"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d DisplayMode) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DisplayMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "hours", "":
		*d = DisplayHours
	case "minutes":
		*d = DisplayMinutes
	case "seconds":
		*d = DisplaySeconds
	default:
		return fmt.Errorf("%w: unknown display %q", ErrInvalidConfig, text)
	}
	return nil
}

// Style is the visual state a display sink should render.
type Style int

const (
	StyleDefault Style = iota
	StyleFreeze
	StyleLow
)

// String returns a human-readable style name.
func (s Style) String() string {
	switch s {
	case StyleDefault:
		return "default"
	case StyleFreeze:
		return "freeze"
	case StyleLow:
		return "low"
	default:
		return "unknown"
	}
}

// State is the externally visible state of an Engine.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateFrozen
	StateTimedOut
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateFrozen:
		return "FROZEN"
	case StateTimedOut:
		return "TIMED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Config holds the static configuration for a timer.
type Config struct {
	Name       string      `yaml:"name"`
	Mode       Mode        `yaml:"mode"`
	Persistent bool        `yaml:"persistent"`
	ID         int         `yaml:"id"`
	Display    DisplayMode `yaml:"display"`

	// Initial countdown components.
	Hours   int `yaml:"hours"`
	Minutes int `yaml:"minutes"`
	Seconds int `yaml:"seconds"`

	LowTimeThreshold int  `yaml:"low_time_threshold"`
	UseLowStyle      bool `yaml:"use_low_style"`
	AutoPlay         bool `yaml:"auto_play"`
}

// TotalSeconds returns the initial countdown flattened to seconds.
func (c Config) TotalSeconds() int {
	return c.Hours*3600 + c.Minutes*60 + c.Seconds
}

// Validate reports whether the configuration can back an Engine.
func (c Config) Validate() error {
	if c.Persistent && c.ID < 0 {
		return fmt.Errorf("%w: %w (timer %q, id %d)", ErrInvalidConfig, ErrInvalidID, c.Name, c.ID)
	}
	if c.Persistent && c.Mode != ModeRealtime {
		return fmt.Errorf("%w: %w (timer %q)", ErrInvalidConfig, ErrPersistentScaled, c.Name)
	}
	if c.LowTimeThreshold < 0 {
		return fmt.Errorf("%w: %w (timer %q)", ErrInvalidConfig, ErrNegativeThreshold, c.Name)
	}
	if c.Hours < 0 || c.Minutes < 0 || c.Seconds < 0 {
		return fmt.Errorf("%w: %w (timer %q)", ErrInvalidConfig, ErrNegativeDuration, c.Name)
	}
	return nil
}
