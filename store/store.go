package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// DefaultKey is the provider key the collection is stored under.
const DefaultKey = "realtime_timers"

// ErrNilProvider is returned by Store methods when no provider is configured.
var ErrNilProvider = errors.New("store: nil provider")

// Provider is a durable string-keyed value store.
type Provider interface {
	// Get returns the value for key, or "" when the key is unset.
	Get(key string) (string, error)

	// Set stores value under key.
	Set(key, value string) error
}

// Store keeps the timer record collection. The collection is read from the
// provider on first access and cached until ClearAll.
type Store struct {
	mu       sync.Mutex
	provider Provider
	key      string
	log      *slog.Logger

	records []Record
	loaded  bool
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used to report recovered failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Store on top of p.
func New(p Provider, opts ...Option) *Store {
	s := &Store{
		provider: p,
		key:      DefaultKey,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "store", "key", s.key)
	return s
}

// Key returns the provider key in use.
func (s *Store) Key() string {
	return s.key
}

// Load returns a copy of the whole collection.
func (s *Store) Load() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded()
	return slices.Clone(s.records)
}

// Get returns the record with the given id.
func (s *Store) Get(id int) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded()
	if i := s.index(id); i >= 0 {
		return s.records[i], true
	}
	return Record{}, false
}

// Upsert replaces the record with the same ID, or appends r, and writes the
// whole collection to the provider.
func (s *Store) Upsert(r Record) error {
	if r.Ready && r.Seconds < 0 {
		r.Seconds = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded()
	if i := s.index(r.ID); i >= 0 {
		s.records[i] = r
	} else {
		s.records = append(s.records, r)
	}
	return s.flush()
}

// ClearAll empties the provider value and drops the cache.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.loaded = false

	if s.provider == nil {
		return ErrNilProvider
	}
	if err := s.provider.Set(s.key, ""); err != nil {
		return fmt.Errorf("store: clear %q: %w", s.key, err)
	}
	return nil
}

func (s *Store) index(id int) int {
	return slices.IndexFunc(s.records, func(r Record) bool { return r.ID == id })
}

func (s *Store) ensureLoaded() {
	if s.loaded {
		return
	}
	s.records = s.read()
	s.loaded = true
}

func (s *Store) read() []Record {
	if s.provider == nil {
		s.log.Warn("no provider, starting empty")
		return nil
	}

	raw, err := s.provider.Get(s.key)
	if err != nil {
		s.log.Warn("read failed, starting empty", "err", err)
		return nil
	}
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var c collection
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.log.Warn("malformed timer data, starting empty", "err", err)
		return nil
	}

	// Keep the last occurrence of a duplicated ID.
	records := make([]Record, 0, len(c.Timers))
	for _, r := range c.Timers {
		if i := slices.IndexFunc(records, func(x Record) bool { return x.ID == r.ID }); i >= 0 {
			s.log.Warn("duplicate timer record", "id", r.ID)
			records[i] = r
			continue
		}
		records = append(records, r)
	}
	return records
}

func (s *Store) flush() error {
	if s.provider == nil {
		return ErrNilProvider
	}

	data, err := json.Marshal(collection{Timers: s.records})
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	if err := s.provider.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("store: write %q: %w", s.key, err)
	}
	return nil
}
