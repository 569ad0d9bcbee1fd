package store

import "sync"

// MemoryProvider keeps values in process memory.
type MemoryProvider struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryProvider creates an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{values: make(map[string]string)}
}

// Get returns the value for key.
func (p *MemoryProvider) Get(key string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[key], nil
}

// Set stores value under key.
func (p *MemoryProvider) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	return nil
}

var _ Provider = (*MemoryProvider)(nil)
