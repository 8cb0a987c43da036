package config

import "sync"

// Store holds the live configuration and tells subscribers when it
// changes. It is safe for concurrent use; subscribers run on the goroutine
// that made the change, outside the store's lock.
type Store struct {
	mu   sync.RWMutex
	cfg  Config
	next int
	subs map[int]func(Config)
}

// NewStore returns a store holding cfg.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg.clone(), subs: map[int]func(Config){}}
}

// Get returns a copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.clone()
}

// Set replaces the configuration and notifies subscribers.
func (s *Store) Set(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg.clone()
	subs := s.snapshot()
	s.mu.Unlock()
	for _, fn := range subs {
		fn(cfg.clone())
	}
}

// Update applies fn to a copy of the configuration and stores the result
// if it validates.
func (s *Store) Update(fn func(*Config)) error {
	cfg := s.Get()
	fn(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.Set(cfg)
	return nil
}

// Subscribe registers fn for future changes and returns a function that
// removes it.
func (s *Store) Subscribe(fn func(Config)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := s.next
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// snapshot returns subscribers in subscription order. Callers hold mu.
func (s *Store) snapshot() []func(Config) {
	out := make([]func(Config), 0, len(s.subs))
	for id := 1; id <= s.next; id++ {
		if fn, ok := s.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
