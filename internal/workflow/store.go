package workflow

import (
	"sync"
)

// Store holds the single canonical configuration tree of the process.
// Readers get deep copies, so no caller ever aliases the internal maps.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

// NewStore creates a Store holding Default().
func NewStore() *Store {
	return &Store{cfg: Default()}
}

// Get returns a snapshot of the current tree.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// Replace swaps the whole tree. Missing sections become empty.
func (s *Store) Replace(cfg Config) {
	next := cfg.Clone().WithDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = next
}

// Reset puts the default tree back.
func (s *Store) Reset() {
	s.Replace(Default())
}

// UpdateSection merges partial into the named section. Keys not present in
// partial keep their previous values.
func (s *Store) UpdateSection(name string, partial Values) error {
	section, err := ParseSection(name)
	if err != nil {
		return err
	}
	update := CanonicalMap(partial)

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.cfg.section(section)
	if *p == nil {
		*p = Values{}
	}
	for k, v := range update {
		(*p)[k] = v
	}
	return nil
}

// SetName updates the workflow name.
func (s *Store) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.WorkflowName = name
}

// SetDescription updates the workflow description.
func (s *Store) SetDescription(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.WorkflowDescription = description
}
