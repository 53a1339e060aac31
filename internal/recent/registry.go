package recent

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"datapresso/internal/capability"
	"datapresso/internal/store"
	"datapresso/pkg/logging"
)

// Bucket is the store bucket holding one entry per recent project.
const Bucket = "recent-projects"

var (
	// ErrNotFound is returned when no record has the given id.
	ErrNotFound = errors.New("recent project not found")
	// ErrStorageFailure wraps any failure of the backing store.
	ErrStorageFailure = errors.New("recent projects storage failure")
)

// Clock supplies the time used for LastOpened.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Registry is the durable list of previously opened projects.
//
// Every List re-reads the store, so changes made by another process show up
// without a restart. Read-modify-write sequences are serialized within the process.
type Registry struct {
	mu    sync.Mutex
	store store.Store
	clock Clock
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the clock used for LastOpened.
func WithClock(c Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// NewRegistry creates a Registry backed by s.
func NewRegistry(s store.Store, opts ...Option) *Registry {
	r := &Registry{store: s, clock: ClockFunc(time.Now)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns all records, most recently opened first.
// Entries that cannot be decoded are skipped.
func (r *Registry) List() ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked()
}

// Get returns the record with the given id.
func (r *Registry) Get(id string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.store.Load(Bucket, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Record{}, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return Record{}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return Record{}, fmt.Errorf("%w: record %s: %w", ErrStorageFailure, id, err)
	}
	return rec, nil
}

// Upsert records that dir was opened under name.
//
// An existing record for the same directory is updated in place; otherwise a
// new record is created. If several records already match, the newest one is
// kept and the rest are removed.
func (r *Registry) Upsert(name string, dir *capability.Directory) (Record, error) {
	if dir == nil {
		return Record{}, fmt.Errorf("cannot record a project without a directory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.listLocked()
	if err != nil {
		return Record{}, err
	}

	var matches []Record
	for _, rec := range records {
		if capability.SameDirectory(rec.Directory, dir) {
			matches = append(matches, rec)
		}
	}

	rec := Record{ID: uuid.NewString()}
	if len(matches) > 0 {
		rec = matches[0]
	}
	rec.Name = name
	rec.Directory = dir
	rec.LastOpened = r.clock.Now().Truncate(time.Millisecond)

	if err := r.saveLocked(rec); err != nil {
		return Record{}, err
	}

	for _, dup := range matches[min(1, len(matches)):] {
		if err := r.store.Delete(Bucket, dup.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			logging.Warn("Registry", "Failed to remove duplicate record %s: %v", dup.ID, err)
			continue
		}
		logging.Debug("Registry", "Removed duplicate record %s for %s", dup.ID, dir.Name())
	}

	logging.Debug("Registry", "Recorded %s (%s)", rec.Name, rec.ID)
	return rec, nil
}

// Remove deletes the record with the given id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Delete(Bucket, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	logging.Debug("Registry", "Removed record %s", id)
	return nil
}

func (r *Registry) listLocked() ([]Record, error) {
	keys, err := r.store.List(Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Load(Bucket, key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			logging.Warn("Registry", "Skipping unreadable record %s: %v", key, err)
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.LastOpened.Equal(b.LastOpened) {
			return a.LastOpened.After(b.LastOpened)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return records, nil
}

func (r *Registry) saveLocked(rec Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
	}
	if err := r.store.Save(Bucket, rec.ID, data); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	return nil
}
