// Package memstore provides an in-memory entity source for resolve
// descriptors, intended for tests, examples and small caches. Records are
// keyed by entity type plus one key field, carry storage-owned metadata for
// audit and optimistic concurrency, and plug into descriptors through the
// same fetch-procedure contracts the SQLite store produces.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	resolve "github.com/goliatone/go-resolve"
)

// ErrVersionMismatch reports a Save whose ETag no longer matches the stored
// record.
var ErrVersionMismatch = errors.New("memstore: etag mismatch")

// Ref identifies one stored record: an entity type plus a single key field
// and its value.
type Ref struct {
	EntityType string
	Key        string
	Value      any
}

// Identifier returns the deterministic storage key for the reference.
func (r Ref) Identifier() (string, error) {
	if r.EntityType == "" {
		return "", fmt.Errorf("memstore: entity type must not be empty")
	}
	if r.Key == "" {
		return "", fmt.Errorf("memstore: key field must not be empty")
	}
	if r.Value == nil {
		return "", fmt.Errorf("memstore: key value must not be nil for %s.%s", r.EntityType, r.Key)
	}
	return fmt.Sprintf("%s/%s=%v", r.EntityType, r.Key, r.Value), nil
}

// Meta is storage-owned record metadata used for audit and concurrency
// control.
type Meta struct {
	SnapshotID string    `json:"snapshot_id,omitempty"`
	ETag       string    `json:"etag,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

type entry struct {
	record resolve.RawRecord
	meta   Meta
}

// Store is an in-memory record store safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// New constructs an empty store.
func New() *Store {
	return &Store{
		entries: map[string]entry{},
		now:     time.Now,
	}
}

// Put stores record under ref unconditionally and returns fresh metadata.
func (s *Store) Put(ref Ref, record resolve.RawRecord) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	meta := s.newMeta()
	s.mu.Lock()
	s.entries[key] = entry{record: record.Clone(), meta: meta}
	s.mu.Unlock()
	return meta, nil
}

// Load returns the record stored under ref, if any. The returned record is
// detached from storage.
func (s *Store) Load(ref Ref) (resolve.RawRecord, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}
	s.mu.RLock()
	stored, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return stored.record.Clone(), stored.meta, true, nil
}

// Save replaces the record stored under ref. When meta carries an ETag it
// must match the stored record's current ETag, otherwise the save fails
// with ErrVersionMismatch.
func (s *Store) Save(ref Ref, record resolve.RawRecord, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if meta.ETag != "" {
		stored, ok := s.entries[key]
		if ok && stored.meta.ETag != meta.ETag {
			return Meta{}, fmt.Errorf("memstore: save %s: %w", key, ErrVersionMismatch)
		}
	}
	next := s.newMeta()
	s.entries[key] = entry{record: record.Clone(), meta: next}
	return next, nil
}

// Delete removes the record stored under ref, reporting whether it existed.
func (s *Store) Delete(ref Ref) (bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	return ok, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) newMeta() Meta {
	return Meta{
		SnapshotID: uuid.NewString(),
		ETag:       uuid.NewString(),
		UpdatedAt:  s.now(),
	}
}

// PrimaryFetch returns a primary fetch procedure backed by the store. The
// key field is read from the criteria; a missing record yields
// resolve.ErrNotFound so the engine can continue with its fallback path.
func (s *Store) PrimaryFetch(d *resolve.Descriptor, entityType, key string) resolve.PrimaryFetch {
	return func(ctx context.Context, criteria resolve.Criteria) (*resolve.Instance, error) {
		record, err := s.fetchRecord(entityType, key, criteria)
		if err != nil {
			return nil, err
		}
		inst := d.NewInstance()
		for field, value := range record {
			inst.RawSet(field, value)
		}
		return inst, nil
	}
}

// FallbackFetch returns a fallback fetch procedure backed by the store. A
// missing record yields resolve.ErrNotFound, which is a hard failure on the
// fallback path.
func (s *Store) FallbackFetch(entityType, key string) resolve.FallbackFetch {
	return func(ctx context.Context, criteria resolve.Criteria) (resolve.RawRecord, error) {
		return s.fetchRecord(entityType, key, criteria)
	}
}

func (s *Store) fetchRecord(entityType, key string, criteria resolve.Criteria) (resolve.RawRecord, error) {
	value, ok := criteria[key]
	if !ok {
		return nil, fmt.Errorf("memstore: criteria missing key %q for %s", key, entityType)
	}
	record, _, found, err := s.Load(Ref{EntityType: entityType, Key: key, Value: value})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, resolve.ErrNotFound
	}
	return record, nil
}
