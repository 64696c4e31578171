package resolve

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Instance is a mutable record of field values for one entity. Each field is
// either set or unset; a field holding nil is indistinguishable from one
// never written, so a field the fallback source confirms absent is resolved
// again on every read.
//
// An instance owns its recursion guard and is not safe for concurrent use
// from multiple goroutines without external synchronization.
type Instance struct {
	id     uuid.UUID
	desc   *Descriptor
	fields map[string]any
	dirty  map[string]struct{}
	guard  recursionGuard
	trace  []Provenance
}

// NewInstance constructs an empty instance of the descriptor's entity type.
func (d *Descriptor) NewInstance() *Instance {
	return &Instance{
		id:     uuid.New(),
		desc:   d,
		fields: make(map[string]any),
		dirty:  make(map[string]struct{}),
		guard:  make(recursionGuard),
	}
}

// ID returns the instance identifier used in traces and activity events.
func (i *Instance) ID() uuid.UUID {
	return i.id
}

// EntityType returns the entity type name of the owning descriptor.
func (i *Instance) EntityType() string {
	if i.desc == nil {
		return ""
	}
	return i.desc.entityType
}

// Descriptor returns the descriptor the instance was created from.
func (i *Instance) Descriptor() *Descriptor {
	return i.desc
}

// Set writes a field through the instance setter. Setter writes are tracked:
// they mark the field dirty and append a manual provenance entry.
func (i *Instance) Set(name string, value any) {
	i.set(name, value, SourceManual)
}

// RawSet writes the underlying storage form of a field, bypassing setter
// bookkeeping entirely. Resolution never re-enters through a raw write.
func (i *Instance) RawSet(name string, value any) {
	i.fields[name] = value
}

// RawGet reads the stored value of a field without triggering resolution.
func (i *Instance) RawGet(name string) any {
	return i.fields[name]
}

// IsSet reports whether the field currently holds a non-nil value. An
// explicit nil write is not observable here; see the type comment.
func (i *Instance) IsSet(name string) bool {
	return i.fields[name] != nil
}

// Fields returns the names of all stored fields, sorted.
func (i *Instance) Fields() []string {
	names := make([]string, 0, len(i.fields))
	for name := range i.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dirty returns the names of fields written through the setter, sorted.
func (i *Instance) Dirty() []string {
	names := make([]string, 0, len(i.dirty))
	for name := range i.dirty {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the raw field storage.
func (i *Instance) Snapshot() map[string]any {
	snapshot := make(map[string]any, len(i.fields))
	for name, value := range i.fields {
		snapshot[name] = value
	}
	return snapshot
}

// Criteria adapts the instance into the criteria mapping expected by fetch
// procedures, so a fallback procedure written for the whole-entity path also
// works when invoked from a single-field resolution. Only set fields are
// included; reads are raw and never trigger resolution.
func (i *Instance) Criteria() Criteria {
	criteria := make(Criteria, len(i.fields))
	for name, value := range i.fields {
		if value == nil {
			continue
		}
		criteria[name] = value
	}
	return criteria
}

func (i *Instance) set(name string, value any, source Source) {
	i.fields[name] = value
	i.dirty[name] = struct{}{}
	i.record(name, value, source)
}

// rawSet writes raw storage while still recording provenance. Used by the
// engine's merge pass so traces cover fallback-supplied values.
func (i *Instance) rawSet(name string, value any, source Source) {
	i.fields[name] = value
	i.record(name, value, source)
}

func (i *Instance) record(name string, value any, source Source) {
	i.trace = append(i.trace, Provenance{
		Field:  name,
		Source: source,
		Value:  value,
		At:     time.Now(),
	})
}

// Get reads field name, lazily resolving it when unset and proxied.
//
// A set value returns immediately. An unset, non-proxied field returns its
// raw value with no resolution. Otherwise the read resolves exactly once
// per resolution episode: a resolver or hook that re-enters the same field
// observes the raw value instead of recursing, and the guard is released
// even when resolution fails.
func (i *Instance) Get(ctx context.Context, name string) (any, error) {
	value := i.fields[name]
	if value != nil {
		return value, nil
	}

	resolver, proxied := i.desc.proxied[name]
	if !proxied {
		return value, nil
	}

	if i.guard.tryAcquire(name) {
		return value, nil
	}
	defer i.guard.release(name)

	start := time.Now()
	value, engine, err := i.resolveField(ctx, name, resolver)
	i.desc.resolveLogger().LogResolution(ResolveLogEvent{
		Op:       OpField,
		Engine:   engine,
		Entity:   i.desc.entityType,
		Field:    name,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return nil, wrapResolutionError(engine, i.desc.entityType, name, err)
	}

	if value != nil {
		source := SourceResolver
		if resolver == nil {
			source = SourceFallback
		}
		i.set(name, value, source)
		i.desc.emit(ctx, buildFieldResolvedEvent(i, name, engine))
	}
	return value, nil
}

// resolveField dispatches to the field's resolver contract: record-consuming
// resolvers get a fresh fallback record keyed by the instance, plain
// resolvers run against the instance alone, and fields with no resolver go
// through a full fallback merge pass.
func (i *Instance) resolveField(ctx context.Context, name string, resolver Resolver) (any, string, error) {
	switch r := resolver.(type) {
	case RecordResolver:
		if i.desc.fallback == nil {
			return nil, engineRecordResolver, errNoFallback
		}
		record, err := i.desc.fallback(ctx, i.Criteria())
		if err != nil {
			return nil, engineRecordResolver, err
		}
		value, err := r.ResolveRecord(ctx, i, record)
		return value, engineRecordResolver, err
	case nil:
		if _, err := i.desc.runFallback(ctx, i.Criteria(), i); err != nil {
			return nil, engineMerge, err
		}
		return i.fields[name], engineMerge, nil
	default:
		value, err := r.Resolve(ctx, i)
		return value, engineResolver, err
	}
}

const (
	engineMerge          = "merge"
	engineResolver       = "resolver"
	engineRecordResolver = "record-resolver"
)
