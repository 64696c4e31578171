package resolve

import (
	"context"

	"github.com/goliatone/go-resolve/pkg/activity"
)

// Descriptor holds the per-entity-type resolution behaviour: the primary
// fetch, the fallback fetch, the post-fallback hook, and the set of proxied
// fields with optional custom resolvers.
//
// Registration methods are declaration-time only and not safe to call
// concurrently with resolution. Once resolution begins the descriptor must
// be treated as immutable; reads then need no locking.
type Descriptor struct {
	entityType string
	primary    PrimaryFetch
	fallback   FallbackFetch
	hook       PostFallbackHook
	proxied    map[string]Resolver
	fields     map[string]struct{}
	logger     ResolveLogger
	hooks      activity.Hooks
}

// DescriptorOption configures a descriptor at construction time.
type DescriptorOption func(*Descriptor)

// WithFields declares the set of settable fields for the entity type. When
// declared, the fallback merge only writes keys naming a declared field;
// without a declaration every record key is considered settable.
func WithFields(names ...string) DescriptorOption {
	return func(d *Descriptor) {
		for _, name := range names {
			if name == "" {
				continue
			}
			d.fields[name] = struct{}{}
		}
	}
}

// WithActivityHooks attaches activity hooks notified on fetches, fallback
// merges, and field resolutions. Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) DescriptorOption {
	normalized := cloneActivityHooks(hooks)
	return func(d *Descriptor) {
		d.hooks = normalized
	}
}

// NewDescriptor constructs a descriptor for the named entity type.
func NewDescriptor(entityType string, opts ...DescriptorOption) *Descriptor {
	d := &Descriptor{
		entityType: entityType,
		proxied:    make(map[string]Resolver),
		fields:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// EntityType returns the name the descriptor was declared under.
func (d *Descriptor) EntityType() string {
	return d.entityType
}

// SetPrimaryFetch declares the primary fetch procedure. Declaring it twice
// replaces the prior procedure; the last registration wins.
func (d *Descriptor) SetPrimaryFetch(fn PrimaryFetch) {
	d.primary = fn
}

// SetFallbackFetch declares the fallback fetch procedure. The last
// registration wins.
func (d *Descriptor) SetFallbackFetch(fn FallbackFetch) {
	d.fallback = fn
}

// SetPostFallbackHook declares the hook invoked with each fresh fallback
// record before the generic merge. The last registration wins.
func (d *Descriptor) SetPostFallbackHook(fn PostFallbackHook) {
	d.hook = fn
}

// RegisterProxiedField declares name as a proxied field. A nil resolver
// means reads of an unset value trigger a full fallback merge; a non-nil
// resolver computes the field directly, re-fetching the fallback record
// first when it implements RecordResolver.
//
// Registering the same name twice overwrites the previous resolver with no
// warning; only the last registration is used.
func (d *Descriptor) RegisterProxiedField(name string, resolver Resolver) {
	if name == "" {
		return
	}
	d.proxied[name] = resolver
	d.fields[name] = struct{}{}
}

// ProxiedFields returns the names of registered proxied fields.
func (d *Descriptor) ProxiedFields() []string {
	names := make([]string, 0, len(d.proxied))
	for name := range d.proxied {
		names = append(names, name)
	}
	return names
}

// Validate checks that every proxied field has a way to resolve. A field
// with no custom resolver, or with a record-consuming resolver, requires a
// fallback fetch to be registered.
func (d *Descriptor) Validate() error {
	if d.entityType == "" {
		return &ConfigurationError{Reason: "entity type must not be empty"}
	}
	for name, resolver := range d.proxied {
		if resolver == nil && d.fallback == nil {
			return &ConfigurationError{
				Entity: d.entityType,
				Field:  name,
				Reason: "proxied field has no resolver and no fallback fetch",
			}
		}
		if _, wantsRecord := resolver.(RecordResolver); wantsRecord && d.fallback == nil {
			return &ConfigurationError{
				Entity: d.entityType,
				Field:  name,
				Reason: "record resolver requires a fallback fetch",
			}
		}
	}
	return nil
}

func (d *Descriptor) settable(name string) bool {
	if len(d.fields) == 0 {
		return true
	}
	_, ok := d.fields[name]
	return ok
}

func (d *Descriptor) resolveLogger() ResolveLogger {
	if d.logger != nil {
		return d.logger
	}
	return noopResolveLogger{}
}

func (d *Descriptor) emit(ctx context.Context, event activity.Event) {
	if len(d.hooks) == 0 {
		return
	}
	if err := d.hooks.Notify(ctx, event); err != nil {
		d.resolveLogger().LogResolution(ResolveLogEvent{
			Op:     OpActivity,
			Entity: d.entityType,
			Err:    err,
		})
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
