package resolve

import (
	"context"
	"errors"
	"time"
)

// FetchOption configures a single Fetch call.
type FetchOption func(*fetchConfig)

type fetchConfig struct {
	skipFallback bool
}

// SkipFallback makes Fetch return a nil instance on a primary miss instead
// of consulting the fallback source.
func SkipFallback() FetchOption {
	return func(cfg *fetchConfig) {
		cfg.skipFallback = true
	}
}

func applyFetchOptions(opts []FetchOption) fetchConfig {
	cfg := fetchConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Fetch resolves an entity by criteria: primary first, fallback on a miss.
//
// A primary hit short-circuits; the fallback source is never consulted. A
// miss (ErrNotFound from the primary, or no primary registered) triggers a
// fallback fetch, the post-fallback hook, and a field-by-field merge that
// never overwrites a field already set. With SkipFallback a miss yields
// (nil, nil). Fallback and hook failures propagate; so does any primary
// error other than ErrNotFound.
func (d *Descriptor) Fetch(ctx context.Context, criteria Criteria, opts ...FetchOption) (*Instance, error) {
	cfg := applyFetchOptions(opts)

	if d.primary != nil {
		start := time.Now()
		inst, err := d.primary(ctx, criteria)
		if err == nil {
			d.resolveLogger().LogResolution(ResolveLogEvent{
				Op:       OpFetch,
				Engine:   "primary",
				Entity:   d.entityType,
				Duration: time.Since(start),
			})
			if inst != nil {
				d.emit(ctx, buildEntityFetchedEvent(inst, SourcePrimary))
			}
			return inst, nil
		}
		if !errors.Is(err, ErrNotFound) {
			d.resolveLogger().LogResolution(ResolveLogEvent{
				Op:       OpFetch,
				Engine:   "primary",
				Entity:   d.entityType,
				Duration: time.Since(start),
				Err:      err,
			})
			return nil, wrapResolutionError("primary", d.entityType, "", err)
		}
	}

	if cfg.skipFallback {
		return nil, nil
	}

	inst, err := d.runFallback(ctx, criteria, nil)
	if err != nil {
		return nil, err
	}
	d.emit(ctx, buildEntityFetchedEvent(inst, SourceFallback))
	return inst, nil
}

// runFallback performs one fallback fetch and merges the resulting record
// into existing (or a fresh instance when existing is nil). The hook runs
// first and may set any field; the merge then fills every record key naming
// a settable field, skipping fields that already hold a value. Record key
// enumeration order drives the writes; fields are independent, so no other
// ordering is guaranteed.
func (d *Descriptor) runFallback(ctx context.Context, criteria Criteria, existing *Instance) (*Instance, error) {
	if d.fallback == nil {
		return nil, wrapResolutionError("fallback", d.entityType, "", errNoFallback)
	}

	start := time.Now()
	record, err := d.fallback(ctx, criteria)
	d.resolveLogger().LogResolution(ResolveLogEvent{
		Op:       OpFallback,
		Engine:   "fallback",
		Entity:   d.entityType,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return nil, wrapResolutionError("fallback", d.entityType, "", err)
	}

	inst := existing
	if inst == nil {
		inst = d.NewInstance()
	}

	if d.hook != nil {
		if err := d.hook(ctx, inst, record); err != nil {
			return nil, wrapResolutionError("hook", d.entityType, "", err)
		}
	}

	for key, value := range record {
		if !d.settable(key) {
			continue
		}
		if inst.IsSet(key) {
			continue
		}
		// Raw write: proxied fields must not re-enter resolution here.
		inst.rawSet(key, value, SourceFallback)
	}

	d.emit(ctx, buildEntityFallbackEvent(inst, record))
	return inst, nil
}

var errNoFallback = errors.New("fallback fetch not registered")
