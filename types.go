package resolve

import (
	"context"
	"time"
)

// Criteria is the opaque key to value mapping interpreted by primary and
// fallback fetch procedures.
type Criteria map[string]any

// RawRecord is the unprocessed key to value result of a fallback source
// lookup. It is read-only from the engine's point of view and consumed once
// during merge.
type RawRecord map[string]any

// PrimaryFetch looks up an entity in the fast, authoritative source. It
// returns ErrNotFound (possibly wrapped) to signal a miss; any other error
// propagates to the Fetch caller.
type PrimaryFetch func(ctx context.Context, criteria Criteria) (*Instance, error)

// FallbackFetch queries the secondary source after a primary miss, or to
// lazily fill a single field. Failures propagate uncaught.
type FallbackFetch func(ctx context.Context, criteria Criteria) (RawRecord, error)

// PostFallbackHook runs against a freshly fetched fallback record before the
// generic field merge. It may set any field on the instance directly,
// including ones that need renaming or reshaping.
type PostFallbackHook func(ctx context.Context, inst *Instance, record RawRecord) error

// Resolver computes a proxied field's value. It may read other fields or
// state on the instance directly.
type Resolver interface {
	Resolve(ctx context.Context, inst *Instance) (any, error)
}

// RecordResolver is implemented by resolvers whose contract requires the
// fallback record. The field proxy re-fetches the fallback source, keyed by
// the instance, before each invocation.
type RecordResolver interface {
	Resolver
	ResolveRecord(ctx context.Context, inst *Instance, record RawRecord) (any, error)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(ctx context.Context, inst *Instance) (any, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, inst *Instance) (any, error) {
	if f == nil {
		return nil, nil
	}
	return f(ctx, inst)
}

// RecordResolverFunc adapts a plain function to RecordResolver.
type RecordResolverFunc func(ctx context.Context, inst *Instance, record RawRecord) (any, error)

// Resolve implements Resolver by invoking the function without a record.
func (f RecordResolverFunc) Resolve(ctx context.Context, inst *Instance) (any, error) {
	return f.ResolveRecord(ctx, inst, nil)
}

// ResolveRecord implements RecordResolver.
func (f RecordResolverFunc) ResolveRecord(ctx context.Context, inst *Instance, record RawRecord) (any, error) {
	if f == nil {
		return nil, nil
	}
	return f(ctx, inst, record)
}

// ResolveContext carries inputs needed when evaluating a resolver expression.
type ResolveContext struct {
	Snapshot any
	Record   RawRecord
	Field    string
	Entity   string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx ResolveContext) withDefaultNow() ResolveContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx ResolveContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx ResolveContext) withDefaultMaps() ResolveContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx ResolveContext) withDefaults() ResolveContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx ResolveContext) fieldLabel() string {
	if ctx.Field != "" {
		return ctx.Field
	}
	return "unknown"
}

// Evaluator executes resolver expressions against a resolve context.
type Evaluator interface {
	Evaluate(ctx ResolveContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx ResolveContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}
