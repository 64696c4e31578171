package resolve

import (
	"context"
	"fmt"
	"time"
)

// ExpressionResolverOption configures an expression-backed resolver.
type ExpressionResolverOption func(*expressionResolver)

// ExpressionWithRecord declares that the resolver consumes the fallback
// record: the field proxy re-fetches the fallback source, keyed by the
// instance, before each resolution.
func ExpressionWithRecord() ExpressionResolverOption {
	return func(r *expressionResolver) {
		r.wantsRecord = true
	}
}

// ExpressionWithLogger attaches a logger to evaluation attempts.
func ExpressionWithLogger(logger ResolveLogger) ExpressionResolverOption {
	return func(r *expressionResolver) {
		r.logger = logger
	}
}

// ExpressionWithArgs binds extra arguments into the expression environment.
func ExpressionWithArgs(args map[string]any) ExpressionResolverOption {
	return func(r *expressionResolver) {
		r.args = args
	}
}

// ExpressionForField binds the field name reported in evaluation metadata
// and exposed to expressions as "field".
func ExpressionForField(name string) ExpressionResolverOption {
	return func(r *expressionResolver) {
		r.field = name
	}
}

// NewExpressionResolver builds a field resolver that evaluates expression
// with the given engine against the instance's raw field snapshot. With
// ExpressionWithRecord the returned resolver implements RecordResolver.
func NewExpressionResolver(evaluator Evaluator, expression string, opts ...ExpressionResolverOption) (Resolver, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("resolve: expression resolver requires an evaluator")
	}
	if expression == "" {
		return nil, fmt.Errorf("resolve: expression must not be empty")
	}
	base := &expressionResolver{
		evaluator:  evaluator,
		expression: expression,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(base)
		}
	}
	if base.wantsRecord {
		return &recordExpressionResolver{expressionResolver: *base}, nil
	}
	return base, nil
}

type expressionResolver struct {
	evaluator   Evaluator
	expression  string
	field       string
	args        map[string]any
	wantsRecord bool
	logger      ResolveLogger
}

// Resolve implements Resolver.
func (r *expressionResolver) Resolve(ctx context.Context, inst *Instance) (any, error) {
	return r.evaluate(inst, nil)
}

type recordExpressionResolver struct {
	expressionResolver
}

// ResolveRecord implements RecordResolver.
func (r *recordExpressionResolver) ResolveRecord(ctx context.Context, inst *Instance, record RawRecord) (any, error) {
	return r.evaluate(inst, record)
}

func (r *expressionResolver) evaluate(inst *Instance, record RawRecord) (any, error) {
	rctx := ResolveContext{
		Record: record,
		Field:  r.field,
		Args:   r.args,
	}
	if inst != nil {
		rctx.Snapshot = inst.Snapshot()
		rctx.Entity = inst.EntityType()
	}
	rctx = rctx.withDefaults()

	engine := evaluatorEngineName(r.evaluator)
	start := time.Now()
	value, err := r.evaluator.Evaluate(rctx, r.expression)
	duration := time.Since(start)
	err = wrapResolutionError(engine, rctx.Entity, rctx.fieldLabel(), err)
	r.resolveLogger().LogResolution(ResolveLogEvent{
		Op:       OpEvaluate,
		Engine:   engine,
		Entity:   rctx.Entity,
		Field:    rctx.fieldLabel(),
		Expr:     r.expression,
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *expressionResolver) resolveLogger() ResolveLogger {
	if r.logger != nil {
		return r.logger
	}
	return noopResolveLogger{}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*resolve.exprEvaluator":
		return "expr"
	case "*resolve.celEvaluator":
		return "cel"
	case "*resolve.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
