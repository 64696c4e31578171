package resolve

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

var evaluatorFactories = []struct {
	name  string
	build func(registry *FunctionRegistry, cache ProgramCache) Evaluator
}{
	{
		name: "expr",
		build: func(registry *FunctionRegistry, cache ProgramCache) Evaluator {
			opts := []ExprEvaluatorOption{}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			return NewExprEvaluator(opts...)
		},
	},
	{
		name: "cel",
		build: func(registry *FunctionRegistry, cache ProgramCache) Evaluator {
			opts := []CELEvaluatorOption{}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			return NewCELEvaluator(opts...)
		},
	},
}

type countingCache struct {
	mu     sync.Mutex
	values map[string]any
	hits   int
	stores int
}

func newCountingCache() *countingCache {
	return &countingCache{values: map[string]any{}}
}

func (c *countingCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	if ok {
		c.hits++
	}
	return value, ok
}

func (c *countingCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores++
	c.values[key] = value
}

func TestExpressionResolverSnapshotAccess(t *testing.T) {
	for _, factory := range evaluatorFactories {
		t.Run(factory.name, func(t *testing.T) {
			f := newUserFixture()
			resolver, err := NewExpressionResolver(
				factory.build(nil, nil),
				`username + "@example.com"`,
				ExpressionForField("email"),
			)
			if err != nil {
				t.Fatalf("new resolver: %v", err)
			}
			f.desc.RegisterProxiedField("email", resolver)

			inst := f.desc.NewInstance()
			inst.Set("username", "alice")

			got, err := inst.Get(context.Background(), "email")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got != "alice@example.com" {
				t.Fatalf("expected derived email, got %v", got)
			}
			if f.fallbackCalls != 0 {
				t.Fatalf("snapshot expression must not fetch fallback, got %d calls", f.fallbackCalls)
			}
		})
	}
}

func TestExpressionResolverRecordAccess(t *testing.T) {
	for _, factory := range evaluatorFactories {
		t.Run(factory.name, func(t *testing.T) {
			f := newUserFixture()
			resolver, err := NewExpressionResolver(
				factory.build(nil, nil),
				`record.displayName`,
				ExpressionWithRecord(),
				ExpressionForField("displayName"),
			)
			if err != nil {
				t.Fatalf("new resolver: %v", err)
			}
			if _, ok := resolver.(RecordResolver); !ok {
				t.Fatalf("expected record resolver, got %T", resolver)
			}
			f.desc.RegisterProxiedField("displayName", resolver)

			inst := f.desc.NewInstance()
			inst.Set("username", "alice")

			got, err := inst.Get(context.Background(), "displayName")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got != "Alice" {
				t.Fatalf("expected record value, got %v", got)
			}
			if f.fallbackCalls != 1 {
				t.Fatalf("record expression must fetch fallback once, got %d calls", f.fallbackCalls)
			}
		})
	}
}

func TestExpressionResolverFunctionRegistry(t *testing.T) {
	for _, factory := range evaluatorFactories {
		t.Run(factory.name, func(t *testing.T) {
			registry := NewFunctionRegistry()
			if err := registry.Register("greet", func(args ...any) (any, error) {
				if len(args) != 1 {
					return nil, fmt.Errorf("greet wants one argument, got %d", len(args))
				}
				return fmt.Sprintf("hello %v", args[0]), nil
			}); err != nil {
				t.Fatalf("register function: %v", err)
			}

			f := newUserFixture()
			resolver, err := NewExpressionResolver(
				factory.build(registry, nil),
				`call("greet", username)`,
				ExpressionForField("greeting"),
			)
			if err != nil {
				t.Fatalf("new resolver: %v", err)
			}
			f.desc.RegisterProxiedField("greeting", resolver)

			inst := f.desc.NewInstance()
			inst.Set("username", "alice")

			got, err := inst.Get(context.Background(), "greeting")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got != "hello alice" {
				t.Fatalf("expected registry call result, got %v", got)
			}
		})
	}
}

func TestExpressionResolverProgramCache(t *testing.T) {
	for _, factory := range evaluatorFactories {
		t.Run(factory.name, func(t *testing.T) {
			cache := newCountingCache()
			evaluator := factory.build(nil, cache)

			ctx := ResolveContext{
				Snapshot: map[string]any{"username": "alice"},
				Entity:   "User",
			}
			for i := 0; i < 2; i++ {
				got, err := evaluator.Evaluate(ctx, `username + "!"`)
				if err != nil {
					t.Fatalf("evaluate %d: %v", i, err)
				}
				if got != "alice!" {
					t.Fatalf("evaluate %d: got %v", i, got)
				}
			}
			if cache.stores != 1 {
				t.Fatalf("expected one compile, got %d stores", cache.stores)
			}
			if cache.hits == 0 {
				t.Fatalf("expected cache hit on second evaluation")
			}
		})
	}
}

func TestExpressionResolverLogsEvaluation(t *testing.T) {
	for _, factory := range evaluatorFactories {
		t.Run(factory.name, func(t *testing.T) {
			var events []ResolveLogEvent
			logger := ResolveLoggerFunc(func(event ResolveLogEvent) {
				events = append(events, event)
			})

			f := newUserFixture()
			resolver, err := NewExpressionResolver(
				factory.build(nil, nil),
				`username`,
				ExpressionForField("alias"),
				ExpressionWithLogger(logger),
			)
			if err != nil {
				t.Fatalf("new resolver: %v", err)
			}
			f.desc.RegisterProxiedField("alias", resolver)

			inst := f.desc.NewInstance()
			inst.Set("username", "alice")
			if _, err := inst.Get(context.Background(), "alias"); err != nil {
				t.Fatalf("get: %v", err)
			}

			var evaluated *ResolveLogEvent
			for i := range events {
				if events[i].Op == OpEvaluate {
					evaluated = &events[i]
				}
			}
			if evaluated == nil {
				t.Fatalf("expected evaluation log event, got %+v", events)
			}
			if evaluated.Engine != factory.name {
				t.Fatalf("expected engine %q, got %q", factory.name, evaluated.Engine)
			}
			if evaluated.Expr != "username" || evaluated.Field != "alias" {
				t.Fatalf("unexpected event metadata: %+v", evaluated)
			}
		})
	}
}

func TestExpressionResolverErrorCarriesMetadata(t *testing.T) {
	for _, factory := range evaluatorFactories {
		t.Run(factory.name, func(t *testing.T) {
			f := newUserFixture()
			resolver, err := NewExpressionResolver(
				factory.build(nil, nil),
				`1 +`,
				ExpressionForField("score"),
			)
			if err != nil {
				t.Fatalf("new resolver: %v", err)
			}
			f.desc.RegisterProxiedField("score", resolver)

			inst := f.desc.NewInstance()
			_, err = inst.Get(context.Background(), "score")
			var resErr *ResolutionError
			if !errors.As(err, &resErr) {
				t.Fatalf("expected resolution error, got %v", err)
			}
			if resErr.Engine != factory.name {
				t.Fatalf("expected engine %q, got %q", factory.name, resErr.Engine)
			}
			if resErr.Entity != "User" || resErr.Field != "score" {
				t.Fatalf("expected metadata filled in, got %+v", resErr)
			}
		})
	}
}

func TestNewExpressionResolverValidation(t *testing.T) {
	if _, err := NewExpressionResolver(nil, "username"); err == nil {
		t.Fatalf("expected error for nil evaluator")
	}
	if _, err := NewExpressionResolver(NewExprEvaluator(), ""); err == nil {
		t.Fatalf("expected error for empty expression")
	}
}

func TestJSEvaluatorExpression(t *testing.T) {
	if !jsEvaluatorAvailable() {
		t.Skip("js engine not compiled in")
	}

	f := newUserFixture()
	resolver, err := NewExpressionResolver(
		NewJSEvaluator(),
		`username + "@example.com"`,
		ExpressionForField("email"),
	)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	f.desc.RegisterProxiedField("email", resolver)

	inst := f.desc.NewInstance()
	inst.Set("username", "alice")

	got, err := inst.Get(context.Background(), "email")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "alice@example.com" {
		t.Fatalf("expected derived email, got %v", got)
	}
}
