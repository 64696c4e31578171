package resolve

import (
	"context"
	"testing"
)

func TestTraceRecordsWriteSources(t *testing.T) {
	f := newUserFixture()
	f.desc.RegisterProxiedField("followers", nil)

	inst := f.desc.NewInstance()
	inst.Set("username", "alice")
	if _, err := inst.Get(context.Background(), "followers"); err != nil {
		t.Fatalf("get: %v", err)
	}

	trace := inst.Trace()
	if trace.EntityType != "User" {
		t.Fatalf("expected entity type, got %q", trace.EntityType)
	}
	if trace.InstanceID != inst.ID().String() {
		t.Fatalf("expected instance id, got %q", trace.InstanceID)
	}

	sources := map[string][]Source{}
	for _, entry := range trace.Fields {
		sources[entry.Field] = append(sources[entry.Field], entry.Source)
	}
	if got := sources["username"]; len(got) == 0 || got[0] != SourceManual {
		t.Fatalf("expected manual write for username, got %v", got)
	}
	if got := sources["displayName"]; len(got) == 0 || got[0] != SourceFallback {
		t.Fatalf("expected fallback write for displayName, got %v", got)
	}
	// The merge fills followers raw, then the read stores the resolved value.
	if got := sources["followers"]; len(got) != 2 || got[1] != SourceFallback {
		t.Fatalf("unexpected followers provenance: %v", got)
	}
}

func TestTraceRecordsResolverSource(t *testing.T) {
	f := newUserFixture()
	f.desc.RegisterProxiedField("score", ResolverFunc(func(ctx context.Context, inst *Instance) (any, error) {
		return 99, nil
	}))

	inst := f.desc.NewInstance()
	if _, err := inst.Get(context.Background(), "score"); err != nil {
		t.Fatalf("get: %v", err)
	}

	trace := inst.Trace()
	if len(trace.Fields) != 1 {
		t.Fatalf("expected one provenance entry, got %+v", trace.Fields)
	}
	entry := trace.Fields[0]
	if entry.Field != "score" || entry.Source != SourceResolver || entry.Value != 99 {
		t.Fatalf("unexpected provenance: %+v", entry)
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	f := newUserFixture()
	inst := f.desc.NewInstance()
	inst.Set("username", "alice")

	payload, err := inst.Trace().ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.EntityType != "User" || decoded.InstanceID != inst.ID().String() {
		t.Fatalf("unexpected decoded trace: %+v", decoded)
	}
	if len(decoded.Fields) != 1 || decoded.Fields[0].Field != "username" {
		t.Fatalf("unexpected decoded fields: %+v", decoded.Fields)
	}
	if decoded.Fields[0].Source != SourceManual || decoded.Fields[0].Value != "alice" {
		t.Fatalf("unexpected decoded entry: %+v", decoded.Fields[0])
	}
}

func TestTraceIsDetachedFromInstance(t *testing.T) {
	f := newUserFixture()
	inst := f.desc.NewInstance()
	inst.Set("username", "alice")

	trace := inst.Trace()
	trace.Fields[0].Field = "tampered"

	if inst.Trace().Fields[0].Field != "username" {
		t.Fatalf("trace copy must not alias instance history")
	}
}
