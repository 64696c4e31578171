package resolve

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestValidateRejectsEmptyEntityType(t *testing.T) {
	d := NewDescriptor("")
	var cfgErr *ConfigurationError
	if err := d.Validate(); !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestValidateNilResolverRequiresFallback(t *testing.T) {
	d := NewDescriptor("User")
	d.RegisterProxiedField("followers", nil)

	var cfgErr *ConfigurationError
	if err := d.Validate(); !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if cfgErr.Field != "followers" {
		t.Fatalf("expected field in error, got %+v", cfgErr)
	}

	d.SetFallbackFetch(func(ctx context.Context, criteria Criteria) (RawRecord, error) {
		return RawRecord{}, nil
	})
	if err := d.Validate(); err != nil {
		t.Fatalf("expected valid descriptor, got %v", err)
	}
}

func TestValidateRecordResolverRequiresFallback(t *testing.T) {
	d := NewDescriptor("User")
	d.RegisterProxiedField("displayName", RecordResolverFunc(func(ctx context.Context, inst *Instance, record RawRecord) (any, error) {
		return record["displayName"], nil
	}))

	var cfgErr *ConfigurationError
	if err := d.Validate(); !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(cfgErr.Error(), "record resolver") {
		t.Fatalf("unexpected reason: %v", cfgErr)
	}
}

func TestValidatePlainResolverNeedsNoFallback(t *testing.T) {
	d := NewDescriptor("User")
	d.RegisterProxiedField("score", ResolverFunc(func(ctx context.Context, inst *Instance) (any, error) {
		return 1, nil
	}))
	if err := d.Validate(); err != nil {
		t.Fatalf("expected valid descriptor, got %v", err)
	}
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	reg := NewRegistry()

	first := NewDescriptor("User")
	second := NewDescriptor("User")
	if err := reg.Register(first); err != nil {
		t.Fatalf("register first: %v", err)
	}
	if err := reg.Register(second); err != nil {
		t.Fatalf("register second: %v", err)
	}

	got, ok := reg.Lookup("User")
	if !ok || got != second {
		t.Fatalf("expected last registration to win, got %p want %p", got, second)
	}
}

func TestRegistryRejectsInvalidDescriptor(t *testing.T) {
	reg := NewRegistry()
	d := NewDescriptor("User")
	d.RegisterProxiedField("followers", nil)

	var cfgErr *ConfigurationError
	if err := reg.Register(d); !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, ok := reg.Lookup("User"); ok {
		t.Fatalf("invalid descriptor must not be registered")
	}
}

func TestRegistryTypesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"Widget", "Account", "User"} {
		if err := reg.Register(NewDescriptor(name)); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	types := reg.Types()
	want := []string{"Account", "User", "Widget"}
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, types)
		}
	}
}

func TestDescribeReportsFieldsAndResolvers(t *testing.T) {
	d := NewDescriptor("User", WithFields("username", "followers", "displayName"))
	d.SetFallbackFetch(func(ctx context.Context, criteria Criteria) (RawRecord, error) {
		return RawRecord{}, nil
	})
	d.RegisterProxiedField("followers", nil)
	d.RegisterProxiedField("displayName", RecordResolverFunc(func(ctx context.Context, inst *Instance, record RawRecord) (any, error) {
		return record["displayName"], nil
	}))

	doc := Describe(d)
	if doc.EntityType != "User" || doc.HasPrimary || !doc.HasFallback || doc.HasHook {
		t.Fatalf("unexpected document header: %+v", doc)
	}

	byName := map[string]FieldDescriptor{}
	for _, field := range doc.Fields {
		byName[field.Name] = field
	}
	if len(byName) != 3 {
		t.Fatalf("expected three fields, got %+v", doc.Fields)
	}
	if field := byName["username"]; field.Proxied || field.Resolver != "" {
		t.Fatalf("unexpected plain field: %+v", field)
	}
	if field := byName["followers"]; !field.Proxied || field.Resolver != "merge" || field.WantsRecord {
		t.Fatalf("unexpected merge field: %+v", field)
	}
	if field := byName["displayName"]; !field.Proxied || field.Resolver != "custom" || !field.WantsRecord {
		t.Fatalf("unexpected record field: %+v", field)
	}

	data, err := doc.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	if !strings.Contains(string(data), `"entity_type":"User"`) {
		t.Fatalf("unexpected json: %s", data)
	}
}

func TestDescribeNilDescriptor(t *testing.T) {
	doc := Describe(nil)
	if doc.EntityType != "" || len(doc.Fields) != 0 {
		t.Fatalf("expected empty document, got %+v", doc)
	}
}
