package activity

import (
	"strings"
	"time"
)

// ResolveEventInput describes the common fields for resolution lifecycle events.
type ResolveEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	EntityType     string
	InstanceID     string
	Field          string
	Source         string
	Engine         string
	RecordKeys     []string
	OccurredAt     time.Time
}

// BuildEntityFetchedEvent constructs a normalized activity event for a
// completed entity fetch (primary hit or fallback-built instance).
func BuildEntityFetchedEvent(input ResolveEventInput) Event {
	return buildResolveEvent("entity.fetched", "entity", input)
}

// BuildEntityFallbackEvent constructs an activity event describing one
// fallback fetch-and-merge pass.
func BuildEntityFallbackEvent(input ResolveEventInput) Event {
	return buildResolveEvent("entity.fallback", "entity", input)
}

// BuildFieldResolvedEvent constructs an activity event for a lazily resolved
// field read.
func BuildFieldResolvedEvent(input ResolveEventInput) Event {
	return buildResolveEvent("field.resolved", "entity.field", input)
}

func buildResolveEvent(verb, objectType string, input ResolveEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.EntityType != "" {
		metadata = ensureMetadata(metadata)
		metadata["entity_type"] = input.EntityType
	}
	if input.Field != "" {
		metadata = ensureMetadata(metadata)
		metadata["field"] = input.Field
	}
	if input.Source != "" {
		metadata = ensureMetadata(metadata)
		metadata["source"] = input.Source
	}
	if input.Engine != "" {
		metadata = ensureMetadata(metadata)
		metadata["engine"] = input.Engine
	}
	if len(input.RecordKeys) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["record_keys"] = append([]string{}, input.RecordKeys...)
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.InstanceID)
	if objectID != "" && input.Field != "" {
		objectID = objectID + "." + input.Field
	}
	if objectID == "" {
		objectID = strings.TrimSpace(input.EntityType)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     objectType,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
