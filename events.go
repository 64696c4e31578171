package resolve

import (
	"sort"

	"github.com/goliatone/go-resolve/pkg/activity"
)

func buildEntityFetchedEvent(inst *Instance, source Source) activity.Event {
	return activity.BuildEntityFetchedEvent(activity.ResolveEventInput{
		EntityType: inst.EntityType(),
		InstanceID: inst.id.String(),
		Source:     string(source),
	})
}

func buildEntityFallbackEvent(inst *Instance, record RawRecord) activity.Event {
	return activity.BuildEntityFallbackEvent(activity.ResolveEventInput{
		EntityType: inst.EntityType(),
		InstanceID: inst.id.String(),
		Source:     string(SourceFallback),
		RecordKeys: recordKeys(record),
	})
}

func buildFieldResolvedEvent(inst *Instance, field, engine string) activity.Event {
	return activity.BuildFieldResolvedEvent(activity.ResolveEventInput{
		EntityType: inst.EntityType(),
		InstanceID: inst.id.String(),
		Field:      field,
		Engine:     engine,
	})
}

func recordKeys(record RawRecord) []string {
	if len(record) == 0 {
		return nil
	}
	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
