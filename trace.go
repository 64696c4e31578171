package resolve

import (
	"encoding/json"
	"time"
)

// Source identifies where a field value came from.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
	SourceResolver Source = "resolver"
	SourceManual   Source = "manual"
)

// Provenance details one field write observed on an instance.
type Provenance struct {
	Field  string    `json:"field"`
	Source Source    `json:"source"`
	Value  any       `json:"value,omitempty"`
	At     time.Time `json:"at"`
}

// Trace captures the provenance history of an instance: every traced write,
// in order, with the source that produced it.
type Trace struct {
	EntityType string       `json:"entity_type"`
	InstanceID string       `json:"instance_id"`
	Fields     []Provenance `json:"fields"`
}

// Trace returns the provenance history recorded so far.
func (i *Instance) Trace() Trace {
	fields := make([]Provenance, len(i.trace))
	copy(fields, i.trace)
	return Trace{
		EntityType: i.EntityType(),
		InstanceID: i.id.String(),
		Fields:     fields,
	}
}

// ToJSON serialises the trace for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload previously generated via ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
