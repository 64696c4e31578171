package resolve

import (
	"fmt"

	"github.com/goliatone/go-resolve/internal/hydrate"
)

// As decodes the instance's raw field snapshot into a caller struct via a
// JSON round-trip. Unset fields decode to zero values; proxied fields are
// not resolved first, so callers wanting full population should read them
// through Get before hydrating.
func As[T any](inst *Instance, opts ...hydrate.DecoderOption[T]) (T, error) {
	var zero T
	if inst == nil {
		return zero, fmt.Errorf("resolve: instance is nil")
	}
	decoder := hydrate.NewDecoder(opts...)
	return decoder.Decode(hydrate.Context{
		EntityType: inst.EntityType(),
		InstanceID: inst.id.String(),
	}, inst.Snapshot())
}

// DecodeRecord decodes a fallback record into a caller struct.
func DecodeRecord[T any](entityType string, record RawRecord, opts ...hydrate.DecoderOption[T]) (T, error) {
	decoder := hydrate.NewDecoder(opts...)
	return decoder.Decode(hydrate.Context{EntityType: entityType}, record)
}
