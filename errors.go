package resolve

import (
	"errors"
	"fmt"
)

// ErrNotFound is the designated miss signal for primary fetch procedures.
// The engine consumes it internally and converts it into a fallback
// attempt; it is never surfaced to Fetch callers.
var ErrNotFound = errors.New("resolve: entity not found")

// ResolutionError captures resolution metadata alongside the originating error.
type ResolutionError struct {
	Engine string
	Entity string
	Field  string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("resolve: %s entity=%s %s: %v", e.Engine, e.Entity, describeField(e.Field), e.Err)
}

func (e *ResolutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfigurationError reports an invalid descriptor declaration, surfaced at
// registration time rather than first use.
type ConfigurationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Field == "" {
		return fmt.Sprintf("resolve: descriptor %q: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("resolve: descriptor %q field %q: %s", e.Entity, e.Field, e.Reason)
}

func describeField(field string) string {
	if field == "" {
		return "field=<none>"
	}
	return fmt.Sprintf("field=%q", field)
}

func wrapEngineError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return err
	}

	return fmt.Errorf("resolve: %s: %w", engine, err)
}

func wrapResolutionError(engine, entity, field string, err error) error {
	if err == nil {
		return nil
	}

	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		if resErr.Engine == "" {
			resErr.Engine = engine
		}
		if resErr.Entity == "" {
			resErr.Entity = entity
		}
		if resErr.Field == "" {
			resErr.Field = field
		}
		return resErr
	}

	return &ResolutionError{
		Engine: engine,
		Entity: entity,
		Field:  field,
		Err:    err,
	}
}
