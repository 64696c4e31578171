package resolve

import "time"

// ResolveLogEvent describes one resolution attempt for logging.
type ResolveLogEvent struct {
	Op       string
	Engine   string
	Entity   string
	Field    string
	Expr     string
	Duration time.Duration
	Err      error
}

// Operation labels used in ResolveLogEvent.Op.
const (
	OpFetch    = "fetch"
	OpFallback = "fallback"
	OpField    = "field"
	OpEvaluate = "evaluate"
	OpActivity = "activity"
)

// ResolveLogger records resolution events.
type ResolveLogger interface {
	LogResolution(ResolveLogEvent)
}

// ResolveLoggerFunc adapts a function to ResolveLogger.
type ResolveLoggerFunc func(ResolveLogEvent)

// LogResolution implements ResolveLogger.
func (f ResolveLoggerFunc) LogResolution(event ResolveLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopResolveLogger struct{}

func (noopResolveLogger) LogResolution(ResolveLogEvent) {}

// WithLogger attaches a resolution logger to the descriptor.
func WithLogger(logger ResolveLogger) DescriptorOption {
	return func(d *Descriptor) {
		if logger == nil {
			d.logger = noopResolveLogger{}
			return
		}
		d.logger = logger
	}
}
