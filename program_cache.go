package resolve

// ProgramCache stores compiled expression programs keyed by expression
// strings. Shared across resolvers so repeated field reads reuse compiled
// programs instead of recompiling.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}
