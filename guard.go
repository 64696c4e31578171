package resolve

// recursionGuard tracks field names currently being resolved on one
// instance. It is a plain set: resolution for an instance happens on a
// single logical thread of control, so no internal locking is needed.
type recursionGuard map[string]struct{}

// tryAcquire adds name to the guard and reports whether it was already
// held. A held name means a resolver or hook re-entered the field it is
// resolving; the proxy returns the raw value instead of recursing.
func (g recursionGuard) tryAcquire(name string) bool {
	if _, held := g[name]; held {
		return true
	}
	g[name] = struct{}{}
	return false
}

func (g recursionGuard) release(name string) {
	delete(g, name)
}
