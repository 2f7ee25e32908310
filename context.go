package goSession

import "context"

type managerContextKey struct{}

// NewContext attaches m to ctx so handlers deeper in a call chain can read the current
// session without a package-level manager.
func NewContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerContextKey{}, m)
}

// FromContext returns the manager attached by [NewContext].
func FromContext(ctx context.Context) (*Manager, bool) {
	if ctx == nil {
		return nil, false
	}

	m, _ := ctx.Value(managerContextKey{}).(*Manager)
	return m, m != nil
}

// SnapshotFromContext returns the current snapshot of the manager attached to ctx. Without
// a manager it reports an uninitialized, loading snapshot.
func SnapshotFromContext(ctx context.Context) Snapshot {
	m, ok := FromContext(ctx)
	if !ok {
		return Snapshot{State: StateUninitialized, Loading: true}
	}
	return m.Snapshot()
}
