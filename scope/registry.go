package scope

import (
	"context"
	"sync"

	"gormscope/session"
)

// slot is the per-logical-unit value installed by a scope: either a bound
// session (takes precedence) or an explicit scope identifier.
type slot struct {
	sess *session.Session
	id   any
}

// registryKey keys context values per registry instance, so independent
// clients sharing a process cannot collide.
type registryKey struct {
	r *Registry
}

// defaultID is the stable identifier representing "no explicit scope".
// The session cached under it is the default session shared by all code
// running outside any scope.
type defaultID struct{}

// Registry maps a scope identifier to at most one live session.
// It creates sessions on demand through the factory, returns the cached
// session for repeated lookups under the same identifier, and can be
// force-cleared. The registry never closes sessions: closing is the scope
// manager's responsibility.
type Registry struct {
	factory *session.Factory

	mu       sync.Mutex
	sessions map[any]*session.Session
}

// NewRegistry creates a registry minting sessions from the given factory.
func NewRegistry(factory *session.Factory) *Registry {
	return &Registry{
		factory:  factory,
		sessions: make(map[any]*session.Session),
	}
}

// BindSession derives a context carrying s as the current session.
// Resolve on the derived context returns s directly, without touching the
// cache. The previous slot value is restored automatically when the caller
// discards the derived context.
func (r *Registry) BindSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, registryKey{r}, slot{sess: s})
}

// BindID derives a context carrying an opaque scope identifier. The first
// Resolve under the identifier mints a session and caches it; later resolves
// return the same session until Clear.
func (r *Registry) BindID(ctx context.Context, id any) context.Context {
	return context.WithValue(ctx, registryKey{r}, slot{id: id})
}

// Bound reports whether ctx carries a scope slot for this registry, i.e.
// whether an ambient scope is active for the calling logical unit.
func (r *Registry) Bound(ctx context.Context) bool {
	_, ok := ctx.Value(registryKey{r}).(slot)
	return ok
}

// Resolve returns the current session for ctx.
//
// A bound session is returned directly. Otherwise the slot's identifier (or
// the stable default identifier when no scope is active) selects a cache
// entry, minting a session via the factory on first lookup. Two Resolve calls
// with the same slot value return the identical session, which is what lets
// nested call paths share one transaction.
func (r *Registry) Resolve(ctx context.Context) *session.Session {
	v, _ := ctx.Value(registryKey{r}).(slot)
	if v.sess != nil {
		return v.sess
	}

	key := cacheKey(v)
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		s = r.factory.Create()
		r.sessions[key] = s
	}
	return s
}

// Clear drops the cache entry under the slot's current identifier and returns
// the removed session, or nil if the slot holds a bound session or nothing was
// cached. The removed session is not closed.
func (r *Registry) Clear(ctx context.Context) *session.Session {
	v, _ := ctx.Value(registryKey{r}).(slot)
	if v.sess != nil {
		return nil
	}

	key := cacheKey(v)
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[key]
	delete(r.sessions, key)
	return s
}

// Default returns the session visible outside any scope, minting it on first
// use. It is process-wide shared state: the registry never commits or closes
// it, and safe concurrent use is the caller's responsibility.
func (r *Registry) Default() *session.Session {
	return r.Resolve(context.Background())
}

func cacheKey(v slot) any {
	if v.id != nil {
		return v.id
	}
	return defaultID{}
}
