package gormscope

import (
	"context"
	"fmt"

	"gormscope/session"
)

// Scope represents one entered unit-of-work boundary. It is created by
// EnterScope and must be exited exactly once, on every code path.
//
// A scope is either owning or borrowing. An owning scope minted a fresh
// session (or adopted whatever the registry mints under its explicit
// identifier) and tears it down on exit. A borrowing scope wraps a session
// the caller supplied, whose lifecycle the scope must not touch.
type Scope struct {
	db  *DB
	ctx context.Context

	sess         *session.Session // nil for identifier scopes until resolved
	closeOnExit  bool
	commitOnExit bool
	exited       bool
}

// ScopeOption configures a single EnterScope call.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	sess         *session.Session
	id           any
	commitOnExit *bool
}

// WithSession enters the scope around an existing session. The session is
// installed as current for the scope's duration but its lifecycle belongs to
// the caller: the scope never closes it on exit.
func WithSession(s *session.Session) ScopeOption {
	return func(c *scopeConfig) {
		c.sess = s
	}
}

// WithScopeID enters the scope under an opaque identifier. The registry mints
// a session lazily the first time the identifier is resolved; since nobody
// else owns that minted session, the scope still closes it on exit. The
// identifier itself is caller-managed and may be reused across scopes.
func WithScopeID(id any) ScopeOption {
	return func(c *scopeConfig) {
		c.id = id
	}
}

// WithCommitOnExit overrides the client-level commit-on-exit setting for this
// scope only.
func WithCommitOnExit(enabled bool) ScopeOption {
	return func(c *scopeConfig) {
		c.commitOnExit = &enabled
	}
}

// EnterScope begins a unit-of-work boundary and returns a derived context in
// which the scope's session is current. With no options a fresh session is
// minted and owned by the scope. The returned context must be used for all
// work inside the scope; discarding it on exit is what restores the outer
// scope's session for nested entries.
//
// Example:
//
//	ctx, sc := db.EnterScope(ctx)
//	defer func() { err = sc.Exit(err) }()
func (db *DB) EnterScope(ctx context.Context, opts ...ScopeOption) (context.Context, *Scope) {
	cfg := scopeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	sc := &Scope{db: db, commitOnExit: db.commitOnExit}
	if cfg.commitOnExit != nil {
		sc.commitOnExit = *cfg.commitOnExit
	}

	switch {
	case cfg.sess != nil:
		ctx = db.registry.BindSession(ctx, cfg.sess)
		sc.sess = cfg.sess
		sc.closeOnExit = false
	case cfg.id != nil:
		ctx = db.registry.BindID(ctx, cfg.id)
		sc.closeOnExit = true
	default:
		s := db.NewSession()
		ctx = db.registry.BindSession(ctx, s)
		sc.sess = s
		sc.closeOnExit = true
	}

	sc.ctx = ctx
	return ctx, sc
}

// Exit tears down the scope: it rolls back the session when the body failed
// (err != nil), otherwise commits when commit-on-exit is enabled, closes the
// session unless it was caller-supplied, and clears the registry entry.
// Exit runs its cleanup on every call path and never swallows the body error;
// a rollback or close failure during cleanup is chained onto it so both stay
// observable. Calling Exit again is a no-op.
func (sc *Scope) Exit(err error) error {
	if sc.exited {
		return err
	}
	sc.exited = true

	// Cleanup must run even when the body failed because ctx was canceled.
	ctx := context.WithoutCancel(sc.ctx)

	minted := sc.db.registry.Clear(sc.ctx)
	s := sc.sess
	if s == nil {
		s = minted
	}
	if s == nil {
		// Identifier scope whose body never resolved a session.
		return err
	}

	if err != nil {
		if rbErr := s.Rollback(ctx); rbErr != nil {
			err = fmt.Errorf("rollback failed during scope exit: %v (original error: %w)", rbErr, err)
		}
	} else if sc.commitOnExit {
		err = s.Commit(ctx)
	}

	if sc.closeOnExit {
		if clErr := s.Close(ctx); clErr != nil {
			if err != nil {
				err = fmt.Errorf("close failed during scope exit: %v (original error: %w)", clErr, err)
			} else {
				err = clErr
			}
		}
	}
	return err
}

// WithScope runs fn inside a scope entered with the given options, passing the
// derived context and the resolved session. The scope exits on every path: a
// returned error or a panic rolls the session back (the panic is re-raised
// after cleanup), a clean return commits per the commit-on-exit setting.
//
// Example:
//
//	err := db.WithScope(ctx, func(ctx context.Context, s *session.Session) error {
//	    if err := s.Create(ctx, &order); err != nil {
//	        return err
//	    }
//	    return notifyBilling(ctx, db) // resolves the same session via db.Session(ctx)
//	})
func (db *DB) WithScope(ctx context.Context, fn func(ctx context.Context, s *session.Session) error, opts ...ScopeOption) error {
	ctx, sc := db.EnterScope(ctx, opts...)
	s := db.registry.Resolve(ctx)

	defer func() {
		if r := recover(); r != nil {
			_ = sc.Exit(fmt.Errorf("panic in scoped body: %v", r))
			panic(r)
		}
	}()

	return sc.Exit(fn(ctx, s))
}
