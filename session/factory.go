package session

import (
	"gorm.io/gorm"
)

// Mode selects how a session bridges synchronous callables in RunIsolated.
type Mode int

const (
	// ModeBlocking runs callables inline on the calling goroutine.
	ModeBlocking Mode = iota

	// ModeOffload runs callables on a dedicated goroutine and waits for the
	// result. Use it when callables perform thread-blocking work (cgo drivers,
	// syscall-heavy code) that must not stall a latency-sensitive caller that
	// runs on a locked OS thread.
	ModeOffload
)

// Option configures a Factory at construction time. Options are injected once
// when the factory is built and apply to every session it creates; they are
// never re-specified per call.
type Option func(*config)

type config struct {
	mode Mode
}

// WithMode sets the execution mode for all sessions minted by the factory.
func WithMode(m Mode) Option {
	return func(c *config) {
		c.mode = m
	}
}

// Factory mints new sessions bound to an underlying GORM engine.
// It is a pure factory: it holds no state beyond its construction options,
// and Create never fails because the connection checkout happens lazily on
// the session's first statement, not at creation.
//
// Example:
//
//	factory := session.NewFactory(gormDB)
//	s := factory.Create()
//	defer s.Close(ctx)
//
//	if _, err := s.Exec(ctx, "UPDATE users SET name = ? WHERE id = ?", "bob", 1); err != nil {
//	    return err
//	}
//	return s.Commit(ctx)
type Factory struct {
	db  *gorm.DB
	cfg config
}

// NewFactory creates a session factory for the given engine.
// The engine's connection pool is shared by all sessions and stays owned by
// the caller for its entire lifetime.
func NewFactory(db *gorm.DB, opts ...Option) *Factory {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Factory{db: db, cfg: cfg}
}

// Create mints a new active session. It allocates only the handle object;
// no connection is checked out until the first statement runs.
func (f *Factory) Create() *Session {
	return &Session{db: f.db, mode: f.cfg.mode}
}

// Engine returns the underlying GORM engine the factory binds sessions to.
func (f *Factory) Engine() *gorm.DB {
	return f.db
}
