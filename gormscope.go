package gormscope

import (
	"context"
	"strings"

	"gormscope/errs"
	"gormscope/scope"
	"gormscope/session"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB is the client: it owns the session factory and the scope registry for
// one engine. The engine and its connection pool stay shared process-wide and
// are owned by the caller for their entire lifetime; DB never closes them.
//
// Construct one DB per engine at application startup and inject it where
// needed. There is no implicit per-engine caching: construction is explicit.
type DB struct {
	engine   *gorm.DB
	factory  *session.Factory
	registry *scope.Registry

	commitOnExit bool
	mode         session.Mode
}

// Option configures a DB at construction time.
type Option func(*DB)

// WithCommitOnScopeExit controls whether a scope commits its session when the
// body completes without error. Enabled by default; disabled, a clean scope
// exit closes the session without committing and uncommitted writes are
// discarded.
func WithCommitOnScopeExit(enabled bool) Option {
	return func(db *DB) {
		db.commitOnExit = enabled
	}
}

// WithSessionMode sets the execution mode for all sessions minted by this
// client. See session.Mode.
func WithSessionMode(m session.Mode) Option {
	return func(db *DB) {
		db.mode = m
	}
}

// New creates a client over a pre-built GORM engine.
//
// Example:
//
//	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	if err != nil {
//	    return nil, err
//	}
//	db, err := gormscope.New(gormDB)
func New(engine *gorm.DB, opts ...Option) (*DB, error) {
	if engine == nil {
		return nil, errs.NewConfigurationError("engine")
	}

	db := &DB{
		engine:       engine,
		commitOnExit: true,
	}
	for _, opt := range opts {
		opt(db)
	}

	db.factory = session.NewFactory(engine, session.WithMode(db.mode))
	db.registry = scope.NewRegistry(db.factory)
	return db, nil
}

// Open creates a client from a connection string, picking the driver from the
// URL scheme: postgres:// and postgresql:// map to the PostgreSQL driver,
// sqlite:// and plain file paths map to the pure-Go SQLite driver. An
// unrecognized scheme is a construction error, surfaced immediately and never
// retried.
func Open(dsn string, opts ...Option) (*DB, error) {
	dialector, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}

	engine, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, errs.NewConfigurationErrorWithCause("dsn", err)
	}
	return New(engine, opts...)
}

func dialectorFor(dsn string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.HasPrefix(dsn, "host="):
		return postgres.Open(dsn), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), nil
	case strings.HasPrefix(dsn, "file:"), strings.HasPrefix(dsn, ":memory:"),
		strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return sqlite.Open(dsn), nil
	default:
		return nil, errs.NewConfigurationError("dsn")
	}
}

// Engine returns the underlying GORM engine for operations outside the
// session lifecycle, such as migrations.
//
// Example:
//
//	db.Engine().AutoMigrate(&User{})
func (db *DB) Engine() *gorm.DB {
	return db.engine
}

// Session returns the current session for ctx: the session of the innermost
// active scope, or the shared default session when no scope is active. The
// default session is never committed or closed by the library; its
// transaction boundaries, and its safe concurrent use, belong to the caller.
func (db *DB) Session(ctx context.Context) *session.Session {
	return db.registry.Resolve(ctx)
}

// NewSession mints a standalone session whose lifecycle is fully owned by the
// caller. Scopes never close caller-minted sessions.
func (db *DB) NewSession() *session.Session {
	return db.factory.Create()
}
