package gormscope

import (
	"context"
	"database/sql"

	"gormscope/session"
)

// Statement is a raw SQL statement with its bound parameters.
type Statement struct {
	SQL  string
	Args []any
}

// Stmt builds a Statement.
func Stmt(sql string, args ...any) Statement {
	return Statement{SQL: sql, Args: args}
}

// Result is what Execute returns: the affected row count plus, when a
// WithOnClosePre hook was given, the hook's product.
type Result struct {
	RowsAffected int64
	Value        any
}

// ExecOption parameterizes a single facade operation.
type ExecOption func(*execConfig)

type execConfig struct {
	target     *session.Session
	noCommit   bool
	onClosePre func(s *session.Session) (any, error)
}

// WithSessionTarget runs the operation on an explicitly supplied session
// instead of resolving the ambient one. The operation never closes it.
func WithSessionTarget(s *session.Session) ExecOption {
	return func(c *execConfig) {
		c.target = s
	}
}

// WithNoCommit disables the operation's automatic commit.
func WithNoCommit() ExecOption {
	return func(c *execConfig) {
		c.noCommit = true
	}
}

// WithOnClosePre registers a hook that runs against the live session after the
// statement but before an owned session is closed. Use it to extract anything
// that must be read while the session is still open.
func WithOnClosePre(fn func(s *session.Session) (any, error)) ExecOption {
	return func(c *execConfig) {
		c.onClosePre = fn
	}
}

func newExecConfig(opts []ExecOption) execConfig {
	cfg := execConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// resolveTarget picks the session a facade operation runs on: an explicitly
// supplied session, else the ambient scope's session, else a freshly minted
// throwaway. Only the throwaway is closed by the operation (needClose).
func (db *DB) resolveTarget(ctx context.Context, cfg execConfig) (s *session.Session, needClose bool) {
	if cfg.target != nil {
		return cfg.target, false
	}
	if db.registry.Bound(ctx) {
		return db.registry.Resolve(ctx), false
	}
	return db.NewSession(), true
}

// closeOwned closes a throwaway session, keeping the first error observed.
func closeOwned(ctx context.Context, s *session.Session, needClose bool, err *error) {
	if !needClose {
		return
	}
	if clErr := s.Close(context.WithoutCancel(ctx)); clErr != nil && *err == nil {
		*err = clErr
	}
}

// Execute runs a mutating statement and commits afterward unless WithNoCommit
// is given. Read statements should go through Query, Scalar or Scalars, which
// never auto-commit. The commit applies to whatever session was resolved,
// ambient included; only the close is ownership-gated.
//
// Example:
//
//	res, err := db.Execute(ctx, gormscope.Stmt(
//	    "UPDATE users SET username = ? WHERE id = ?", "new_user", 1))
func (db *DB) Execute(ctx context.Context, stmt Statement, opts ...ExecOption) (res Result, err error) {
	cfg := newExecConfig(opts)
	s, needClose := db.resolveTarget(ctx, cfg)
	defer closeOwned(ctx, s, needClose, &err)

	rows, err := s.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return Result{}, err
	}
	res = Result{RowsAffected: rows}

	if cfg.onClosePre != nil {
		res.Value, err = cfg.onClosePre(s)
		if err != nil {
			return Result{}, err
		}
	}

	if !cfg.noCommit {
		if err = s.Commit(ctx); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

// Query runs a read statement and scans the result into dest. Reads never
// auto-commit.
func (db *DB) Query(ctx context.Context, dest any, stmt Statement, opts ...ExecOption) (err error) {
	cfg := newExecConfig(opts)
	s, needClose := db.resolveTarget(ctx, cfg)
	defer closeOwned(ctx, s, needClose, &err)

	return s.Query(ctx, dest, stmt.SQL, stmt.Args...)
}

// Scalar runs a read statement and scans the first row's single column into
// dest.
//
// Example:
//
//	var count int64
//	err := db.Scalar(ctx, &count, gormscope.Stmt("SELECT count(*) FROM users"))
func (db *DB) Scalar(ctx context.Context, dest any, stmt Statement, opts ...ExecOption) error {
	return db.Query(ctx, dest, stmt, opts...)
}

// Scalars runs a read statement and scans all rows into dest, which must be a
// pointer to a slice.
func (db *DB) Scalars(ctx context.Context, dest any, stmt Statement, opts ...ExecOption) error {
	return db.Query(ctx, dest, stmt, opts...)
}

// Get loads a record by primary key into dest, returning (false, nil) when no
// row matches.
//
// Example:
//
//	var user User
//	found, err := db.Get(ctx, &user, 1)
func (db *DB) Get(ctx context.Context, dest any, id any, opts ...ExecOption) (found bool, err error) {
	cfg := newExecConfig(opts)
	s, needClose := db.resolveTarget(ctx, cfg)
	defer closeOwned(ctx, s, needClose, &err)

	return s.Get(ctx, dest, id)
}

// Delete removes the given records and commits when the operation owns the
// resolved session; inside a scope the delete stays pending until the scope
// exits.
func (db *DB) Delete(ctx context.Context, records ...any) (err error) {
	cfg := execConfig{}
	s, needClose := db.resolveTarget(ctx, cfg)
	defer closeOwned(ctx, s, needClose, &err)

	if err = s.Delete(ctx, records...); err != nil {
		return err
	}
	if needClose {
		return s.Commit(ctx)
	}
	return nil
}

// Save adds or merges the given records in one session and commits once for
// the whole batch.
//
// Example:
//
//	err := db.Save(ctx, &alice, &bob)
func (db *DB) Save(ctx context.Context, records ...any) error {
	return db.save(ctx, false, records)
}

// SaveRefresh is Save followed by a reload of each record's server-generated
// fields (sequence ids, column defaults) after the batch commits.
func (db *DB) SaveRefresh(ctx context.Context, records ...any) error {
	return db.save(ctx, true, records)
}

func (db *DB) save(ctx context.Context, refresh bool, records []any) (err error) {
	s, needClose := db.resolveTarget(ctx, execConfig{})
	defer closeOwned(ctx, s, needClose, &err)

	if err = s.Save(ctx, records...); err != nil {
		return err
	}
	if err = s.Commit(ctx); err != nil {
		return err
	}
	if refresh {
		for _, record := range records {
			if err = s.Refresh(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

// Refresh reloads a record's fields from the database by primary key.
func (db *DB) Refresh(ctx context.Context, record any, opts ...ExecOption) (err error) {
	cfg := newExecConfig(opts)
	s, needClose := db.resolveTarget(ctx, cfg)
	defer closeOwned(ctx, s, needClose, &err)

	return s.Refresh(ctx, record)
}

// RunIsolated invokes fn with the resolved session, committing afterward
// unless WithNoCommit. In offload mode the callable runs on its own goroutine
// (see session.Mode). The returned value is the WithOnClosePre hook's product,
// nil when no hook is set.
//
// Example:
//
//	_, err := db.RunIsolated(ctx, func(s *session.Session) error {
//	    return migrateLegacyRows(s)
//	})
func (db *DB) RunIsolated(ctx context.Context, fn func(s *session.Session) error, opts ...ExecOption) (value any, err error) {
	cfg := newExecConfig(opts)
	s, needClose := db.resolveTarget(ctx, cfg)
	defer closeOwned(ctx, s, needClose, &err)

	if err = s.RunIsolated(ctx, fn); err != nil {
		return nil, err
	}

	if cfg.onClosePre != nil {
		value, err = cfg.onClosePre(s)
		if err != nil {
			return nil, err
		}
	}

	if !cfg.noCommit {
		if err = s.Commit(ctx); err != nil {
			return nil, err
		}
	}
	return value, nil
}

// ExecuteConn runs a statement on a bare connection checked out from the
// engine's pool, outside any session or transaction.
func (db *DB) ExecuteConn(ctx context.Context, stmt Statement) (int64, error) {
	conn, err := db.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// QueryConn runs a read statement on a bare connection and hands the rows to
// fn before the connection is returned to the pool. fn must fully consume the
// rows it needs; they become unusable once QueryConn returns.
func (db *DB) QueryConn(ctx context.Context, stmt Statement, fn func(rows *sql.Rows) error) error {
	conn, err := db.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	if err := fn(rows); err != nil {
		return err
	}
	return rows.Err()
}

// RunIsolatedConn invokes fn with a bare pooled connection, offloading to a
// separate goroutine in offload mode. The connection is returned to the pool
// when fn finishes.
func (db *DB) RunIsolatedConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := db.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if db.mode != session.ModeOffload {
		return fn(conn)
	}

	done := make(chan error, 1)
	go func() {
		done <- fn(conn)
	}()
	return <-done
}

func (db *DB) conn(ctx context.Context) (*sql.Conn, error) {
	sqlDB, err := db.engine.DB()
	if err != nil {
		return nil, err
	}
	return sqlDB.Conn(ctx)
}
