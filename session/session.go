package session

import (
	"context"
	"errors"

	"gormscope/errs"

	"gorm.io/gorm"
)

// Session is a unit-of-work handle: one coherent sequence of reads and writes
// against the engine, with at most one active transaction. The transaction is
// begun lazily by the first statement and ended by Commit or Rollback; the
// next statement after that begins a fresh one.
//
// A session is exclusively owned by one logical unit of work. It is not safe
// for concurrent use by multiple goroutines.
//
// Example:
//
//	s := factory.Create()
//	defer s.Close(ctx)
//
//	var name string
//	if err := s.Query(ctx, &name, "SELECT name FROM users WHERE id = ?", 1); err != nil {
//	    return err
//	}
//	if _, err := s.Exec(ctx, "UPDATE users SET visits = visits + 1 WHERE id = ?", 1); err != nil {
//	    return err
//	}
//	return s.Commit(ctx)
type Session struct {
	db     *gorm.DB
	tx     *gorm.DB
	mode   Mode
	closed bool
}

// Begin starts a transaction if none is active. It is idempotent: beginning an
// already-begun session is a no-op. Connectivity failures from the engine are
// returned unchanged.
func (s *Session) Begin(ctx context.Context) error {
	if s.closed {
		return errs.NewSessionClosedError("begin")
	}
	if s.tx != nil {
		return nil
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	s.tx = tx
	return nil
}

// conn returns the active transaction, beginning one if needed.
func (s *Session) conn(ctx context.Context, op string) (*gorm.DB, error) {
	if s.closed {
		return nil, errs.NewSessionClosedError(op)
	}
	if err := s.Begin(ctx); err != nil {
		return nil, err
	}
	return s.tx.WithContext(ctx), nil
}

// Commit finalizes the active transaction. Committing with no transaction
// begun is a no-op. After Commit the session stays active: the next statement
// begins a new transaction.
func (s *Session) Commit(ctx context.Context) error {
	if s.closed {
		return errs.NewSessionClosedError("commit")
	}
	if s.tx == nil {
		return nil
	}

	err := s.tx.WithContext(ctx).Commit().Error
	s.tx = nil
	if err != nil {
		return errs.NewTransactionErrorWithCause("commit", err)
	}
	return nil
}

// Rollback discards the active transaction. Rolling back with no transaction
// begun is a no-op. After Rollback the session stays active.
func (s *Session) Rollback(ctx context.Context) error {
	if s.closed {
		return errs.NewSessionClosedError("rollback")
	}
	if s.tx == nil {
		return nil
	}

	err := s.tx.WithContext(ctx).Rollback().Error
	s.tx = nil
	if err != nil {
		return errs.NewTransactionErrorWithCause("rollback", err)
	}
	return nil
}

// Close rolls back any pending transaction and marks the session terminally
// closed. Close is idempotent; every other operation on a closed session
// returns errs.SessionClosedError.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}

	var err error
	if s.tx != nil {
		err = s.tx.WithContext(ctx).Rollback().Error
		s.tx = nil
	}
	s.closed = true
	if err != nil {
		return errs.NewTransactionErrorWithCause("rollback", err)
	}
	return nil
}

// Closed reports whether the session has reached its terminal state.
func (s *Session) Closed() bool {
	return s.closed
}

// InTransaction reports whether a transaction is currently begun.
func (s *Session) InTransaction() bool {
	return s.tx != nil
}

// Exec runs a mutating SQL statement and returns the number of affected rows.
// The statement runs inside the session's transaction; it becomes visible to
// other sessions only after Commit.
func (s *Session) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tx, err := s.conn(ctx, "exec")
	if err != nil {
		return 0, err
	}

	res := tx.Exec(query, args...)
	return res.RowsAffected, res.Error
}

// Query runs a read statement and scans the result into dest. dest may be a
// pointer to a struct, a slice of structs, or a scalar value.
func (s *Session) Query(ctx context.Context, dest any, query string, args ...any) error {
	tx, err := s.conn(ctx, "query")
	if err != nil {
		return err
	}
	return tx.Raw(query, args...).Scan(dest).Error
}

// Get loads a record by primary key into dest. It returns (false, nil) when no
// row matches: "not found" is a clear signal, not an error.
//
// Example:
//
//	var user User
//	found, err := s.Get(ctx, &user, 1)
func (s *Session) Get(ctx context.Context, dest any, conds ...any) (bool, error) {
	tx, err := s.conn(ctx, "get")
	if err != nil {
		return false, err
	}

	err = tx.First(dest, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts the given records.
func (s *Session) Create(ctx context.Context, records ...any) error {
	tx, err := s.conn(ctx, "create")
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
	}
	return nil
}

// Save adds or merges the given records: records with a zero primary key are
// inserted, records with a set primary key are updated in place.
func (s *Session) Save(ctx context.Context, records ...any) error {
	tx, err := s.conn(ctx, "save")
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := tx.Save(record).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the given records by primary key.
func (s *Session) Delete(ctx context.Context, records ...any) error {
	tx, err := s.conn(ctx, "delete")
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := tx.Delete(record).Error; err != nil {
			return err
		}
	}
	return nil
}

// Refresh reloads the record from the database using its primary key,
// repopulating server-generated fields such as sequence ids and defaults.
func (s *Session) Refresh(ctx context.Context, record any) error {
	tx, err := s.conn(ctx, "refresh")
	if err != nil {
		return err
	}
	return tx.First(record).Error
}

// RunIsolated invokes fn with this session. In ModeBlocking the callable runs
// inline; in ModeOffload it runs on its own goroutine and RunIsolated waits
// for it to finish, so thread-blocking work inside fn does not pin the
// caller's OS thread. The session must not be used by the caller while fn
// runs.
func (s *Session) RunIsolated(ctx context.Context, fn func(s *Session) error) error {
	if s.closed {
		return errs.NewSessionClosedError("run")
	}

	if s.mode != ModeOffload {
		return fn(s)
	}

	done := make(chan error, 1)
	go func() {
		done <- fn(s)
	}()
	return <-done
}
