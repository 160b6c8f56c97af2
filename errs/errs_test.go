package errs_test

import (
	"errors"
	"testing"

	"gormscope/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationError(t *testing.T) {
	t.Run("NewConfigurationError", func(t *testing.T) {
		err := errs.NewConfigurationError("dsn")

		assert.Equal(t, "dsn", err.ParamName)
		require.NoError(t, err.Cause)
		assert.Equal(t, "invalid configuration: dsn", err.Error())
		assert.Equal(t, errs.ErrConfiguration, err.Unwrap())
	})

	t.Run("NewConfigurationErrorWithCause", func(t *testing.T) {
		cause := errors.New("unknown scheme")
		err := errs.NewConfigurationErrorWithCause("dsn", cause)

		assert.Equal(t, "dsn", err.ParamName)
		assert.Equal(t, cause, err.Cause)
		assert.Equal(t, "invalid configuration: dsn (cause: unknown scheme)", err.Error())
		assert.Equal(t, errs.ErrConfiguration, err.Unwrap())
	})

	t.Run("matches_sentinel_with_errors_is", func(t *testing.T) {
		var err error = errs.NewConfigurationError("engine")
		assert.True(t, errors.Is(err, errs.ErrConfiguration))
	})
}

func TestSessionClosedError(t *testing.T) {
	t.Run("NewSessionClosedError", func(t *testing.T) {
		err := errs.NewSessionClosedError("commit")

		assert.Equal(t, "commit", err.Op)
		assert.Equal(t, "session is closed: commit", err.Error())
		assert.Equal(t, errs.ErrSessionClosed, err.Unwrap())
	})

	t.Run("matches_sentinel_with_errors_is", func(t *testing.T) {
		var err error = errs.NewSessionClosedError("exec")
		assert.True(t, errors.Is(err, errs.ErrSessionClosed))
	})
}

func TestTransactionError(t *testing.T) {
	t.Run("NewTransactionError", func(t *testing.T) {
		err := errs.NewTransactionError("commit")

		assert.Equal(t, "commit", err.Op)
		require.NoError(t, err.Cause)
		assert.Equal(t, "transaction commit failed", err.Error())
		assert.Equal(t, errs.ErrTransaction, err.Unwrap())
	})

	t.Run("NewTransactionErrorWithCause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := errs.NewTransactionErrorWithCause("rollback", cause)

		assert.Equal(t, "rollback", err.Op)
		assert.Equal(t, cause, err.Cause)
		assert.Equal(t, "transaction rollback failed (cause: connection reset)", err.Error())
		assert.Equal(t, errs.ErrTransaction, err.Unwrap())
	})

	t.Run("matches_sentinel_with_errors_is", func(t *testing.T) {
		var err error = errs.NewTransactionErrorWithCause("commit", errors.New("boom"))
		assert.True(t, errors.Is(err, errs.ErrTransaction))
	})
}
