package gormscope_test

import (
	"context"
	"errors"
	"testing"

	"gormscope"
	"gormscope/errs"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDialector(t *testing.T) gorm.Dialector {
	t.Helper()
	return sqlite.Open(t.TempDir() + "/gormscope_test.db")
}

func TestNew(t *testing.T) {
	t.Run("nil_engine_is_a_configuration_error", func(t *testing.T) {
		// When
		db, err := gormscope.New(nil)

		// Then
		assert.Nil(t, db)
		assert.True(t, errors.Is(err, errs.ErrConfiguration))
	})

	t.Run("creates_client_over_prebuilt_engine", func(t *testing.T) {
		// Given
		engine, err := gorm.Open(testDialector(t), &gorm.Config{})
		require.NoError(t, err)

		// When
		db, err := gormscope.New(engine)

		// Then
		require.NoError(t, err)
		assert.Same(t, engine, db.Engine())
	})
}

func TestOpen(t *testing.T) {
	t.Run("opens_sqlite_from_file_path", func(t *testing.T) {
		// When
		db, err := gormscope.Open(t.TempDir() + "/open_test.db")

		// Then
		require.NoError(t, err)
		require.NoError(t, db.Engine().AutoMigrate(&User{}))

		_, err = db.Execute(context.Background(),
			gormscope.Stmt("INSERT INTO users (username) VALUES (?)", "opened"))
		require.NoError(t, err)
	})

	t.Run("opens_sqlite_from_scheme_prefixed_url", func(t *testing.T) {
		// When
		db, err := gormscope.Open("sqlite://" + t.TempDir() + "/scheme_test.db")

		// Then
		require.NoError(t, err)
		assert.NotNil(t, db.Engine())
	})

	t.Run("unknown_scheme_is_a_configuration_error", func(t *testing.T) {
		// When
		db, err := gormscope.Open("mongodb://localhost:27017/app")

		// Then
		assert.Nil(t, db)
		assert.True(t, errors.Is(err, errs.ErrConfiguration))
	})
}
