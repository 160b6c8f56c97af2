package gormscope_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gormscope"
	"gormscope/session"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ScopeIntegrationTestSuite verifies scope lifetime semantics against a real
// PostgreSQL server, where concurrent sessions hold genuinely independent
// connections and transactions.
type ScopeIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gormscope.DB
}

func (s *ScopeIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	engine, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.Require().NoError(engine.AutoMigrate(&Group{}, &User{}))

	s.db, err = gormscope.New(engine)
	s.Require().NoError(err)
}

func (s *ScopeIntegrationTestSuite) TearDownSuite() {
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *ScopeIntegrationTestSuite) SetupTest() {
	ctx := context.Background()
	_, err := s.db.Execute(ctx, gormscope.Stmt("DELETE FROM users"))
	s.Require().NoError(err)
	_, err = s.db.Execute(ctx, gormscope.Stmt("DELETE FROM groups"))
	s.Require().NoError(err)
}

func (s *ScopeIntegrationTestSuite) childCount(ctx context.Context, sess *session.Session, groupID uint) (int64, error) {
	var count int64
	err := sess.Query(ctx, &count, "SELECT count(*) FROM users WHERE group_id = ?", groupID)
	return count, err
}

// TestConcurrentScopes_EachUnitSeesOnlyItsOwnWork runs 40 concurrent logical
// units, each entering its own scope and attaching one child record to a
// shared parent. Cross-unit ordering is the caller's job, so a shared mutex
// serializes the mutation of the parent's children; within that, each unit
// asserts that its own scope observes the count growing by exactly one.
func (s *ScopeIntegrationTestSuite) TestConcurrentScopes_EachUnitSeesOnlyItsOwnWork() {
	ctx := context.Background()

	parent := Group{Name: "parent"}
	s.Require().NoError(s.db.Save(ctx, &parent))

	const units = 40
	var (
		mu        sync.Mutex
		committed int64
		wg        sync.WaitGroup
	)
	errCh := make(chan error, units)

	for i := range units {
		wg.Add(1)
		go func() {
			defer wg.Done()

			mu.Lock()
			defer mu.Unlock()

			err := s.db.WithScope(ctx, func(ctx context.Context, sess *session.Session) error {
				child := User{Username: fmt.Sprintf("child-%d", i), GroupID: &parent.ID}
				if err := sess.Create(ctx, &child); err != nil {
					return err
				}

				count, err := s.childCount(ctx, sess, parent.ID)
				if err != nil {
					return err
				}
				if count != committed+1 {
					return fmt.Errorf("scope saw %d children, want %d", count, committed+1)
				}
				return nil
			})
			if err != nil {
				errCh <- err
				return
			}
			committed++
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		s.Require().NoError(err)
	}

	// The default session, queried fresh, sees all 40 children.
	count, err := s.childCount(ctx, s.db.Session(ctx), parent.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.db.Session(ctx).Commit(ctx))
	s.Equal(int64(units), count)
}

func (s *ScopeIntegrationTestSuite) TestScopeCommitAndRollbackAgainstRealEngine() {
	ctx := context.Background()

	// A clean exit persists the write for fresh lookups.
	err := s.db.WithScope(ctx, func(ctx context.Context, sess *session.Session) error {
		return sess.Create(ctx, &User{Username: "pg-committed"})
	})
	s.Require().NoError(err)

	var count int64
	s.Require().NoError(s.db.Scalar(ctx, &count,
		gormscope.Stmt("SELECT count(*) FROM users WHERE username = ?", "pg-committed")))
	s.Equal(int64(1), count)

	// A failing body is rolled back and the error propagates.
	boom := errors.New("boom")
	err = s.db.WithScope(ctx, func(ctx context.Context, sess *session.Session) error {
		if err := sess.Create(ctx, &User{Username: "pg-rolled-back"}); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	s.Require().NoError(s.db.Scalar(ctx, &count,
		gormscope.Stmt("SELECT count(*) FROM users WHERE username = ?", "pg-rolled-back")))
	s.Zero(count)
}

func TestScopeIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ScopeIntegrationTestSuite))
}
