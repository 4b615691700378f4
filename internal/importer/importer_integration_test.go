//go:build integration

package importer

import (
	"context"
	"testing"
	"time"

	"yamdb/internal/db"
	"yamdb/internal/models"
	"yamdb/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("yamdb"),
		postgres.WithUsername("yamdb"),
		postgres.WithPassword("yamdb"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	conn, err := db.Open(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	return conn
}

func TestLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t)
	dir := writeDir(t, nil)

	// Rows created before the import are replaced.
	require.NoError(t, conn.Create(&models.User{Username: "stale", Email: "stale@example.com"}).Error)

	for i := 0; i < 2; i++ {
		_, err := Run(ctx, conn, dir)
		require.NoError(t, err)
	}

	s := store.NewGormStore(conn)
	_, err := s.GetUserByUsername(ctx, "stale")
	assert.ErrorIs(t, err, store.ErrNotFound)

	users, total, err := s.ListUsers(ctx, "", store.Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "bingobongo", users[0].Username)

	title, err := s.GetTitle(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, title.Rating)
	assert.InDelta(t, 10.0, *title.Rating, 0.001)
	assert.Len(t, title.Genres, 2)

	// Sequences moved past the imported ids.
	fresh := &models.Category{Name: "Music", Slug: "music"}
	require.NoError(t, s.CreateCategory(ctx, fresh))
	assert.Greater(t, fresh.ID, uint(2))
}

func TestLoadRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t)

	_, err := Run(ctx, conn, writeDir(t, nil))
	require.NoError(t, err)

	// A review pointing at a missing title violates its foreign key.
	broken, err := Parse(writeDir(t, map[string]string{
		ReviewsFile: "id,title_id,text,author,score,pub_date\n1,99,t,100,5,2019-09-24\n",
	}))
	require.NoError(t, err)
	require.Error(t, Load(ctx, conn, broken))

	var reviews int64
	require.NoError(t, conn.Model(&models.Review{}).Count(&reviews).Error)
	assert.EqualValues(t, 1, reviews)
}
