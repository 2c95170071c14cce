package seed

import (
	"context"
	"regexp"
	"testing"
	"time"

	"postboard/internal/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestBuildPosts(t *testing.T) {
	until := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	opts := Options{Count: 25, Seed: 42, MaxDays: 10, Until: until}

	posts := BuildPosts(opts)
	require.Len(t, posts, 25)

	from := until.Add(-10 * 24 * time.Hour)
	for _, p := range posts {
		assert.Zero(t, p.ID)
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Content)
		assert.False(t, p.CreatedAt.Before(from), "created_at %s before window", p.CreatedAt)
		assert.False(t, p.CreatedAt.After(until), "created_at %s after window", p.CreatedAt)
	}

	t.Run("same seed same content", func(t *testing.T) {
		again := BuildPosts(opts)
		for i := range posts {
			assert.Equal(t, posts[i].Title, again[i].Title)
			assert.Equal(t, posts[i].Content, again[i].Content)
		}
	})

	t.Run("nothing requested", func(t *testing.T) {
		assert.Empty(t, BuildPosts(Options{}))
	})
}

func TestPosts_InsertsInBatches(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := database.Open(sqlDB, logger.Discard)
	require.NoError(t, err)

	insert := regexp.QuoteMeta(`INSERT INTO "posts" ("title","content","created_at") VALUES ($1,$2,$3),($4,$5,$6) RETURNING "id"`)
	mock.ExpectQuery(insert).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts" ("title","content","created_at") VALUES ($1,$2,$3) RETURNING "id"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	n, err := Posts(context.Background(), db, Options{Count: 3, BatchSize: 2, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPosts_Errors(t *testing.T) {
	_, err := Posts(context.Background(), nil, Options{Count: 1})
	assert.Error(t, err)

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := database.Open(sqlDB, logger.Discard)
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO "posts"`).WillReturnError(assert.AnError)

	_, err = Posts(context.Background(), db, Options{Count: 1, Seed: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert posts")
}
