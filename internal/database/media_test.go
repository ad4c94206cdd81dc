package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/euacreations/streamvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &Repository{db: db}, mock
}

func TestBuildMediaQueryDefaultsToCompleted(t *testing.T) {
	query, params := buildMediaQuery(MediaFilters{})

	assert.Contains(t, query, "WHERE status = ?")
	assert.Contains(t, query, "ORDER BY uploaded_at DESC")
	assert.NotContains(t, query, "LIMIT")
	assert.Equal(t, []any{models.StatusCompleted}, params)
}

func TestBuildMediaQueryAllFilters(t *testing.T) {
	query, params := buildMediaQuery(MediaFilters{
		Category: "Tutorials",
		Search:   "gopher",
		Limit:    20,
		Offset:   40,
	})

	assert.Contains(t, query, "status = ?")
	assert.Contains(t, query, "category = ?")
	assert.Contains(t, query, "(title LIKE ? OR description LIKE ?)")
	assert.Contains(t, query, "LIMIT ? OFFSET ?")
	assert.Equal(t, []any{models.StatusCompleted, "Tutorials", "%gopher%", "%gopher%", 20, 40}, params)
}

func TestBuildMediaQueryIncludeAll(t *testing.T) {
	query, params := buildMediaQuery(MediaFilters{IncludeAll: true})

	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, params)
}

func TestBuildMediaQueryOffsetRequiresLimit(t *testing.T) {
	query, params := buildMediaQuery(MediaFilters{Offset: 10})

	assert.NotContains(t, query, "OFFSET")
	assert.Equal(t, []any{models.StatusCompleted}, params)
}

func TestDeleteMediaCascadesWatchHistory(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM media_files").WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM watch_history").WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteMedia(context.Background(), "m1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMediaRetryStillCascades(t *testing.T) {
	// A retry after a crash between the two deletes finds the media row
	// already gone; the watch history cascade must still run.
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM media_files").WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM watch_history").WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.DeleteMedia(context.Background(), "m1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStuckIngestionsCoversPendingAndProcessing(t *testing.T) {
	repo, mock := newMockRepository(t)
	cutoff := time.Now().UTC().Add(-time.Hour)

	columns := []string{
		"id", "title", "description", "category", "tags", "file_path",
		"thumbnail_path", "file_size", "duration", "resolution", "bitrate",
		"codec", "container", "status", "user_id", "uploaded_at",
	}
	rows := sqlmock.NewRows(columns).
		AddRow("a1", "Stale Upload", "", "General", "[]", nil, nil,
			int64(0), 0, nil, int64(0), nil, nil, string(models.StatusPending),
			int64(7), time.Now().UTC())

	mock.ExpectQuery("WHERE status IN").
		WithArgs(models.StatusPending, models.StatusProcessing, cutoff).
		WillReturnRows(rows)

	stuck, err := repo.ListStuckIngestions(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, "a1", stuck[0].ID)
	assert.Equal(t, models.StatusPending, stuck[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
