package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kailas-cloud/zokey/internal/db"
	"github.com/kailas-cloud/zokey/internal/domain/query"
	"github.com/kailas-cloud/zokey/internal/domain/user"
)

func newHistoryRepoWithMock(t *testing.T) (*HistoryRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &HistoryRepo{db: conn, now: func() time.Time { return fixedNow }}, mock, func() { _ = conn.Close() }
}

func TestRecordSearch(t *testing.T) {
	repo, mock, done := newHistoryRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO search_history").
		WithArgs(sqlmock.AnyArg(), "u-1", "electronics", "laptops", "abcdef0123456789",
			sqlmock.AnyArg(), "UK", 5, true, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.RecordSearch(context.Background(), user.HistoryEntry{
		UserID:        "u-1",
		CategoryID:    "electronics",
		SubcategoryID: "laptops",
		QueryHash:     "abcdef0123456789",
		Region:        "UK",
		ResultsCount:  5,
		Completed:     true,
	}, query.Normalized{Keywords: []string{"laptops"}})
	if err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("expected uuid id, got %q", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordSearch_Error(t *testing.T) {
	repo, mock, done := newHistoryRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO search_history").WillReturnError(errors.New("fk violation"))

	_, err := repo.RecordSearch(context.Background(), user.HistoryEntry{ID: "s-1", UserID: "ghost"}, query.Normalized{})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpInsert {
		t.Fatalf("expected db.Error INSERT, got %v", err)
	}
}

func TestTrack(t *testing.T) {
	repo, mock, done := newHistoryRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO analytics_events").
		WithArgs(sqlmock.AnyArg(), "user_registered", []byte(`{"region":"UK"}`), fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Track(context.Background(), user.Event{
		UserID: "u-1",
		Name:   "user_registered",
		Data:   map[string]any{"region": "UK"},
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
