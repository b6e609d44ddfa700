package mysql

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/image-caption/internal/domain/audit"
)

func TestAuditRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAuditRepository(db)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO caption_requests")).
		WithArgs("evt-1", "req-1", "openai", "gpt-4o", "image/png", int64(2048), 200, "-", false, int64(812), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Save(context.Background(), &domain.Event{
		ID:         "evt-1",
		RequestID:  "req-1",
		Provider:   "openai",
		Model:      "gpt-4o",
		MimeType:   "image/png",
		SizeBytes:  2048,
		StatusCode: 200,
		DurationMS: 812,
		CreatedAt:  created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_SaveFillsDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO caption_requests")).
		WithArgs(sqlmock.AnyArg(), "-", "-", "-", "-", int64(0), 408, "timeout", false, int64(0), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := &domain.Event{StatusCode: 408, ErrorClass: "timeout"}
	require.NoError(t, NewAuditRepository(db).Save(context.Background(), e))

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_Recent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	cols := []string{"id", "request_id", "provider", "model", "mime_type", "size_bytes",
		"status_code", "error_class", "fallback", "duration_ms", "created_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("b", "req-2", "gemini", "gemini-2.5-flash", "image/jpeg", 100, 500, "upstream", false, 40, now).
		AddRow("a", "req-1", "openai", "gpt-4o", "image/png", 200, 200, "-", true, 30, now.Add(-time.Minute))

	mock.ExpectQuery(regexp.QuoteMeta("FROM caption_requests")).
		WithArgs(20).
		WillReturnRows(rows)

	list, err := NewAuditRepository(db).Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "upstream", list[0].ErrorClass)
	assert.Equal(t, "", list[1].ErrorClass)
	assert.True(t, list[1].Fallback)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	require.NoError(t, NewAuditRepository(db).Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS caption_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStringOrDash(t *testing.T) {
	assert.Equal(t, "-", stringOrDash("  "))
	assert.Equal(t, "x", stringOrDash("x"))
	assert.Equal(t, "", dashToEmpty("-"))
}
