package postgres

import (
	"context"
	"errors"
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

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE")).
		WithArgs("evt-1", "req-1", "gemini", "gemini-2.5-flash", "image/webp", int64(512), 429, "rate_limited", false, int64(90), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewAuditRepository(db).Save(context.Background(), &domain.Event{
		ID:         "evt-1",
		RequestID:  "req-1",
		Provider:   "gemini",
		Model:      "gemini-2.5-flash",
		MimeType:   "image/webp",
		SizeBytes:  512,
		StatusCode: 429,
		ErrorClass: "rate_limited",
		DurationMS: 90,
		CreatedAt:  created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_SaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO caption_requests")).WillReturnError(boom)

	err = NewAuditRepository(db).Save(context.Background(), &domain.Event{StatusCode: 200})
	assert.ErrorIs(t, err, boom)
}

func TestAuditRepository_Recent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "request_id", "provider", "model", "mime_type", "size_bytes",
		"status_code", "error_class", "fallback", "duration_ms", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a", "req-1", "openai", "gpt-4o", "image/png", 200, 200, "", false, 30, time.Now()))

	list, err := NewAuditRepository(db).Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "openai", list[0].Provider)
	assert.Equal(t, int64(30), list[0].DurationMS)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, NewAuditRepository(db).Ping(context.Background()))
}
