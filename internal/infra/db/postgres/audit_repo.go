package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/image-caption/internal/domain/audit"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Save inserts an event; a repeated id overwrites the outcome columns.
func (r *AuditRepository) Save(ctx context.Context, e *domain.Event) error {
	const q = `
INSERT INTO caption_requests
  (id, request_id, provider, model, mime_type, size_bytes, status_code, error_class, fallback, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  status_code=EXCLUDED.status_code,
  error_class=EXCLUDED.error_class,
  fallback=EXCLUDED.fallback,
  duration_ms=EXCLUDED.duration_ms;
`
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		stringOrDash(e.RequestID),
		stringOrDash(e.Provider),
		stringOrDash(e.Model),
		stringOrDash(e.MimeType),
		e.SizeBytes,
		e.StatusCode,
		e.ErrorClass,
		e.Fallback,
		e.DurationMS,
		e.CreatedAt,
	)
	return err
}

// Recent returns the latest events, newest first.
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, request_id, provider, model, mime_type, size_bytes, status_code, error_class, fallback, duration_ms, created_at
FROM caption_requests
ORDER BY created_at DESC, id DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Provider, &e.Model, &e.MimeType, &e.SizeBytes,
			&e.StatusCode, &e.ErrorClass, &e.Fallback, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *AuditRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
