package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const schema = `
CREATE TABLE IF NOT EXISTS caption_requests (
  id          CHAR(36)    NOT NULL PRIMARY KEY,
  request_id  VARCHAR(64) NOT NULL,
  provider    VARCHAR(32) NOT NULL,
  model       VARCHAR(64) NOT NULL,
  mime_type   VARCHAR(64) NOT NULL,
  size_bytes  BIGINT      NOT NULL,
  status_code INT         NOT NULL,
  error_class VARCHAR(32) NOT NULL,
  fallback    BOOLEAN     NOT NULL,
  duration_ms BIGINT      NOT NULL,
  created_at  DATETIME(3) NOT NULL,
  INDEX idx_caption_requests_created (created_at)
)`

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the audit table when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
