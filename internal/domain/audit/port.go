package audit

import "context"

// Repository persists analyze request outcomes.
type Repository interface {
	Save(ctx context.Context, e *Event) error
	Recent(ctx context.Context, limit int) ([]*Event, error)
	Ping(ctx context.Context) error
}
