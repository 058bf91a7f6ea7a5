package output

import (
	"context"

	"formbridge/internal/domain/entity"
)

// StoredCapture is a capture the host keeps across restarts.
type StoredCapture struct {
	ID       int64
	Selected bool
	Schema   entity.FormSchema
}

type CaptureStorePort interface {
	Save(ctx context.Context, schema entity.FormSchema) (int64, error)
	List(ctx context.Context) ([]StoredCapture, error)
	Select(ctx context.Context, id int64) error
	Selected(ctx context.Context) (*StoredCapture, error)
	Remove(ctx context.Context, id int64) error
	Close() error
}
