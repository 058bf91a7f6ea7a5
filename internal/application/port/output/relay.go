package output

import (
	"context"

	"formbridge/internal/domain/entity"
)

// RelayPort is the host application's view of the relay, whichever
// transport carries the messages.
type RelayPort interface {
	Ping(ctx context.Context) (string, error)
	Capture(ctx context.Context) (*entity.FormSchema, error)
	Fill(ctx context.Context, fieldMappings map[string]string) ([]entity.FillResult, error)
	LastCapture(ctx context.Context) (*entity.FormSchema, error)
	ClearLastCapture(ctx context.Context) error
	Captures(ctx context.Context) ([]entity.CaptureHistoryEntry, error)
	SelectCapture(ctx context.Context, index int) (*entity.FormSchema, error)
	RemoveCapture(ctx context.Context, index int) error
	Close() error
}
