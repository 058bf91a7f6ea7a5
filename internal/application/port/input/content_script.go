package input

import (
	"context"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/entity"
)

// ContentScript is what runs inside a page: capture and fill.
type ContentScript interface {
	Capture(ctx context.Context, tab output.TabPort) (*entity.FormSchema, error)
	Fill(ctx context.Context, tab output.TabPort, values map[string]string) (entity.FillTally, error)
}
