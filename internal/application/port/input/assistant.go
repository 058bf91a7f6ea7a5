package input

import (
	"context"

	"formbridge/internal/domain/entity"
	"formbridge/internal/domain/privacy"
)

// Assistant is the host application's entry point used by the orchestrator.
type Assistant interface {
	Capture(ctx context.Context) (*entity.FormSchema, error)
	Propose(ctx context.Context, schema *entity.FormSchema) (privacy.TokenFill, error)
	Fill(ctx context.Context, proposal privacy.TokenFill) (entity.FillSummary, error)
}
