package output

import (
	"context"

	"formbridge/internal/domain/entity"
	"formbridge/internal/domain/privacy"
)

// TokenProposerPort suggests placeholder tokens for fields a template did
// not cover. It only ever sees field descriptors, never values.
type TokenProposerPort interface {
	Propose(ctx context.Context, fields []entity.FormField) (privacy.TokenFill, error)
}

type PersonalDataPort = privacy.PersonalData
