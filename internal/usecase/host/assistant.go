// Package host is the assistant the orchestrator talks to. It is the only
// place where placeholder tokens are turned into personal data.
package host

import (
	"context"
	"errors"
	"fmt"

	"formbridge/internal/application/port/input"
	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/entity"
	"formbridge/internal/domain/privacy"
	"formbridge/internal/usecase/matcher"
)

var (
	ErrNoSchema = errors.New("no captured schema")
	ErrNoStore  = errors.New("no capture store configured")
)

var _ input.Assistant = (*Assistant)(nil)

type Assistant struct {
	relay    output.RelayPort
	data     output.PersonalDataPort
	store    output.CaptureStorePort
	proposer output.TokenProposerPort
	asker    output.UserInteractionPort
	logger   output.LoggerPort
}

type Option func(*Assistant)

// WithStore persists every capture.
func WithStore(store output.CaptureStorePort) Option {
	return func(a *Assistant) { a.store = store }
}

// WithProposer asks p about fields no template mapping covered.
func WithProposer(p output.TokenProposerPort) Option {
	return func(a *Assistant) { a.proposer = p }
}

// WithAsker asks the user for personal data the record lacks before
// filling. Answers are used for this fill only.
func WithAsker(u output.UserInteractionPort) Option {
	return func(a *Assistant) { a.asker = u }
}

func New(relay output.RelayPort, data output.PersonalDataPort, logger output.LoggerPort, opts ...Option) *Assistant {
	a := &Assistant{relay: relay, data: data, logger: logger}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Assistant) Capture(ctx context.Context) (*entity.FormSchema, error) {
	schema, err := a.relay.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	if a.store != nil {
		id, err := a.store.Save(ctx, *schema)
		if err != nil {
			a.logger.Warn("Capture not persisted", "url", schema.URL, "error", err)
		} else {
			a.logger.Debug("Capture persisted", "id", id)
		}
	}

	a.logger.Info("Captured form",
		"url", schema.URL,
		"fields", len(schema.Fields),
		"template", templateID(schema),
	)
	return schema, nil
}

// Propose builds the token proposal for schema: template mappings first,
// then proposer suggestions for the fields left over. Template rows always
// win over suggestions.
func (a *Assistant) Propose(ctx context.Context, schema *entity.FormSchema) (privacy.TokenFill, error) {
	if schema == nil {
		return nil, ErrNoSchema
	}

	proposal := matcher.Proposal(schema.DetectedTemplate)

	if a.proposer != nil {
		var open []entity.FormField
		for _, f := range schema.Fields {
			if _, mapped := proposal[f.ID]; !mapped && !f.IsPassword() {
				open = append(open, descriptorOnly(f))
			}
		}
		if len(open) > 0 {
			suggested, err := a.proposer.Propose(ctx, open)
			if err != nil {
				a.logger.Warn("Token proposer failed", "error", err)
			}
			for id, tok := range suggested {
				if _, ok := schema.Field(id); !ok {
					continue
				}
				if _, taken := proposal[id]; !taken {
					proposal[id] = tok
				}
			}
		}
	}

	if err := proposal.Validate(); err != nil {
		return nil, err
	}
	return proposal, nil
}

// Fill substitutes personal data for the proposal and sends only the
// resolved literals. Fields without a value are reported back as
// unresolved, never filled.
func (a *Assistant) Fill(ctx context.Context, proposal privacy.TokenFill) (entity.FillSummary, error) {
	if err := proposal.Validate(); err != nil {
		return entity.FillSummary{}, err
	}

	sub := privacy.Substitute(proposal, a.data)
	if a.asker != nil && len(sub.Unresolved()) > 0 {
		answers, err := a.ask(ctx, sub)
		if err != nil {
			return entity.FillSummary{}, err
		}
		if len(answers) > 0 {
			sub = privacy.Substitute(proposal, overlay{answers, a.data})
		}
	}
	summary := entity.FillSummary{Unresolved: sub.Unresolved()}

	literals := sub.Literals()
	if len(literals) == 0 {
		a.logger.Info("Nothing to fill", "unresolved", len(summary.Unresolved))
		return summary, nil
	}

	results, err := a.relay.Fill(ctx, literals.Wire())
	if err != nil {
		return summary, fmt.Errorf("fill: %w", err)
	}
	summary.Results = results

	a.logger.Info("Form filled",
		"fields", literals.Fields(),
		"filled", summary.FilledCount(),
		"failed", summary.FailedCount(),
		"unresolved", len(summary.Unresolved),
	)
	return summary, nil
}

// SelectCapture makes the relay's index-th capture current and records the
// same choice in the store, so Selected and Fill follow it.
func (a *Assistant) SelectCapture(ctx context.Context, index int) (*entity.FormSchema, error) {
	schema, err := a.relay.SelectCapture(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("select capture %d: %w", index, err)
	}
	if schema == nil {
		return nil, ErrNoSchema
	}
	if a.store != nil {
		if err := a.remember(ctx, *schema); err != nil {
			return nil, err
		}
	}
	return schema, nil
}

// SelectStored selects a persisted capture by its store id.
func (a *Assistant) SelectStored(ctx context.Context, id int64) (*entity.FormSchema, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	if err := a.store.Select(ctx, id); err != nil {
		return nil, err
	}
	return a.Selected(ctx)
}

func (a *Assistant) RemoveStored(ctx context.Context, id int64) error {
	if a.store == nil {
		return ErrNoStore
	}
	return a.store.Remove(ctx, id)
}

// remember selects the stored row of schema, saving it first when the
// store has not seen it.
func (a *Assistant) remember(ctx context.Context, schema entity.FormSchema) error {
	stored, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range stored {
		if s.Schema.URL == schema.URL && s.Schema.CapturedAt.Equal(schema.CapturedAt) {
			return a.store.Select(ctx, s.ID)
		}
	}
	_, err = a.store.Save(ctx, schema)
	return err
}

// Selected returns the capture the user last picked, falling back to the
// relay's current capture.
func (a *Assistant) Selected(ctx context.Context) (*entity.FormSchema, error) {
	if a.store != nil {
		sc, err := a.store.Selected(ctx)
		if err != nil {
			return nil, err
		}
		if sc != nil {
			return &sc.Schema, nil
		}
	}
	schema, err := a.relay.LastCapture(ctx)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, ErrNoSchema
	}
	return schema, nil
}

// ask collects one answer per missing data key.
func (a *Assistant) ask(ctx context.Context, sub privacy.Substitution) (map[string]string, error) {
	answers := make(map[string]string)
	asked := make(map[string]bool)
	for _, field := range sub.Unresolved() {
		tok, _ := sub.UnresolvedToken(field)
		key, ok := tok.DataKey()
		if !ok || asked[key] {
			continue
		}
		asked[key] = true

		answer, err := a.asker.AskQuestion(ctx, fmt.Sprintf("Value for %s (field %s), empty to skip:", key, field))
		if err != nil {
			return nil, fmt.Errorf("ask for %s: %w", key, err)
		}
		if answer != "" {
			answers[key] = answer
		}
	}
	return answers, nil
}

// overlay reads answers first, then the record.
type overlay struct {
	answers map[string]string
	base    output.PersonalDataPort
}

func (o overlay) Lookup(key string) (string, bool) {
	if v, ok := o.answers[key]; ok {
		return v, true
	}
	if o.base == nil {
		return "", false
	}
	return o.base.Lookup(key)
}

// descriptorOnly strips the captured state from a field.
func descriptorOnly(f entity.FormField) entity.FormField {
	f.Value = ""
	f.Checked = false
	return f
}

func templateID(s *entity.FormSchema) string {
	if s.DetectedTemplate == nil {
		return ""
	}
	return s.DetectedTemplate.TemplateID
}
