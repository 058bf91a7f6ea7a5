// Package filler writes literal values into a document, one field at a
// time, isolating failures per field.
package filler

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/entity"
)

type Config struct {
	// AllowSelectors enables the raw CSS selector fallback after id and
	// name lookups.
	AllowSelectors bool
}

func DefaultConfig() Config {
	return Config{AllowSelectors: true}
}

type Executor struct {
	cfg    Config
	logger output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) *Executor {
	return &Executor{cfg: cfg, logger: logger}
}

// Execute fills every entry of values. It never returns an error: each
// field ends up filled, not_found or error in the tally.
func (e *Executor) Execute(ctx context.Context, dom output.FillDOM, values map[string]string) entity.FillTally {
	var tally entity.FillTally

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			tally.AddError(key, entity.FillStatusError, err.Error())
			continue
		}

		status, err := e.fillOne(ctx, dom, key, values[key])
		switch status {
		case entity.FillStatusFilled:
			tally.AddFilled(key)
		case entity.FillStatusNotFound:
			tally.AddError(key, status, "")
		default:
			tally.AddError(key, entity.FillStatusError, err.Error())
			e.logger.Warn("Fill field failed", "field", key, "error", err)
		}
	}

	e.logger.Info("Fill executed", "requested", len(values), "filled", len(tally.Filled), "failed", len(tally.Errors))
	return tally
}

func (e *Executor) fillOne(ctx context.Context, dom output.FillDOM, key, value string) (status entity.FillStatus, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = entity.FillStatusError
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	field, err := e.locate(ctx, dom, key)
	if errors.Is(err, output.ErrFieldNotFound) {
		return entity.FillStatusNotFound, nil
	}
	if err != nil {
		return entity.FillStatusError, err
	}

	if err := field.Assign(ctx, value); err != nil {
		return entity.FillStatusError, fmt.Errorf("assign: %w", err)
	}
	return entity.FillStatusFilled, nil
}

// locate resolves a synthetic id by its position first, then tries the id,
// the name attribute and finally the key as a CSS selector. The scanner
// never keeps a DOM id shaped like a synthetic id of another position, so
// the position is authoritative for such keys.
func (e *Executor) locate(ctx context.Context, dom output.FillDOM, key string) (output.FieldHandle, error) {
	if form, index, ok := entity.ParseSyntheticFieldID(key); ok {
		field, err := dom.ByPosition(ctx, form, index)
		if !errors.Is(err, output.ErrFieldNotFound) {
			return field, err
		}
	}

	field, err := dom.ByID(ctx, key)
	if !errors.Is(err, output.ErrFieldNotFound) {
		return field, err
	}

	field, err = dom.ByName(ctx, key)
	if !errors.Is(err, output.ErrFieldNotFound) {
		return field, err
	}

	if !e.cfg.AllowSelectors {
		return nil, output.ErrFieldNotFound
	}
	return dom.BySelector(ctx, key)
}
