// Package page is the content script: what runs in the page context when
// the relay asks for a capture or a fill.
package page

import (
	"context"
	"fmt"

	"formbridge/internal/application/port/input"
	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/entity"
	"formbridge/internal/usecase/matcher"
	"formbridge/internal/usecase/page/filler"
	"formbridge/internal/usecase/page/scanner"
)

var _ input.ContentScript = (*ContentScript)(nil)

type ContentScript struct {
	scanner *scanner.Scanner
	library *matcher.Library
	filler  *filler.Executor
	logger  output.LoggerPort
}

func New(
	sc *scanner.Scanner,
	library *matcher.Library,
	fe *filler.Executor,
	logger output.LoggerPort,
) *ContentScript {
	return &ContentScript{
		scanner: sc,
		library: library,
		filler:  fe,
		logger:  logger,
	}
}

// Capture scans the tab and enriches the schema with the matching template.
func (c *ContentScript) Capture(ctx context.Context, tab output.TabPort) (*entity.FormSchema, error) {
	url, err := tab.URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("read tab url: %w", err)
	}
	title, err := tab.Title(ctx)
	if err != nil {
		return nil, fmt.Errorf("read tab title: %w", err)
	}
	html, err := tab.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot tab: %w", err)
	}

	schema, err := c.scanner.Scan(url, title, html)
	if err != nil {
		return nil, err
	}

	detected := matcher.Match(c.library, url, schema)
	out := schema.WithTemplate(detected)

	if detected != nil {
		c.logger.Info("Page captured", "url", url, "fields", len(out.Fields), "template", detected.TemplateID, "missing", len(detected.Missing))
	} else {
		c.logger.Info("Page captured", "url", url, "fields", len(out.Fields))
	}
	return &out, nil
}

// Fill runs the executor against the tab's DOM. Values are never logged.
func (c *ContentScript) Fill(ctx context.Context, tab output.TabPort, values map[string]string) (entity.FillTally, error) {
	dom, err := tab.DOM(ctx)
	if err != nil {
		return entity.FillTally{}, fmt.Errorf("open tab dom: %w", err)
	}
	return c.filler.Execute(ctx, dom, values), nil
}
