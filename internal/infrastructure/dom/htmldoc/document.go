// Package htmldoc is an in-memory page: a parsed HTML document that can be
// scanned and filled without a browser. It backs offline captures of
// saved pages and the page-context tests.
package htmldoc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/entity"
)

const controlSelector = "input, select, textarea"

var (
	_ output.TabPort = (*Document)(nil)
	_ output.FillDOM = (*Document)(nil)
)

// Event is one notification dispatched by Assign.
type Event struct {
	Field string
	Type  string
}

type Document struct {
	mu     sync.Mutex
	url    string
	doc    *goquery.Document
	events []Event
}

func Parse(pageURL, rawHTML string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{url: pageURL, doc: doc}, nil
}

func (d *Document) URL(ctx context.Context) (string, error) {
	return d.url, nil
}

func (d *Document) Title(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.TrimSpace(d.doc.Find("title").First().Text()), nil
}

func (d *Document) Snapshot(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return goquery.OuterHtml(d.doc.Selection)
}

func (d *Document) DOM(ctx context.Context) (output.FillDOM, error) {
	return d, nil
}

func (d *Document) ByID(ctx context.Context, id string) (output.FieldHandle, error) {
	return d.first(id, func(s *goquery.Selection) bool {
		return s.AttrOr("id", "") == id
	})
}

func (d *Document) ByName(ctx context.Context, name string) (output.FieldHandle, error) {
	return d.first(name, func(s *goquery.Selection) bool {
		return s.AttrOr("name", "") == name
	})
}

func (d *Document) ByPosition(ctx context.Context, form, index int) (output.FieldHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var controls *goquery.Selection
	if form == entity.StandaloneForm {
		controls = live(d.doc.Find(controlSelector)).FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Closest("form").Length() == 0
		})
	} else {
		controls = live(live(d.doc.Find("form")).Eq(form).Find(controlSelector))
	}

	found := controls.Eq(index)
	if found.Length() == 0 {
		return nil, output.ErrFieldNotFound
	}
	return &field{doc: d, key: entity.SyntheticFieldID(form, index), sel: found}, nil
}

func (d *Document) BySelector(ctx context.Context, selector string) (output.FieldHandle, error) {
	if _, err := cascadia.Compile(selector); err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	found := d.doc.Find(selector).First()
	if found.Length() == 0 {
		return nil, output.ErrFieldNotFound
	}
	return &field{doc: d, key: selector, sel: found}, nil
}

func (d *Document) first(key string, match func(*goquery.Selection) bool) (output.FieldHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	found := live(d.doc.Find(controlSelector)).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return match(s)
	}).First()
	if found.Length() == 0 {
		return nil, output.ErrFieldNotFound
	}
	return &field{doc: d, key: key, sel: found}, nil
}

// Value returns the current value of the first control with the given id.
func (d *Document) Value(id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := live(d.doc.Find(controlSelector)).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == id
	}).First()
	if s.Length() == 0 {
		return "", false
	}
	return currentValue(s), true
}

// Events returns the notifications dispatched so far.
func (d *Document) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

type field struct {
	doc *Document
	key string
	sel *goquery.Selection
}

func (f *field) Assign(ctx context.Context, value string) error {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	switch goquery.NodeName(f.sel) {
	case "textarea":
		f.sel.SetText(value)
	case "select":
		matched := false
		f.sel.Find("option").Each(func(_ int, o *goquery.Selection) {
			o.RemoveAttr("selected")
			if !matched && (o.AttrOr("value", strings.TrimSpace(o.Text())) == value) {
				o.SetAttr("selected", "selected")
				matched = true
			}
		})
		if !matched {
			return fmt.Errorf("no option %q", value)
		}
	case "input":
		switch strings.ToLower(f.sel.AttrOr("type", "text")) {
		case "radio":
			if err := f.checkRadio(value); err != nil {
				return err
			}
		case "checkbox":
			if truthy(value) || value == f.sel.AttrOr("value", "") {
				f.sel.SetAttr("checked", "checked")
			} else {
				f.sel.RemoveAttr("checked")
			}
		default:
			f.sel.SetAttr("value", value)
		}
	default:
		return fmt.Errorf("element <%s> is not a form control", goquery.NodeName(f.sel))
	}

	f.doc.events = append(f.doc.events,
		Event{Field: f.key, Type: "input"},
		Event{Field: f.key, Type: "change"},
	)
	return nil
}

// checkRadio checks the radio of the located element's group whose value is
// value and unchecks the rest. A radio without a name is its own group and
// also accepts a truthy value.
func (f *field) checkRadio(value string) error {
	group := f.sel
	if name := f.sel.AttrOr("name", ""); name != "" {
		scope := f.sel.Closest("form")
		inForm := scope.Length() > 0
		if !inForm {
			scope = f.doc.doc.Selection
		}
		group = live(scope.Find("input")).FilterFunction(func(_ int, s *goquery.Selection) bool {
			if !strings.EqualFold(s.AttrOr("type", ""), "radio") || s.AttrOr("name", "") != name {
				return false
			}
			return inForm || s.Closest("form").Length() == 0
		})
	}

	target := group.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("value", "on") == value
	}).First()
	if target.Length() == 0 && group.Length() == 1 && truthy(value) {
		target = group
	}
	if target.Length() == 0 {
		return fmt.Errorf("no option %q", value)
	}

	group.RemoveAttr("checked")
	target.SetAttr("checked", "checked")
	return nil
}

// live drops elements inside <template>; a browser never exposes them to
// querySelectorAll.
func live(sel *goquery.Selection) *goquery.Selection {
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Closest("template").Length() == 0
	})
}

func currentValue(s *goquery.Selection) string {
	switch goquery.NodeName(s) {
	case "textarea":
		return s.Text()
	case "select":
		opt := s.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = s.Find("option").First()
		}
		return opt.AttrOr("value", strings.TrimSpace(opt.Text()))
	}
	switch strings.ToLower(s.AttrOr("type", "text")) {
	case "checkbox", "radio":
		if _, ok := s.Attr("checked"); ok {
			return "true"
		}
		return "false"
	}
	return s.AttrOr("value", "")
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "yes", "1", "ja":
		return true
	}
	return false
}
