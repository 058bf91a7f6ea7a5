// Package scanner turns a DOM snapshot into a FormSchema.
package scanner

import (
	"fmt"
	stdhtml "html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"formbridge/internal/domain/entity"
)

const fieldSelector = "input, select, textarea"

type Config struct {
	MaxDescription int
	MaxHeadings    int
}

func DefaultConfig() Config {
	return Config{
		MaxDescription: 500,
		MaxHeadings:    20,
	}
}

type Scanner struct {
	cfg    Config
	policy *bluemonday.Policy
	now    func() time.Time
}

func New(cfg Config) *Scanner {
	if cfg.MaxDescription <= 0 {
		cfg.MaxDescription = DefaultConfig().MaxDescription
	}
	if cfg.MaxHeadings <= 0 {
		cfg.MaxHeadings = DefaultConfig().MaxHeadings
	}
	return &Scanner{
		cfg:    cfg,
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

// Scan walks the document once. title overrides the document's <title>
// when non-empty.
func (s *Scanner) Scan(pageURL, title, rawHTML string) (*entity.FormSchema, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	prune(root)
	doc := goquery.NewDocumentFromNode(root)

	if title == "" {
		title = s.clean(doc.Find("title").First().Text())
	}

	schema := &entity.FormSchema{
		URL:        pageURL,
		Title:      title,
		CapturedAt: s.now().UTC(),
	}

	w := &walk{scanner: s, doc: doc, seen: make(map[string]bool)}

	doc.Find("form").Each(func(i int, form *goquery.Selection) {
		form.Find(fieldSelector).Each(func(j int, el *goquery.Selection) {
			w.add(el, i, entity.SyntheticFieldID(i, j))
		})
	})

	k := 0
	doc.Find(fieldSelector).Each(func(_ int, el *goquery.Selection) {
		if el.Closest("form").Length() > 0 {
			return
		}
		w.add(el, entity.StandaloneForm, entity.SyntheticFieldID(entity.StandaloneForm, k))
		k++
	})

	schema.Fields = w.fields
	schema.Headings = s.headings(doc)
	schema.PageDescription = s.description(doc)
	return schema, nil
}

type walk struct {
	scanner *Scanner
	doc     *goquery.Document
	seen    map[string]bool
	fields  []entity.FormField
}

func (w *walk) add(el *goquery.Selection, formIndex int, synthetic string) {
	tag := goquery.NodeName(el)
	rawType := el.AttrOr("type", "")
	kind, ok := Classify(tag, rawType)
	if !ok {
		return
	}

	id := strings.TrimSpace(el.AttrOr("id", ""))
	if _, _, ok := entity.ParseSyntheticFieldID(id); ok && id != synthetic {
		// would be filled at the position it names, not at this element
		id = ""
	}
	if id == "" || w.seen[id] {
		id = synthetic
	}
	for w.seen[id] {
		id += "-dup"
	}
	w.seen[id] = true

	_, multiple := el.Attr("multiple")
	field := entity.FormField{
		ID:          id,
		Name:        el.AttrOr("name", ""),
		Type:        fieldType(tag, rawType, multiple),
		Kind:        kind,
		Label:       w.scanner.label(w.doc, el),
		Placeholder: w.scanner.clean(el.AttrOr("placeholder", "")),
		Required:    isRequired(el),
		FormIndex:   formIndex,
	}

	switch kind {
	case entity.FieldKindChoice:
		field.Options = w.scanner.options(el)
		field.Value = selectedValue(el)
	case entity.FieldKindToggle:
		_, field.Checked = el.Attr("checked")
		field.Value = el.AttrOr("value", "on")
	default:
		if tag == "textarea" {
			field.Value = el.Text()
		} else {
			field.Value = el.AttrOr("value", "")
		}
	}

	if field.IsPassword() {
		field.Value = entity.RedactedValue
	}

	w.fields = append(w.fields, field)
}

// label resolves a human label: <label for>, ancestor <label>,
// aria-label, then a label-like preceding sibling.
func (s *Scanner) label(doc *goquery.Document, el *goquery.Selection) string {
	if id := el.AttrOr("id", ""); id != "" {
		forLabel := doc.Find("label").FilterFunction(func(_ int, l *goquery.Selection) bool {
			return l.AttrOr("for", "") == id
		}).First()
		if text := s.clean(textWithoutControls(forLabel)); text != "" {
			return text
		}
	}

	if anc := el.ParentsFiltered("label").First(); anc.Length() > 0 {
		if text := s.clean(textWithoutControls(anc)); text != "" {
			return text
		}
	}

	if aria := s.clean(el.AttrOr("aria-label", "")); aria != "" {
		return aria
	}

	if prev := el.Prev(); prev.Length() > 0 && isLabelLike(goquery.NodeName(prev)) {
		if text := s.clean(textWithoutControls(prev)); text != "" {
			return text
		}
	}

	return ""
}

func (s *Scanner) options(el *goquery.Selection) []entity.Option {
	var opts []entity.Option
	el.Find("option").Each(func(_ int, o *goquery.Selection) {
		text := s.clean(o.Text())
		opts = append(opts, entity.Option{
			Value: o.AttrOr("value", text),
			Text:  text,
		})
	})
	return opts
}

func (s *Scanner) headings(doc *goquery.Document) []string {
	var out []string
	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if text := s.clean(h.Text()); text != "" {
			out = append(out, text)
		}
		return len(out) < s.cfg.MaxHeadings
	})
	return out
}

func (s *Scanner) description(doc *goquery.Document) string {
	body := doc.Find("body").First().Clone()
	body.Find("script, style, noscript, template, select, textarea").Remove()
	return truncate(collapse(body.Text()), s.cfg.MaxDescription)
}

// clean collapses whitespace and strips any markup carried in text or
// attribute values.
func (s *Scanner) clean(text string) string {
	text = collapse(text)
	if text == "" {
		return ""
	}
	return collapse(stdhtml.UnescapeString(s.policy.Sanitize(text)))
}

func textWithoutControls(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	c := sel.Clone()
	c.Find("input, select, textarea, button").Remove()
	return c.Text()
}

func selectedValue(el *goquery.Selection) string {
	opt := el.Find("option[selected]").First()
	if opt.Length() == 0 {
		opt = el.Find("option").First()
	}
	if opt.Length() == 0 {
		return ""
	}
	return opt.AttrOr("value", collapse(opt.Text()))
}

func isRequired(el *goquery.Selection) bool {
	if _, ok := el.Attr("required"); ok {
		return true
	}
	return strings.EqualFold(el.AttrOr("aria-required", ""), "true")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
