package rod

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"formbridge/internal/application/port/output"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

const defaultTimeout = 10 * time.Second

type BrowserAdapter struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	closed   bool
}

type BrowserConfig struct {
	Headless   bool
	NoSandbox  bool
	Stealth    bool
	SlowMotion time.Duration
	Timeout    time.Duration
	StartURL   string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless: true,
		Stealth:  true,
		Timeout:  defaultTimeout,
	}
}

// NewBrowserAdapter launches a browser with a single tab. That tab is the
// one the content script runs in.
func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if cfg.SlowMotion > 0 {
		browser = browser.SlowMotion(cfg.SlowMotion)
	}
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	var page *rod.Page
	if cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	b := &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
	}

	if cfg.StartURL != "" {
		if err := b.Navigate(ctx, cfg.StartURL); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	page, err := b.activePage()
	if err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(ctx, 3*b.timeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) ActiveTab(ctx context.Context) (output.TabPort, error) {
	page, err := b.activePage()
	if err != nil {
		return nil, err
	}
	return &Tab{page: page, timeout: b.timeout}, nil
}

func (b *BrowserAdapter) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed && b.page != nil
}

func (b *BrowserAdapter) activePage() (*rod.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.page == nil {
		return nil, output.ErrNoActiveTab
	}
	return b.page, nil
}

func (b *BrowserAdapter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true

	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

var (
	_ output.TabPort = (*Tab)(nil)
	_ output.FillDOM = (*Tab)(nil)
)

// Tab is the live page. Every call is bounded by the adapter timeout.
type Tab struct {
	page    *rod.Page
	timeout time.Duration
}

func (t *Tab) bounded(ctx context.Context) (*rod.Page, context.CancelFunc) {
	c, cancel := context.WithTimeout(ctx, t.timeout)
	return t.page.Context(c), cancel
}

func (t *Tab) info(ctx context.Context) (*proto.TargetTargetInfo, error) {
	p, cancel := t.bounded(ctx)
	defer cancel()
	info, err := p.Info()
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}
	return info, nil
}

func (t *Tab) URL(ctx context.Context) (string, error) {
	info, err := t.info(ctx)
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (t *Tab) Title(ctx context.Context) (string, error) {
	info, err := t.info(ctx)
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (t *Tab) Snapshot(ctx context.Context) (string, error) {
	v, err := t.eval(ctx, snapshotJS)
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	return str(v), nil
}

func (t *Tab) DOM(ctx context.Context) (output.FillDOM, error) {
	return t, nil
}

func (t *Tab) ByID(ctx context.Context, id string) (output.FieldHandle, error) {
	return t.find(ctx, locator{by: "id", key: id})
}

func (t *Tab) ByName(ctx context.Context, name string) (output.FieldHandle, error) {
	return t.find(ctx, locator{by: "name", key: name})
}

func (t *Tab) ByPosition(ctx context.Context, form, index int) (output.FieldHandle, error) {
	return t.find(ctx, locator{by: "position", form: form, index: index})
}

func (t *Tab) BySelector(ctx context.Context, selector string) (output.FieldHandle, error) {
	return t.find(ctx, locator{by: "selector", key: selector})
}

func (t *Tab) find(ctx context.Context, loc locator) (output.FieldHandle, error) {
	v, err := t.eval(ctx, existsJS, loc.by, loc.key, loc.form, loc.index)
	if err != nil {
		return nil, fmt.Errorf("locate %s %q: %w", loc.by, loc.key, err)
	}
	if !v.Bool() {
		return nil, output.ErrFieldNotFound
	}
	return &field{tab: t, loc: loc}, nil
}

func (t *Tab) eval(ctx context.Context, js string, args ...any) (gson.JSON, error) {
	p, cancel := t.bounded(ctx)
	defer cancel()
	res, err := p.Eval(js, args...)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

type locator struct {
	by    string
	key   string
	form  int
	index int
}

type field struct {
	tab *Tab
	loc locator
}

// Assign re-resolves the element so a handle never outlives a re-render.
func (f *field) Assign(ctx context.Context, value string) error {
	v, err := f.tab.eval(ctx, assignJS, f.loc.by, f.loc.key, f.loc.form, f.loc.index, value)
	if err != nil {
		return err
	}
	switch msg := str(v); msg {
	case "":
		return nil
	case "not_found":
		return output.ErrFieldNotFound
	default:
		return errors.New(msg)
	}
}

func str(v gson.JSON) string {
	if v.Nil() {
		return ""
	}
	return v.Str()
}
