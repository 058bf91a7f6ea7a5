package di

import (
	"context"
	"fmt"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/entity"
	"formbridge/internal/domain/history"
	"formbridge/internal/infrastructure/browser/rod"
	"formbridge/internal/infrastructure/logger"
	"formbridge/internal/infrastructure/relay"
	"formbridge/internal/usecase/page"
)

type RelayContainer struct {
	Browser output.BrowserPort
	Logger  output.LoggerPort
	Relay   *relay.Relay
	Server  *relay.Server
}

type RelayConfig struct {
	Addr           string
	ExtensionID    string
	AllowedOrigins []string
	HistorySize    int
	TemplatesFile  string
	AllowSelectors bool
	Browser        rod.BrowserConfig
	LogLevel       string
	LogDir         string
}

func NewRelayContainer(ctx context.Context, cfg RelayConfig) (*RelayContainer, error) {
	log, err := logger.NewLoggerAdapter(logger.Config{Name: "relay", Level: cfg.LogLevel, Dir: cfg.LogDir})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	script, err := newContentScript(cfg.TemplatesFile, cfg.AllowSelectors, log)
	if err != nil {
		log.Close()
		return nil, err
	}

	browser, err := rod.NewBrowserAdapter(ctx, cfg.Browser)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}

	relayCfg := relay.DefaultConfig()
	if cfg.ExtensionID != "" {
		relayCfg.ExtensionID = cfg.ExtensionID
	}
	relayCfg.AllowedOrigins = cfg.AllowedOrigins

	r := relay.New(relayCfg, browser, script, history.NewRing[entity.FormSchema](cfg.HistorySize), log)

	return &RelayContainer{
		Browser: browser,
		Logger:  log,
		Relay:   r,
		Server:  relay.NewServer(cfg.Addr, r),
	}, nil
}

func (c *RelayContainer) Close() {
	if c.Relay != nil {
		c.Relay.Close()
	}
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}

// ContentScript exposes the capture pipeline without a browser, for
// scanning saved pages.
func ContentScript(templatesFile string, allowSelectors bool, log output.LoggerPort) (*page.ContentScript, error) {
	return newContentScript(templatesFile, allowSelectors, log)
}
