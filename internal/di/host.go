package di

import (
	"context"
	"fmt"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/protocol"
	"formbridge/internal/infrastructure/llm/openrouter"
	"formbridge/internal/infrastructure/logger"
	"formbridge/internal/infrastructure/personaldata"
	"formbridge/internal/infrastructure/relayclient"
	"formbridge/internal/infrastructure/storage/sqlite"
	"formbridge/internal/infrastructure/templates"
	"formbridge/internal/infrastructure/userinteraction"
	"formbridge/internal/usecase/host"
	"formbridge/internal/usecase/matcher"
	"formbridge/internal/usecase/page"
	"formbridge/internal/usecase/page/filler"
	"formbridge/internal/usecase/page/scanner"
)

type HostContainer struct {
	Relay     output.RelayPort
	Store     output.CaptureStorePort
	Logger    output.LoggerPort
	Assistant *host.Assistant
}

type HostConfig struct {
	RelayURL    string
	ExtensionID string
	// OneShot uses the external message endpoint instead of a port.
	OneShot bool
	Caller  string
	Timeout protocol.TimeoutPolicy

	PersonalDataFile string
	CaptureDB        string
	CaptureDBKeep    int

	// Ask prompts on the console for personal data the record lacks.
	Ask bool

	OpenRouterAPIKey string
	OpenRouterModel  string

	LogLevel string
	LogDir   string
}

func NewHostContainer(ctx context.Context, cfg HostConfig) (*HostContainer, error) {
	log, err := logger.NewLoggerAdapter(logger.Config{Name: "host", Level: cfg.LogLevel, Dir: cfg.LogDir})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	c := &HostContainer{Logger: log}

	data := personaldata.Record{}
	if cfg.PersonalDataFile != "" {
		data, err = personaldata.LoadFile(cfg.PersonalDataFile)
		if err != nil {
			c.Close()
			return nil, err
		}
		if unknown := data.Unknown(); len(unknown) > 0 {
			log.Warn("Personal data keys no token uses", "keys", unknown)
		}
	}

	var opts []host.Option
	if cfg.CaptureDB != "" {
		store, err := sqlite.Open(cfg.CaptureDB, sqlite.WithKeep(cfg.CaptureDBKeep))
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Store = store
		opts = append(opts, host.WithStore(store))
	}

	if cfg.OpenRouterAPIKey != "" && cfg.OpenRouterModel != "" {
		llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
		llmCfg.Logger = log
		proposer, err := openrouter.NewTokenProposer(llmCfg)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create token proposer: %w", err)
		}
		opts = append(opts, host.WithProposer(proposer))
	}

	if cfg.Ask {
		opts = append(opts, host.WithAsker(userinteraction.NewConsoleUserInteraction()))
	}

	if cfg.OneShot {
		c.Relay = relayclient.NewOneShot(cfg.RelayURL, cfg.ExtensionID, cfg.Timeout, log)
	} else {
		client, err := relayclient.DialPort(ctx, cfg.RelayURL, cfg.Caller, cfg.Timeout, log)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to connect to relay: %w", err)
		}
		c.Relay = client
	}

	c.Assistant = host.New(c.Relay, data, log, opts...)
	return c, nil
}

func (c *HostContainer) Close() {
	if c.Relay != nil {
		c.Relay.Close()
	}
	if c.Store != nil {
		c.Store.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}

func newContentScript(templatesFile string, allowSelectors bool, log output.LoggerPort) (*page.ContentScript, error) {
	var (
		lib *matcher.Library
		err error
	)
	if templatesFile != "" {
		lib, err = templates.LoadFile(templatesFile)
	} else {
		lib, err = templates.LoadEmbedded()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	log.Info("Template library loaded", "version", lib.Version(), "templates", lib.Len())

	fillCfg := filler.DefaultConfig()
	fillCfg.AllowSelectors = allowSelectors

	return page.New(scanner.New(scanner.DefaultConfig()), lib, filler.New(fillCfg, log), log), nil
}
