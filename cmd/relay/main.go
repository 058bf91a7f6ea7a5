package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"formbridge/internal/di"
	"formbridge/internal/domain/protocol"
	"formbridge/internal/infrastructure/browser/rod"
	"formbridge/internal/infrastructure/env"
)

func main() {
	envService := env.NewEnvService()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = envService.GetBool("BROWSER_HEADLESS", false)
	browserCfg.Stealth = envService.GetBool("BROWSER_STEALTH", true)
	browserCfg.NoSandbox = envService.GetBool("BROWSER_NO_SANDBOX", false)
	browserCfg.StartURL = envService.Get("START_URL")

	container, err := di.NewRelayContainer(ctx, di.RelayConfig{
		Addr:           envService.GetWithDefault("RELAY_ADDR", "127.0.0.1:8765"),
		ExtensionID:    envService.GetWithDefault("EXTENSION_ID", "formbridge"),
		AllowedOrigins: splitList(envService.Get("ALLOWED_ORIGINS")),
		HistorySize:    envService.GetInt("HISTORY_SIZE", 10),
		TemplatesFile:  envService.Get("TEMPLATES_FILE"),
		AllowSelectors: envService.GetBool("FILL_ALLOW_SELECTORS", true),
		Browser:        browserCfg,
		LogLevel:       envService.GetWithDefault("LOG_LEVEL", "info"),
		LogDir:         envService.Get("LOG_DIR"),
	})
	if err != nil {
		log.Fatalf("relay init failed: %v", err)
	}
	container.Logger.Info("Relay started",
		"addr", envService.GetWithDefault("RELAY_ADDR", "127.0.0.1:8765"),
		"version", protocol.Version,
	)

	if err := run(ctx, container); err != nil {
		os.Exit(1)
	}
}

// run serves until ctx ends and always closes the container, so the
// browser is gone before the process exits.
func run(ctx context.Context, container *di.RelayContainer) error {
	defer container.Close()

	if err := container.Server.ListenAndServe(ctx); err != nil {
		container.Logger.Error("Relay stopped", "error", err)
		return err
	}
	container.Logger.Info("Relay stopped")
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
