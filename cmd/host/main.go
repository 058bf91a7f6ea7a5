package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"formbridge/internal/di"
	"formbridge/internal/domain/protocol"
	"formbridge/internal/infrastructure/env"
)

var (
	envService *env.EnvService

	oneShot bool
	caller  string
	ask     bool
)

var rootCmd = &cobra.Command{
	Use:           "formbridge",
	Short:         "Capture and fill web forms through the relay",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&oneShot, "oneshot", false, "Use one-shot messages instead of a persistent port")
	rootCmd.PersistentFlags().StringVar(&caller, "caller", "host", "Port caller name")

	rootCmd.AddCommand(pingCmd, captureCmd, fillCmd, historyCmd, captureFileCmd)
}

func main() {
	envService = env.NewEnvService()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func hostConfig() di.HostConfig {
	policy := protocol.DefaultTimeoutPolicy()
	policy.Capture = envService.GetDuration("CAPTURE_TIMEOUT", policy.Capture)
	policy.Fill = envService.GetDuration("FILL_TIMEOUT", policy.Fill)

	return di.HostConfig{
		RelayURL:         envService.GetWithDefault("RELAY_URL", "http://127.0.0.1:8765"),
		ExtensionID:      envService.GetWithDefault("EXTENSION_ID", "formbridge"),
		OneShot:          oneShot,
		Ask:              ask,
		Caller:           caller,
		Timeout:          policy,
		PersonalDataFile: envService.Get("PERSONAL_DATA_FILE"),
		CaptureDB:        envService.Get("CAPTURE_DB"),
		CaptureDBKeep:    envService.GetInt("CAPTURE_DB_KEEP", 20),
		OpenRouterAPIKey: envService.Get("OPENROUTER_API_KEY"),
		OpenRouterModel:  envService.Get("OPENROUTER_MODEL_NAME"),
		LogLevel:         envService.GetWithDefault("LOG_LEVEL", "warn"),
		LogDir:           envService.Get("LOG_DIR"),
	}
}

func withContainer(cmd *cobra.Command, fn func(context.Context, *di.HostContainer) error) error {
	ctx := cmd.Context()
	container, err := di.NewHostContainer(ctx, hostConfig())
	if err != nil {
		return err
	}
	defer container.Close()
	return fn(ctx, container)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
