package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/promptflow/internal/config"
	"github.com/promptflow/internal/llm"
	"github.com/promptflow/internal/logging"
	"github.com/promptflow/internal/memory"
	"github.com/promptflow/internal/workflow"
)

// loadConfig reads the config named by the global --config flag, validates
// it, and applies the logging settings.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}

// buildInvoker constructs the model client from config.
func buildInvoker(cfg *config.Config) (llm.Invoker, error) {
	client, err := llm.New(llm.Options{
		Model:       cfg.Model.Name,
		Endpoint:    cfg.Model.Endpoint,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
		Timeout:     cfg.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build model client: %w", err)
	}
	return client, nil
}

// buildStore picks Postgres history when a database URL is configured, and
// process memory otherwise.
func buildStore(ctx context.Context, cfg *config.Config) (memory.Store, error) {
	if cfg.Memory.DatabaseURL == "" {
		return memory.NewInMemoryStore(), nil
	}
	return memory.NewPostgresStore(ctx, cfg.Memory.DatabaseURL)
}

// buildRecorder mirrors buildStore for workflow step persistence.
func buildRecorder(ctx context.Context, cfg *config.Config) (workflow.StepRecorder, error) {
	if cfg.Memory.DatabaseURL == "" {
		return workflow.NewMemoryRecorder(), nil
	}
	return workflow.NewPostgresRecorder(ctx, cfg.Memory.DatabaseURL)
}
