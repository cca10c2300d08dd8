// Package app wires configuration into the components both binaries share.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"facility-intake-backend/internal/backend"
	"facility-intake-backend/internal/config"
	"facility-intake-backend/internal/intake"
	"facility-intake-backend/internal/llm"
	"facility-intake-backend/internal/store"
)

// NewIntakeClient builds the transport, fallback coordinator and intake client.
// archiver may be nil.
func NewIntakeClient(ctx context.Context, cfg config.Config, archiver intake.Archiver, logger *zap.Logger) (*intake.Client, error) {
	httpClient := backend.NewHTTPClient(ctx, cfg.UpstreamTimeout, cfg.UpstreamBearerToken)
	coord := backend.NewCoordinator(backend.NewTransport(httpClient), backend.CoordinatorOptions{
		URL:    cfg.UpstreamURL,
		Delay:  cfg.FallbackDelay,
		Logger: logger,
	})
	return intake.NewClient(coord, intake.Options{
		DemoMode:           cfg.DemoMode,
		DemoAccessCode:     cfg.DemoAccessCode,
		MaxAttachmentBytes: cfg.MaxAttachmentBytes,
		FixturesFile:       cfg.FixturesFile,
		Archiver:           archiver,
		Logger:             logger,
	})
}

// OpenRecoveryStore opens the store named by RECOVERY_STORE.
func OpenRecoveryStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.RecoveryStore, func() error, error) {
	s, closeFn, err := store.Open(ctx, store.Options{
		Kind:        cfg.RecoveryStore,
		FilePath:    cfg.RecoveryFile,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open recovery store: %w", err)
	}
	return s, closeFn, nil
}

// NewProvider returns the configured generation provider.
func NewProvider(ctx context.Context, cfg config.Config) (llm.Provider, error) {
	return llm.New(ctx, llm.Config{
		Provider:      cfg.LLMProvider,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiBaseURL: cfg.GeminiBaseURL,
		GeminiModel:   cfg.GeminiModel,
	})
}
