package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"facility-intake-backend/internal/app"
	"facility-intake-backend/internal/chat"
	"facility-intake-backend/internal/config"
	"facility-intake-backend/internal/draft"
	"facility-intake-backend/internal/server"
	"facility-intake-backend/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	recovery, closeStore, err := app.OpenRecoveryStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := app.NewIntakeClient(ctx, cfg, recovery, logger)
	if err != nil {
		return err
	}

	deps := server.Dependencies{Intake: client, Logger: logger}
	provider, err := app.NewProvider(ctx, cfg)
	if err != nil {
		logger.Warn("chat and drafts disabled", zap.Error(err))
		provider = nil
	}
	persona := chat.Persona{AssistantName: cfg.AssistantName, CompanyName: cfg.CompanyName}
	var opener chat.Opener = unavailableOpener{}
	if provider != nil {
		opener = provider
		spec, err := draft.LoadPromptSpec(cfg.DraftPromptFile)
		if err != nil {
			return fmt.Errorf("failed to load draft prompt: %w", err)
		}
		deps.Drafts = draft.NewGenerator(provider, spec, logger)
		logger.Info("generation provider ready", zap.String("provider", provider.Name()))
	}
	deps.Sessions = store.NewSessionStore(cfg.ChatSessionTTL, func() *chat.Aggregator {
		return chat.NewAggregator(opener, persona, logger)
	})
	go sweepSessions(ctx, deps.Sessions, logger)

	s, err := server.NewServer(cfg, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Chat streams run up to two minutes.
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("intake server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	return nil
}

func sweepSessions(ctx context.Context, sessions *store.SessionStore, logger *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				logger.Debug("expired chat sessions", zap.Int("removed", n))
			}
		}
	}
}

// unavailableOpener stands in when no provider is configured; every send
// settles with the apology message.
type unavailableOpener struct{}

func (unavailableOpener) OpenSession(context.Context, string) (chat.Session, error) {
	return nil, errors.New("no generation provider configured")
}
