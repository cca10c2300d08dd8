// Package recovercli implements intake-recover, which inspects and re-sends
// the locally archived copy of the last successful submission.
package recovercli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"facility-intake-backend/internal/app"
	"facility-intake-backend/internal/backend"
	"facility-intake-backend/internal/config"
	"facility-intake-backend/internal/store"
	"facility-intake-backend/internal/types"
)

// Submitter is the part of intake.Client resubmit needs.
type Submitter interface {
	SubmitIntake(ctx context.Context, payload types.SurveyPayload) (backend.DegradedResult[types.SubmitReceipt], error)
}

// Env supplies the store and submitter; tests replace both.
type Env struct {
	OpenStore     func(ctx context.Context, cfg config.Config) (store.RecoveryStore, func() error, error)
	OpenSubmitter func(ctx context.Context, cfg config.Config) (Submitter, error)
}

func defaultEnv() Env {
	return Env{
		OpenStore: func(ctx context.Context, cfg config.Config) (store.RecoveryStore, func() error, error) {
			return app.OpenRecoveryStore(ctx, cfg, zap.NewNop())
		},
		OpenSubmitter: func(ctx context.Context, cfg config.Config) (Submitter, error) {
			// No archiver: a resubmission must not overwrite the copy being recovered.
			return app.NewIntakeClient(ctx, cfg, nil, zap.NewNop())
		},
	}
}

// Execute runs the CLI.
func Execute() error {
	root := NewRootCmd(defaultEnv())
	root.SilenceUsage = true
	root.SilenceErrors = true
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

type options struct {
	storeKind   string
	file        string
	databaseURL string
	sqlitePath  string
}

func NewRootCmd(env Env) *cobra.Command {
	var opts options
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "intake-recover",
		Short: "Inspect or re-send the last archived intake submission",
		Long: `intake-recover reads the recovery copy the intake server keeps of the last
successful submission. Settings come from the same environment as the server;
flags override them.`,
	}
	rootCmd.PersistentFlags().StringVar(&opts.storeKind, "store", cfg.RecoveryStore, "Recovery store: file|postgres|sqlite")
	rootCmd.PersistentFlags().StringVar(&opts.file, "file", cfg.RecoveryFile, "Recovery file for the file store")
	rootCmd.PersistentFlags().StringVar(&opts.databaseURL, "db-url", cfg.DatabaseURL, "PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&opts.sqlitePath, "sqlite", cfg.SQLitePath, "SQLite database path")

	resolve := func() config.Config {
		c := cfg
		c.RecoveryStore = opts.storeKind
		c.RecoveryFile = opts.file
		c.DatabaseURL = opts.databaseURL
		c.SQLitePath = opts.sqlitePath
		return c
	}

	rootCmd.AddCommand(newShowCmd(env, resolve))
	rootCmd.AddCommand(newResubmitCmd(env, resolve))
	return rootCmd
}

func loadLast(ctx context.Context, env Env, cfg config.Config) (*types.SurveyPayload, error) {
	s, closeFn, err := env.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	if s == nil {
		return nil, fmt.Errorf("recovery store is disabled (RECOVERY_STORE=none)")
	}
	return s.LoadLastSubmission(ctx)
}
