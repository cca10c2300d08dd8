package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"facility-intake-backend/internal/db"
	"facility-intake-backend/internal/types"
)

// LastSubmissionKey is the single key the recovery copy is stored under.
const LastSubmissionKey = "lastSubmission"

// RecoveryStore keeps a copy of the last successful submission. Each save
// overwrites the previous one. Nothing reads it back automatically.
type RecoveryStore interface {
	SaveLastSubmission(ctx context.Context, p types.SurveyPayload) error
	// LoadLastSubmission returns nil, nil when nothing has been saved.
	LoadLastSubmission(ctx context.Context) (*types.SurveyPayload, error)
}

type Options struct {
	Kind        string // file, postgres, sqlite, memory or none
	FilePath    string
	DatabaseURL string
	SQLitePath  string
	Logger      *zap.Logger
}

// Open returns the configured store and a function releasing its resources.
// Kind "none" returns a nil store.
func Open(ctx context.Context, opts Options) (RecoveryStore, func() error, error) {
	noop := func() error { return nil }
	switch opts.Kind {
	case "", "file":
		return NewFileStore(opts.FilePath), noop, nil
	case "memory":
		return NewMemoryRecoveryStore(), noop, nil
	case "none":
		return nil, noop, nil
	case "postgres", "sqlite":
		var (
			database *db.DB
			err      error
		)
		if opts.Kind == "postgres" {
			database, err = db.New(opts.DatabaseURL, opts.Logger)
		} else {
			database, err = db.NewSQLite(opts.SQLitePath, opts.Logger)
		}
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return NewDatabaseStore(database), database.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown recovery store %q", opts.Kind)
	}
}
