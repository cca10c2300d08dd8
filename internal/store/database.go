package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"facility-intake-backend/internal/db"
	"facility-intake-backend/internal/types"
)

// DatabaseStore keeps recovery snapshots in PostgreSQL or SQLite.
type DatabaseStore struct {
	db *db.DB
}

func NewDatabaseStore(database *db.DB) *DatabaseStore {
	return &DatabaseStore{db: database}
}

func (ds *DatabaseStore) SaveLastSubmission(ctx context.Context, p types.SurveyPayload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO recovery_snapshots (key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := ds.db.ExecContext(ctx, ds.db.Rebind(query), LastSubmissionKey, string(b), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save last submission: %w", err)
	}
	return nil
}

func (ds *DatabaseStore) LoadLastSubmission(ctx context.Context) (*types.SurveyPayload, error) {
	var raw string
	err := ds.db.QueryRowContext(ctx,
		ds.db.Rebind(`SELECT payload FROM recovery_snapshots WHERE key = $1`),
		LastSubmissionKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last submission: %w", err)
	}
	var p types.SurveyPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("stored submission is corrupt: %w", err)
	}
	return &p, nil
}
