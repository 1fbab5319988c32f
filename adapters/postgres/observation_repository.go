package postgres

import (
	"context"
	"encoding/json"

	"cyclewise/domain/core"
	"cyclewise/domain/observation"
	"cyclewise/internal/errors"
	"cyclewise/ports"

	"github.com/jmoiron/sqlx"
)

// ObservationRepositoryImpl implements ports.ObservationReader plus the
// write side used by importers. Observations are immutable once logged.
type ObservationRepositoryImpl struct {
	db *sqlx.DB
}

// NewObservationRepository creates a new PostgreSQL observation repository.
func NewObservationRepository(db *sqlx.DB) *ObservationRepositoryImpl {
	return &ObservationRepositoryImpl{db: db}
}

var _ ports.ObservationReader = (*ObservationRepositoryImpl)(nil)

// InsertAll bulk-inserts imported observations in one transaction.
func (r *ObservationRepositoryImpl) InsertAll(ctx context.Context, obs []observation.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin observation insert")
	}
	defer tx.Rollback()

	for _, o := range obs {
		tagsJSON, err := json.Marshal(o.SymptomTags)
		if err != nil {
			return errors.Wrap(err, "failed to marshal symptom tags")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO observations (
				id, user_id, observed_at, mood, energy, symptom_tags, free_text
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			o.ID, o.UserID, o.Timestamp, o.Mood, o.Energy, tagsJSON, o.FreeText)
		if err != nil {
			return errors.Wrapf(err, "failed to insert observation %s", o.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit observation insert")
	}
	return nil
}

func (r *ObservationRepositoryImpl) ListByUser(ctx context.Context, userID core.UserID) ([]observation.Observation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, observed_at, mood, energy, symptom_tags, free_text
		FROM observations
		WHERE user_id = $1
		ORDER BY observed_at`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list observations")
	}
	defer rows.Close()

	var result []observation.Observation
	for rows.Next() {
		var o observation.Observation
		var tagsJSON []byte
		err := rows.Scan(&o.ID, &o.UserID, &o.Timestamp, &o.Mood, &o.Energy,
			&tagsJSON, &o.FreeText)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan observation")
		}
		if err := json.Unmarshal(tagsJSON, &o.SymptomTags); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal symptom tags")
		}
		result = append(result, o)
	}
	return result, rows.Err()
}
