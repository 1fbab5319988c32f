package postgres

import (
	"context"

	"cyclewise/domain/core"
	"cyclewise/domain/pattern"
	"cyclewise/internal/errors"
	"cyclewise/ports"

	"github.com/jmoiron/sqlx"
)

// PatternRepositoryImpl implements ports.PatternRepository for PostgreSQL.
// The (user_id, pattern_type, category_key, metric) unique constraint makes
// identity-key upsert a single ON CONFLICT statement.
type PatternRepositoryImpl struct {
	db *sqlx.DB
}

// NewPatternRepository creates a new PostgreSQL pattern repository.
func NewPatternRepository(db *sqlx.DB) ports.PatternRepository {
	return &PatternRepositoryImpl{db: db}
}

// UpsertAll persists one detection run's patterns in a single transaction.
// Re-detection of an existing identity refreshes its statistics and
// LastSeen without touching FirstSeen or the stored row's id.
func (r *PatternRepositoryImpl) UpsertAll(ctx context.Context, userID core.UserID, patterns []*pattern.CyclicalPattern) error {
	if len(patterns) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin pattern upsert")
	}
	defer tx.Rollback()

	for _, p := range patterns {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cyclical_patterns (
				id, user_id, pattern_type, category_key, metric,
				observed_value, baseline_value, confidence, supporting_count,
				first_seen, last_seen, finding_text
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (user_id, pattern_type, category_key, metric) DO UPDATE SET
				observed_value = EXCLUDED.observed_value,
				baseline_value = EXCLUDED.baseline_value,
				confidence = EXCLUDED.confidence,
				supporting_count = EXCLUDED.supporting_count,
				last_seen = GREATEST(cyclical_patterns.last_seen, EXCLUDED.last_seen),
				finding_text = EXCLUDED.finding_text`,
			p.ID, userID, p.Type, p.CategoryKey, p.Metric,
			p.ObservedValue, p.BaselineValue, p.Confidence, p.SupportingCount,
			p.FirstSeen, p.LastSeen, p.FindingText)
		if err != nil {
			return errors.Wrapf(err, "failed to upsert pattern %s", p.Identity())
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit pattern upsert")
	}
	return nil
}

func (r *PatternRepositoryImpl) ListByUser(ctx context.Context, userID core.UserID) ([]*pattern.CyclicalPattern, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pattern_type, category_key, metric,
			   observed_value, baseline_value, confidence, supporting_count,
			   first_seen, last_seen, finding_text
		FROM cyclical_patterns
		WHERE user_id = $1
		ORDER BY pattern_type, category_key, metric`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list patterns")
	}
	defer rows.Close()

	var result []*pattern.CyclicalPattern
	for rows.Next() {
		var p pattern.CyclicalPattern
		err := rows.Scan(&p.ID, &p.Type, &p.CategoryKey, &p.Metric,
			&p.ObservedValue, &p.BaselineValue, &p.Confidence, &p.SupportingCount,
			&p.FirstSeen, &p.LastSeen, &p.FindingText)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan pattern")
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}
