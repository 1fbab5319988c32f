package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"cyclewise/domain/core"
	"cyclewise/domain/evidence"
	"cyclewise/domain/hypothesis"
	"cyclewise/internal/errors"
	"cyclewise/ports"

	"github.com/jmoiron/sqlx"
)

// HypothesisRepositoryImpl implements ports.HypothesisRepository for PostgreSQL.
// Evidence and confidence history travel with the aggregate as JSONB.
type HypothesisRepositoryImpl struct {
	db *sqlx.DB
}

// NewHypothesisRepository creates a new PostgreSQL hypothesis repository.
func NewHypothesisRepository(db *sqlx.DB) ports.HypothesisRepository {
	return &HypothesisRepositoryImpl{db: db}
}

func (r *HypothesisRepositoryImpl) Create(ctx context.Context, h *hypothesis.Hypothesis) error {
	evidenceJSON, err := json.Marshal(h.Evidence)
	if err != nil {
		return errors.Wrap(err, "failed to marshal evidence")
	}
	historyJSON, err := json.Marshal(h.ConfidenceHistory)
	if err != nil {
		return errors.Wrap(err, "failed to marshal confidence history")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO hypotheses (
			id, user_id, claim, evidence, confidence, status, is_stale,
			confidence_history, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		h.ID, h.UserID, h.Claim, evidenceJSON, h.Confidence, h.Status,
		h.IsStale, historyJSON, h.CreatedAt.Time())
	if err != nil {
		return errors.Wrap(err, "failed to insert hypothesis")
	}
	return nil
}

func (r *HypothesisRepositoryImpl) GetByID(ctx context.Context, id core.HypothesisID) (*hypothesis.Hypothesis, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, claim, evidence, confidence, status, is_stale,
			   confidence_history, created_at
		FROM hypotheses
		WHERE id = $1`, id)

	h, err := scanHypothesis(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get hypothesis")
	}
	return h, nil
}

func (r *HypothesisRepositoryImpl) ListByUser(ctx context.Context, userID core.UserID) ([]*hypothesis.Hypothesis, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, claim, evidence, confidence, status, is_stale,
			   confidence_history, created_at
		FROM hypotheses
		WHERE user_id = $1
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list hypotheses")
	}
	defer rows.Close()

	var result []*hypothesis.Hypothesis
	for rows.Next() {
		h, err := scanHypothesis(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan hypothesis")
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

// Save persists the aggregate's evidence list and cached projections.
func (r *HypothesisRepositoryImpl) Save(ctx context.Context, h *hypothesis.Hypothesis) error {
	evidenceJSON, err := json.Marshal(h.Evidence)
	if err != nil {
		return errors.Wrap(err, "failed to marshal evidence")
	}
	historyJSON, err := json.Marshal(h.ConfidenceHistory)
	if err != nil {
		return errors.Wrap(err, "failed to marshal confidence history")
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE hypotheses SET
			evidence = $2,
			confidence = $3,
			status = $4,
			is_stale = $5,
			confidence_history = $6
		WHERE id = $1`,
		h.ID, evidenceJSON, h.Confidence, h.Status, h.IsStale, historyJSON)
	if err != nil {
		return errors.Wrap(err, "failed to save hypothesis")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHypothesis(row rowScanner) (*hypothesis.Hypothesis, error) {
	var h hypothesis.Hypothesis
	var evidenceJSON, historyJSON []byte

	err := row.Scan(&h.ID, &h.UserID, &h.Claim, &evidenceJSON, &h.Confidence,
		&h.Status, &h.IsStale, &historyJSON, &h.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(evidenceJSON, &h.Evidence); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal evidence")
	}
	if err := json.Unmarshal(historyJSON, &h.ConfidenceHistory); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal confidence history")
	}
	if h.Evidence == nil {
		h.Evidence = []evidence.Record{}
	}
	return &h, nil
}
