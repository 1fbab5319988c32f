package lifecycle

import (
	"context"
	"testing"
	"time"

	"cyclewise/domain/core"
	"cyclewise/domain/evidence"
	"cyclewise/domain/hypothesis"
	"cyclewise/internal/confidence"
	"cyclewise/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalAsOf = core.NewTimestamp(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

type recordingNotifier struct {
	events []hypothesis.TransitionEvent
}

func (n *recordingNotifier) NotifyConfirmed(_ context.Context, e hypothesis.TransitionEvent) error {
	n.events = append(n.events, e)
	return nil
}

func newUpdater(notifier *recordingNotifier) *Updater {
	cfg := config.Default()
	calc := confidence.NewCalculator(cfg.Confidence)
	if notifier == nil {
		return NewUpdater(cfg.Lifecycle, calc, nil, nil)
	}
	return NewUpdater(cfg.Lifecycle, calc, notifier, nil)
}

func newHypothesis(t *testing.T, createdDaysAgo int) *hypothesis.Hypothesis {
	t.Helper()
	created := core.NewTimestamp(evalAsOf.Time().AddDate(0, 0, -createdDaysAgo))
	h, err := hypothesis.New(core.UserID("user-1"), "energy dips during tide weeks", created)
	require.NoError(t, err)
	return h
}

func record(t *testing.T, h *hypothesis.Hypothesis, typ evidence.Type, ageDays int) evidence.Record {
	t.Helper()
	ts := core.NewTimestamp(evalAsOf.Time().AddDate(0, 0, -ageDays))
	rec, err := evidence.NewRecord(h.ID, typ, 1.0, ts, nil)
	require.NoError(t, err)
	return rec
}

func TestEvaluateFreshHypothesisIsPriorAndForming(t *testing.T) {
	u := newUpdater(nil)
	h := newHypothesis(t, 0)

	snap, err := u.Evaluate(context.Background(), h, nil, evalAsOf)
	require.NoError(t, err)

	assert.InDelta(t, 0.1824, snap.Confidence, 0.001)
	assert.Equal(t, hypothesis.StatusForming, snap.Status)
	assert.False(t, snap.IsStale)

	// The cache on the aggregate mirrors the snapshot
	assert.Equal(t, snap.Confidence, h.Confidence)
	assert.Equal(t, snap.Status, h.Status)
	assert.Len(t, h.ConfidenceHistory, 1)
}

func TestEvaluateConfirmationThenRejection(t *testing.T) {
	u := newUpdater(nil)
	h := newHypothesis(t, 0)

	base, err := u.Evaluate(context.Background(), h, nil, evalAsOf)
	require.NoError(t, err)

	confirm := record(t, h, evidence.TypeUserConfirmation, 0)
	up, err := u.Evaluate(context.Background(), h, &confirm, evalAsOf)
	require.NoError(t, err)
	assert.Greater(t, up.Confidence, base.Confidence)

	reject := record(t, h, evidence.TypeUserRejection, 0)
	down, err := u.Evaluate(context.Background(), h, &reject, evalAsOf)
	require.NoError(t, err)
	assert.Less(t, down.Confidence, up.Confidence)

	// The rejection's heavier weight drags the score under the floor,
	// and with contradiction evidence present that means REJECTED.
	assert.Equal(t, hypothesis.StatusRejected, down.Status)
}

func TestRejectedRequiresContradiction(t *testing.T) {
	u := newUpdater(nil)
	h := newHypothesis(t, 0)

	// A bare prior sits under the rejection floor band-wise, but with no
	// contradiction evidence the hypothesis stays FORMING.
	snap, err := u.Evaluate(context.Background(), h, nil, evalAsOf)
	require.NoError(t, err)
	assert.LessOrEqual(t, snap.Confidence, 0.60)
	assert.Equal(t, hypothesis.StatusForming, snap.Status)
}

func TestConfirmationEmitsOnce(t *testing.T) {
	notifier := &recordingNotifier{}
	u := newUpdater(notifier)
	h := newHypothesis(t, 0)

	// Accumulate explicit confirmations until the band is crossed.
	for i := 0; i < 6; i++ {
		rec := record(t, h, evidence.TypeUserConfirmation, 0)
		_, err := u.Evaluate(context.Background(), h, &rec, evalAsOf)
		require.NoError(t, err)
	}
	require.Equal(t, hypothesis.StatusConfirmed, h.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, h.ID, notifier.events[0].HypothesisID)
	assert.Equal(t, hypothesis.StatusConfirmed, notifier.events[0].To)

	// A staleness-check re-evaluation does not re-emit.
	_, err := u.Evaluate(context.Background(), h, nil, evalAsOf)
	require.NoError(t, err)
	assert.Len(t, notifier.events, 1)
}

func TestConfirmedFallsBackUnderContradiction(t *testing.T) {
	u := newUpdater(nil)
	h := newHypothesis(t, 0)

	for i := 0; i < 6; i++ {
		rec := record(t, h, evidence.TypeUserConfirmation, 0)
		_, err := u.Evaluate(context.Background(), h, &rec, evalAsOf)
		require.NoError(t, err)
	}
	require.Equal(t, hypothesis.StatusConfirmed, h.Status)

	// States are not sticky: strong contradictions pull CONFIRMED back down.
	for i := 0; i < 2; i++ {
		rec := record(t, h, evidence.TypeUserRejection, 0)
		_, err := u.Evaluate(context.Background(), h, &rec, evalAsOf)
		require.NoError(t, err)
	}
	assert.Equal(t, hypothesis.StatusTesting, h.Status)
}

func TestStalenessIndependentOfBand(t *testing.T) {
	u := newUpdater(nil)
	h := newHypothesis(t, 300)

	// All evidence is 200+ days old; nothing in the last 65 days.
	for i := 0; i < 3; i++ {
		rec := record(t, h, evidence.TypeUserConfirmation, 200+i*10)
		require.NoError(t, h.AppendEvidence(rec))
	}

	snap, err := u.Evaluate(context.Background(), h, nil, evalAsOf)
	require.NoError(t, err)
	assert.True(t, snap.IsStale)

	// Fresh evidence clears the flag on the next evaluation.
	fresh := record(t, h, evidence.TypeJournalEntry, 1)
	snap, err = u.Evaluate(context.Background(), h, &fresh, evalAsOf)
	require.NoError(t, err)
	assert.False(t, snap.IsStale)
}

func TestEvaluateSurfacesMalformedStoredEvidence(t *testing.T) {
	u := newUpdater(nil)
	h := newHypothesis(t, 0)

	rec := record(t, h, evidence.TypeJournalEntry, 5)
	require.NoError(t, h.AppendEvidence(rec))
	h.Evidence[0].BaseWeight = 9.9 // simulated data corruption

	_, err := u.Evaluate(context.Background(), h, nil, evalAsOf)
	require.Error(t, err)
	assert.True(t, core.IsInvalidEvidenceError(err))
}

func TestEvaluateRejectsEvidenceForOtherHypothesis(t *testing.T) {
	u := newUpdater(nil)
	h := newHypothesis(t, 0)
	other := newHypothesis(t, 0)

	rec := record(t, other, evidence.TypeUserConfirmation, 0)
	_, err := u.Evaluate(context.Background(), h, &rec, evalAsOf)
	require.Error(t, err)
	assert.True(t, core.IsInvalidEvidenceError(err))
}
