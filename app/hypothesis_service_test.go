package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"cyclewise/adapters/memory"
	"cyclewise/domain/core"
	"cyclewise/domain/evidence"
	"cyclewise/domain/hypothesis"
	"cyclewise/domain/pattern"
	"cyclewise/internal/confidence"
	"cyclewise/internal/config"
	"cyclewise/internal/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var svcAsOf = core.NewTimestamp(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

func newHypothesisService(notifier *memory.Notifier) (*HypothesisService, *memory.HypothesisStore) {
	cfg := config.Default()
	calc := confidence.NewCalculator(cfg.Confidence)
	var updater *lifecycle.Updater
	if notifier == nil {
		updater = lifecycle.NewUpdater(cfg.Lifecycle, calc, nil, nil)
	} else {
		updater = lifecycle.NewUpdater(cfg.Lifecycle, calc, notifier, nil)
	}
	store := memory.NewHypothesisStore()
	return NewHypothesisService(store, updater, nil), store
}

func TestProposeEvaluatesAndPersists(t *testing.T) {
	svc, store := newHypothesisService(nil)
	ctx := context.Background()

	h, err := svc.Propose(ctx, core.UserID("u1"), "mood lifts during ember weeks", svcAsOf)
	require.NoError(t, err)
	assert.InDelta(t, 0.1824, h.Confidence, 0.001)
	assert.Equal(t, hypothesis.StatusForming, h.Status)

	stored, err := store.GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Confidence, stored.Confidence)
}

func TestSubmitEvidencePersistsProjection(t *testing.T) {
	svc, store := newHypothesisService(nil)
	ctx := context.Background()

	h, err := svc.Propose(ctx, core.UserID("u1"), "headaches cluster in tide weeks", svcAsOf)
	require.NoError(t, err)

	rec, err := evidence.NewRecord(h.ID, evidence.TypeUserConfirmation, 1.0, svcAsOf, nil)
	require.NoError(t, err)

	snap, err := svc.SubmitEvidence(ctx, h.ID, rec)
	require.NoError(t, err)
	assert.Greater(t, snap.Confidence, 0.1824)

	stored, err := store.GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Evidence, 1)
	assert.Equal(t, snap.Confidence, stored.Confidence)
}

func TestSubmitEvidenceUnknownHypothesis(t *testing.T) {
	svc, _ := newHypothesisService(nil)

	rec, err := evidence.NewRecord(core.HypothesisID(core.NewID()),
		evidence.TypeUserConfirmation, 1.0, svcAsOf, nil)
	require.NoError(t, err)

	_, err = svc.SubmitEvidence(context.Background(), rec.HypothesisID, rec)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestIngestPatternsLinksFindings(t *testing.T) {
	svc, store := newHypothesisService(nil)
	ctx := context.Background()
	userID := core.UserID("u1")

	tideH, err := svc.Propose(ctx, userID, "headaches cluster in tide weeks", svcAsOf)
	require.NoError(t, err)
	emberH, err := svc.Propose(ctx, userID, "energy peaks in ember weeks", svcAsOf)
	require.NoError(t, err)

	findings := []*pattern.CyclicalPattern{
		pattern.MustNew(pattern.TypeSymptomCorrelation, "tide", "headache",
			0.6, 0.18, 0.95, 4, svcAsOf, "headache rate 3.3x baseline in tide"),
		pattern.MustNew(pattern.TypeVarianceComparison, "ember", "energy",
			7.2, 4.1, 0.9, 4, svcAsOf, "energy differs across categories"),
	}

	// Link by category keyword in the claim.
	link := func(p *pattern.CyclicalPattern, h *hypothesis.Hypothesis) bool {
		return strings.Contains(h.Claim, p.CategoryKey)
	}
	require.NoError(t, svc.IngestPatterns(ctx, userID, findings, link, svcAsOf))

	stored, err := store.GetByID(ctx, tideH.ID)
	require.NoError(t, err)
	require.Len(t, stored.Evidence, 1)
	assert.Equal(t, evidence.TypeCyclicalPattern, stored.Evidence[0].Type)
	assert.Greater(t, stored.Confidence, 0.1824)

	stored, err = store.GetByID(ctx, emberH.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Evidence, 1)
}

func TestReevaluateUserFlagsStale(t *testing.T) {
	notifier := memory.NewNotifier()
	svc, _ := newHypothesisService(notifier)
	ctx := context.Background()
	userID := core.UserID("u1")

	created := core.NewTimestamp(svcAsOf.Time().AddDate(0, 0, -300))
	stale, err := svc.Propose(ctx, userID, "old standing claim", created)
	require.NoError(t, err)

	fresh, err := svc.Propose(ctx, userID, "fresh claim", svcAsOf)
	require.NoError(t, err)
	rec, err := evidence.NewRecord(fresh.ID, evidence.TypeJournalEntry, 0.8, svcAsOf, nil)
	require.NoError(t, err)
	_, err = svc.SubmitEvidence(ctx, fresh.ID, rec)
	require.NoError(t, err)

	snaps, err := svc.ReevaluateUser(ctx, userID, svcAsOf)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	byID := make(map[core.HypothesisID]hypothesis.Snapshot)
	for _, s := range snaps {
		byID[s.HypothesisID] = s
	}
	assert.True(t, byID[stale.ID].IsStale)
	assert.False(t, byID[fresh.ID].IsStale)
	assert.Empty(t, notifier.Events())
}
