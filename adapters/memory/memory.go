// Package memory provides in-memory implementations of the persistence
// ports. Used by tests and the CLI's dry-run mode; safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"

	"cyclewise/domain/core"
	"cyclewise/domain/hypothesis"
	"cyclewise/domain/observation"
	"cyclewise/domain/pattern"
	"cyclewise/ports"
)

// ObservationStore holds observations per user.
type ObservationStore struct {
	mu  sync.RWMutex
	byU map[core.UserID][]observation.Observation
}

// NewObservationStore creates an empty observation store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{byU: make(map[core.UserID][]observation.Observation)}
}

var _ ports.ObservationReader = (*ObservationStore)(nil)

// Add appends observations for their owning users.
func (s *ObservationStore) Add(obs ...observation.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range obs {
		s.byU[o.UserID] = append(s.byU[o.UserID], o)
	}
}

func (s *ObservationStore) ListByUser(_ context.Context, userID core.UserID) ([]observation.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obs := s.byU[userID]
	out := make([]observation.Observation, len(obs))
	copy(out, obs)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// PatternStore keys stored patterns by user and identity so upsert
// semantics match the database adapter.
type PatternStore struct {
	mu  sync.RWMutex
	byU map[core.UserID]map[pattern.IdentityKey]*pattern.CyclicalPattern
}

// NewPatternStore creates an empty pattern store.
func NewPatternStore() *PatternStore {
	return &PatternStore{byU: make(map[core.UserID]map[pattern.IdentityKey]*pattern.CyclicalPattern)}
}

var _ ports.PatternRepository = (*PatternStore)(nil)

func (s *PatternStore) UpsertAll(_ context.Context, userID core.UserID, patterns []*pattern.CyclicalPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKey, ok := s.byU[userID]
	if !ok {
		byKey = make(map[pattern.IdentityKey]*pattern.CyclicalPattern)
		s.byU[userID] = byKey
	}

	for _, p := range patterns {
		key := p.Identity()
		existing, ok := byKey[key]
		if !ok {
			clone := *p
			byKey[key] = &clone
			continue
		}
		existing.ObservedValue = p.ObservedValue
		existing.BaselineValue = p.BaselineValue
		existing.Confidence = p.Confidence
		existing.FindingText = p.FindingText
		existing.Refresh(p.SupportingCount, p.LastSeen)
	}
	return nil
}

func (s *PatternStore) ListByUser(_ context.Context, userID core.UserID) ([]*pattern.CyclicalPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*pattern.CyclicalPattern, 0, len(s.byU[userID]))
	for _, p := range s.byU[userID] {
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Identity().String() < out[j].Identity().String()
	})
	return out, nil
}

// HypothesisStore holds hypothesis aggregates by id.
type HypothesisStore struct {
	mu   sync.RWMutex
	byID map[core.HypothesisID]*hypothesis.Hypothesis
}

// NewHypothesisStore creates an empty hypothesis store.
func NewHypothesisStore() *HypothesisStore {
	return &HypothesisStore{byID: make(map[core.HypothesisID]*hypothesis.Hypothesis)}
}

var _ ports.HypothesisRepository = (*HypothesisStore)(nil)

func (s *HypothesisStore) Create(_ context.Context, h *hypothesis.Hypothesis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *h
	s.byID[h.ID] = &clone
	return nil
}

func (s *HypothesisStore) GetByID(_ context.Context, id core.HypothesisID) (*hypothesis.Hypothesis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	clone := *h
	return &clone, nil
}

func (s *HypothesisStore) ListByUser(_ context.Context, userID core.UserID) ([]*hypothesis.Hypothesis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*hypothesis.Hypothesis
	for _, h := range s.byID {
		if h.UserID != userID {
			continue
		}
		clone := *h
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *HypothesisStore) Save(_ context.Context, h *hypothesis.Hypothesis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[h.ID]; !ok {
		return core.ErrNotFound
	}
	clone := *h
	s.byID[h.ID] = &clone
	return nil
}

// Notifier collects confirmation events for inspection.
type Notifier struct {
	mu     sync.Mutex
	events []hypothesis.TransitionEvent
}

// NewNotifier creates an empty collecting notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

var _ ports.TransitionNotifier = (*Notifier)(nil)

func (n *Notifier) NotifyConfirmed(_ context.Context, event hypothesis.TransitionEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

// Events returns a copy of the collected events.
func (n *Notifier) Events() []hypothesis.TransitionEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]hypothesis.TransitionEvent, len(n.events))
	copy(out, n.events)
	return out
}
