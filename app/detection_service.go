// Package app wires the statistical core to the persistence and
// notification ports.
package app

import (
	"context"
	"sync"
	"time"

	"cyclewise/domain/core"
	"cyclewise/domain/pattern"
	"cyclewise/internal"
	"cyclewise/internal/detect"
	"cyclewise/ports"

	"golang.org/x/sync/semaphore"
)

// DetectionService runs pattern detection for one user end to end: load
// the observation history once, run the detector in memory, and persist
// the resulting pattern set atomically. Runs for the same user are
// serialized so two concurrent triggers cannot interleave their upserts;
// runs for different users proceed in parallel.
type DetectionService struct {
	observations ports.ObservationReader
	patterns     ports.PatternRepository
	resolver     ports.CycleLabelResolver
	detector     *detect.Detector
	log          *internal.Logger

	mu      sync.Mutex
	perUser map[core.UserID]*semaphore.Weighted
}

// NewDetectionService creates a detection service.
func NewDetectionService(observations ports.ObservationReader, patterns ports.PatternRepository,
	resolver ports.CycleLabelResolver, detector *detect.Detector, log *internal.Logger) *DetectionService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &DetectionService{
		observations: observations,
		patterns:     patterns,
		resolver:     resolver,
		detector:     detector,
		log:          log.Named("detection"),
		perUser:      make(map[core.UserID]*semaphore.Weighted),
	}
}

// RunDetection executes one detection pass for a user as of the given
// time and persists the validated patterns. The returned report includes
// the run manifest; Partial is set when the time budget truncated the run.
func (s *DetectionService) RunDetection(ctx context.Context, userID core.UserID, asOf core.Timestamp) (*pattern.DetectionReport, error) {
	sem := s.userSemaphore(userID)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer sem.Release(1)

	start := time.Now()
	obs, err := s.observations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	report, err := s.detector.Run(ctx, obs, s.resolver.LabelAt, asOf)
	if err != nil {
		return nil, err
	}
	report.Manifest.UserID = userID

	if err := s.patterns.UpsertAll(ctx, userID, report.Patterns); err != nil {
		return nil, err
	}

	s.log.Info("detection for %s: %d observations, %d patterns in %v (partial=%v)",
		userID, len(obs), len(report.Patterns), time.Since(start), report.Partial)
	return report, nil
}

func (s *DetectionService) userSemaphore(userID core.UserID) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.perUser[userID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.perUser[userID] = sem
	}
	return sem
}
