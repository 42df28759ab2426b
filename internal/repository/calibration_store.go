package repository

import (
	"context"
	"errors"
	"sync"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/pkg/cache"
)

const calibrationKey = "calibration:active"

// CachedCalibrationStore keeps the single active calibration record in
// Redis with an in-process last-known-good copy. A full-record SET is
// atomic, so readers see the old or the new record, never a partial one.
// When Redis is unreachable, Active serves the last-known-good snapshot.
type CachedCalibrationStore struct {
	cache cache.Service

	mu        sync.RWMutex
	lastKnown *models.CalibrationRecord
}

// NewCachedCalibrationStore creates the store.
func NewCachedCalibrationStore(c cache.Service) repository.CalibrationStore {
	return &CachedCalibrationStore{cache: c}
}

func (s *CachedCalibrationStore) Active(ctx context.Context) (*models.CalibrationRecord, error) {
	var rec models.CalibrationRecord
	err := s.cache.Get(ctx, calibrationKey, &rec)
	if err == nil {
		s.mu.Lock()
		s.lastKnown = &rec
		s.mu.Unlock()
		return &rec, nil
	}
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}

	// Stale reads are tolerated over failing the request path.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastKnown != nil {
		copied := *s.lastKnown
		return &copied, nil
	}
	return nil, err
}

func (s *CachedCalibrationStore) Supersede(ctx context.Context, rec *models.CalibrationRecord) error {
	if err := s.cache.Set(ctx, calibrationKey, rec, 0); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastKnown = rec
	s.mu.Unlock()
	return nil
}
