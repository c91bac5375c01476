package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"report-service/internal/models"
	"report-service/internal/util"

	"go.uber.org/zap"
)

// ErrStaleSnapshot is returned when a fetch completes after a newer fetch
// has already been issued; its result is discarded.
var ErrStaleSnapshot = errors.New("stale report snapshot discarded")

// Fetcher produces a consolidated snapshot for a date range
type Fetcher interface {
	FetchAll(ctx context.Context, rng models.DateRange) (*models.ReportModel, error)
}

// ReportService holds the current report snapshot. The snapshot is replaced
// wholesale on success only; a failed or stale fetch leaves the previously
// held snapshot untouched.
type ReportService struct {
	fetcher Fetcher
	logger  *zap.Logger

	token atomic.Uint64

	mu      sync.RWMutex
	current *models.ReportModel
	rng     models.DateRange
}

// NewReportService creates a new report service
func NewReportService(fetcher Fetcher) *ReportService {
	return &ReportService{
		fetcher: fetcher,
		logger:  util.GetLogger(),
	}
}

// Refresh fetches a fresh snapshot for the range. Each invocation gets a
// monotonically increasing token; a response that is no longer the latest
// issued request is dropped with ErrStaleSnapshot.
func (s *ReportService) Refresh(ctx context.Context, rng models.DateRange) (*models.ReportModel, error) {
	token := s.token.Add(1)

	model, err := s.fetcher.FetchAll(ctx, rng)
	if err != nil {
		return nil, err
	}

	if err := s.apply(token, model, rng); err != nil {
		return nil, err
	}
	return model, nil
}

// apply installs a fetched snapshot. The staleness check and the write
// share the mutex so a late response cannot pass the check and then
// overwrite a newer snapshot installed in between.
func (s *ReportService) apply(token uint64, model *models.ReportModel, rng models.DateRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if latest := s.token.Load(); token != latest {
		util.ReportStaleDropsTotal.Inc()
		s.logger.Warn("Dropping stale report snapshot",
			zap.Uint64("token", token),
			zap.Uint64("latest", latest))
		return ErrStaleSnapshot
	}

	s.current = model
	s.rng = rng
	return nil
}

// Current returns the held snapshot and its range; the snapshot is nil
// until the first successful Refresh
func (s *ReportService) Current() (*models.ReportModel, models.DateRange) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.rng
}
