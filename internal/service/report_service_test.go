package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"report-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher lets tests control when each FetchAll returns
type fakeFetcher struct {
	fetch func(ctx context.Context, rng models.DateRange) (*models.ReportModel, error)
}

func (f *fakeFetcher) FetchAll(ctx context.Context, rng models.DateRange) (*models.ReportModel, error) {
	return f.fetch(ctx, rng)
}

func modelFor(rng models.DateRange) *models.ReportModel {
	return &models.ReportModel{
		Summary:   models.ReportSummary{PeriodStart: rng.Start, PeriodEnd: rng.End},
		FetchedAt: time.Now(),
	}
}

func TestRefreshReplacesSnapshotWholesale(t *testing.T) {
	fetcher := &fakeFetcher{fetch: func(_ context.Context, rng models.DateRange) (*models.ReportModel, error) {
		return modelFor(rng), nil
	}}
	svc := NewReportService(fetcher)

	rng := models.DateRange{Start: time.Now().AddDate(0, -1, 0), End: time.Now()}
	model, err := svc.Refresh(context.Background(), rng)
	require.NoError(t, err)

	current, currentRng := svc.Current()
	assert.Same(t, model, current)
	assert.Equal(t, rng, currentRng)
}

func TestRefreshFailureLeavesSnapshotUntouched(t *testing.T) {
	calls := 0
	fetcher := &fakeFetcher{fetch: func(_ context.Context, rng models.DateRange) (*models.ReportModel, error) {
		calls++
		if calls > 1 {
			return nil, &FetchError{Endpoint: "orders", Err: errors.New("boom")}
		}
		return modelFor(rng), nil
	}}
	svc := NewReportService(fetcher)

	rng := models.DateRange{Start: time.Now().AddDate(0, -1, 0), End: time.Now()}
	first, err := svc.Refresh(context.Background(), rng)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), rng)
	require.Error(t, err)

	current, _ := svc.Current()
	assert.Same(t, first, current)
}

func TestRefreshDiscardsStaleResponse(t *testing.T) {
	// The first fetch blocks until released; a second fetch for a newer
	// range completes in the meantime. The late first response must be
	// dropped, not allowed to overwrite the newer snapshot.
	release := make(chan struct{})
	started := make(chan struct{})
	first := true

	fetcher := &fakeFetcher{fetch: func(_ context.Context, rng models.DateRange) (*models.ReportModel, error) {
		if first {
			first = false
			close(started)
			<-release
		}
		return modelFor(rng), nil
	}}
	svc := NewReportService(fetcher)

	oldRange := models.DateRange{Start: time.Now().AddDate(0, -2, 0), End: time.Now().AddDate(0, -1, 0)}
	newRange := models.DateRange{Start: time.Now().AddDate(0, -1, 0), End: time.Now()}

	staleResult := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background(), oldRange)
		staleResult <- err
	}()

	<-started
	newModel, err := svc.Refresh(context.Background(), newRange)
	require.NoError(t, err)

	close(release)
	err = <-staleResult
	assert.ErrorIs(t, err, ErrStaleSnapshot)

	current, currentRng := svc.Current()
	assert.Same(t, newModel, current)
	assert.Equal(t, newRange, currentRng)
}

func TestApplyRechecksTokenUnderLock(t *testing.T) {
	// A late response can pass an early staleness check and still lose the
	// race to a newer fetch before it takes the snapshot lock. The install
	// step must re-verify the token while holding the lock, so a response
	// for an older token never lands.
	fetcher := &fakeFetcher{fetch: func(_ context.Context, rng models.DateRange) (*models.ReportModel, error) {
		return modelFor(rng), nil
	}}
	svc := NewReportService(fetcher)

	newRange := models.DateRange{Start: time.Now().AddDate(0, -1, 0), End: time.Now()}
	newModel, err := svc.Refresh(context.Background(), newRange)
	require.NoError(t, err)

	oldRange := models.DateRange{Start: time.Now().AddDate(0, -2, 0), End: time.Now().AddDate(0, -1, 0)}
	staleToken := svc.token.Load() - 1

	err = svc.apply(staleToken, modelFor(oldRange), oldRange)
	assert.ErrorIs(t, err, ErrStaleSnapshot)

	current, currentRng := svc.Current()
	assert.Same(t, newModel, current)
	assert.Equal(t, newRange, currentRng)
}

func TestCurrentNilBeforeFirstRefresh(t *testing.T) {
	svc := NewReportService(&fakeFetcher{fetch: func(_ context.Context, rng models.DateRange) (*models.ReportModel, error) {
		return modelFor(rng), nil
	}})

	current, _ := svc.Current()
	assert.Nil(t, current)
}
