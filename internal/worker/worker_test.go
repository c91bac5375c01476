package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"report-service/internal/capture"
	"report-service/internal/export"
	"report-service/internal/models"
	"report-service/internal/service"

	"github.com/stretchr/testify/assert"
)

type stubFetcher struct {
	calls int
}

func (f *stubFetcher) FetchAll(_ context.Context, rng models.DateRange) (*models.ReportModel, error) {
	f.calls++
	return &models.ReportModel{
		Summary:   models.ReportSummary{PeriodStart: rng.Start, PeriodEnd: rng.End},
		FetchedAt: time.Now(),
	}, nil
}

type unreachableRenderer struct{}

func (unreachableRenderer) Capture(context.Context, capture.RenderRequest) (*models.RasterSnapshot, error) {
	return nil, errors.New("capture must not run")
}

type deniedLocker struct{}

func (deniedLocker) AcquireLock(context.Context, string, time.Duration) (bool, error) {
	return false, nil
}

func (deniedLocker) ReleaseLock(context.Context, string) error { return nil }

func requestedEvent(start, end string) *models.ExportRequestedEvent {
	return &models.ExportRequestedEvent{
		BaseEvent:   models.BaseEvent{EventType: models.EventTypeExportRequested},
		RangeStart:  start,
		RangeEnd:    end,
		RequestedBy: "scheduler",
	}
}

func TestHandleExportRequestedSurfacesInProgress(t *testing.T) {
	// A denied export lock must propagate as ErrExportInProgress so the
	// message stays uncommitted and the request is retried later
	fetcher := &stubFetcher{}
	reports := service.NewReportService(fetcher)
	exporter := export.NewController(unreachableRenderer{}, export.NewFileSink(t.TempDir()), nil, nil, deniedLocker{}, time.Minute)
	w := NewExportWorker(nil, reports, exporter)

	err := w.handleExportRequested(context.Background(), requestedEvent("2024-01-01", "2024-01-31"))

	assert.ErrorIs(t, err, export.ErrExportInProgress)
	assert.Equal(t, 1, fetcher.calls)
}

func TestHandleExportRequestedDropsBadRange(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"unparseable start", "not-a-date", "2024-01-31"},
		{"unparseable end", "2024-01-01", "soon"},
		{"inverted range", "2024-02-01", "2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &stubFetcher{}
			reports := service.NewReportService(fetcher)
			w := NewExportWorker(nil, reports, nil)

			err := w.handleExportRequested(context.Background(), requestedEvent(tt.start, tt.end))

			// dropped, not retried
			assert.NoError(t, err)
			assert.Equal(t, 0, fetcher.calls)
		})
	}
}
