package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"report-service/internal/broker"
	"report-service/internal/export"
	"report-service/internal/models"
	"report-service/internal/service"
)

// ExportWorker runs scheduled exports requested over the event topic.
// Requests arriving this way carry their own authorization, so the
// confirmation step is treated as already given.
type ExportWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	reports      *service.ReportService
	exporter     *export.Controller
}

// NewExportWorker creates a new export worker
func NewExportWorker(
	consumer *broker.Consumer,
	reports *service.ReportService,
	exporter *export.Controller,
) *ExportWorker {
	w := &ExportWorker{
		consumer: consumer,
		reports:  reports,
		exporter: exporter,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnExportRequested(w.handleExportRequested)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *ExportWorker) Start(ctx context.Context) error {
	log.Println("Starting export worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ExportWorker) Stop() error {
	log.Println("Stopping export worker...")
	return w.consumer.Close()
}

// handleExportRequested runs a full fetch, derive and export for the
// requested range
func (w *ExportWorker) handleExportRequested(ctx context.Context, event *models.ExportRequestedEvent) error {
	rng, err := parseRange(event.RangeStart, event.RangeEnd)
	if err != nil {
		log.Printf("Dropping export request with bad range: %v", err)
		return nil
	}

	log.Printf("Processing export request: range=%s..%s, by=%s",
		event.RangeStart, event.RangeEnd, event.RequestedBy)

	model, err := w.reports.Refresh(ctx, rng)
	if err != nil {
		return fmt.Errorf("failed to fetch report for export: %w", err)
	}

	_, err = w.exporter.Run(ctx, export.Request{
		Range:     rng,
		Model:     model,
		Views:     service.DeriveViews(model),
		Confirmed: true,
	})
	if errors.Is(err, export.ErrExportInProgress) {
		// Leave the message uncommitted so the request is retried once
		// the running export finishes.
		return err
	}
	return err
}

func parseRange(start, end string) (models.DateRange, error) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return models.DateRange{}, err
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return models.DateRange{}, err
	}
	if s.After(e) {
		return models.DateRange{}, fmt.Errorf("range start %s after end %s", start, end)
	}
	return models.DateRange{Start: s, End: e}, nil
}
