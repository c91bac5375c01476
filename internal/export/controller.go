package export

import (
	"context"
	"errors"
	"sync"
	"time"

	"report-service/internal/capture"
	"report-service/internal/models"
	"report-service/internal/pdf"
	"report-service/internal/service"
	"report-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the export flow state
type State string

// Export flow states. A run walks IDLE -> CONFIRMING -> CAPTURING ->
// COMPOSING -> DOWNLOADING -> IDLE; capture, compose and save failures
// escape through FAILED back to IDLE.
const (
	StateIdle        State = "IDLE"
	StateConfirming  State = "CONFIRMING"
	StateCapturing   State = "CAPTURING"
	StateComposing   State = "COMPOSING"
	StateDownloading State = "DOWNLOADING"
	StateFailed      State = "FAILED"
)

const lockKey = "report-export"

var (
	// ErrDeclined means the confirmation step was declined; not a failure,
	// and no capture was attempted.
	ErrDeclined = errors.New("export declined")

	// ErrExportInProgress means another export holds the single-flight lock
	ErrExportInProgress = errors.New("an export is already in progress")
)

// Sink persists a finished document locally
type Sink interface {
	Save(doc *pdf.Document) (string, error)
}

// Recorder appends to the export history
type Recorder interface {
	CreateExport(ctx context.Context, export *models.Export) error
}

// EventPublisher publishes export lifecycle events
type EventPublisher interface {
	PublishExportCompleted(ctx context.Context, event *models.ExportCompletedEvent) error
	PublishExportFailed(ctx context.Context, event *models.ExportFailedEvent) error
}

// Locker keeps exports single-flight across service instances
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// Request carries one export run's input. Model and Views are the snapshot
// currently rendered for the range.
type Request struct {
	Range     models.DateRange
	Model     *models.ReportModel
	Views     service.Views
	Confirmed bool
}

// Result is a finished export
type Result struct {
	Document *pdf.Document
	Path     string
}

// Controller orchestrates the export flow as a small state machine. One
// export runs at a time; a run cannot be cancelled once past confirmation.
type Controller struct {
	renderer capture.Renderer
	sink     Sink
	recorder Recorder
	events   EventPublisher
	locker   Locker
	lockTTL  time.Duration
	logger   *zap.Logger

	// runMu makes runs single-flight locally; stateMu guards the observable
	// state so it stays readable mid-run.
	runMu   sync.Mutex
	stateMu sync.Mutex
	state   State
}

// NewController creates a new export controller. recorder, events and
// locker may be nil; the flow then runs without history, events or the
// cross-instance lock.
func NewController(renderer capture.Renderer, sink Sink, recorder Recorder, events EventPublisher, locker Locker, lockTTL time.Duration) *Controller {
	return &Controller{
		renderer: renderer,
		sink:     sink,
		recorder: recorder,
		events:   events,
		locker:   locker,
		lockTTL:  lockTTL,
		logger:   util.GetLogger(),
		state:    StateIdle,
	}
}

// State returns the current flow state
func (c *Controller) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// Run drives one export: confirmation, capture, composition, save. On any
// capture/compose/save failure it surfaces the error, publishes an
// EXPORT_FAILED event and returns to IDLE without producing a file.
func (c *Controller) Run(ctx context.Context, req Request) (*Result, error) {
	if !c.runMu.TryLock() {
		return nil, ErrExportInProgress
	}
	defer c.runMu.Unlock()

	if c.locker != nil {
		ok, err := c.locker.AcquireLock(ctx, lockKey, c.lockTTL)
		if err != nil {
			c.logger.Warn("Export lock check failed, proceeding with local lock only", zap.Error(err))
		} else if !ok {
			return nil, ErrExportInProgress
		} else {
			defer func() {
				if err := c.locker.ReleaseLock(ctx, lockKey); err != nil {
					c.logger.Warn("Failed to release export lock", zap.Error(err))
				}
			}()
		}
	}

	ctx, span := util.StartSpan(ctx, "ExportController.Run")
	defer span.End()

	c.setState(StateConfirming)
	if !req.Confirmed {
		util.ExportsDeclinedTotal.Inc()
		c.setState(StateIdle)
		return nil, ErrDeclined
	}

	util.ExportsStartedTotal.Inc()
	start := time.Now()
	defer func() {
		util.ExportDuration.Observe(time.Since(start).Seconds())
	}()

	c.setState(StateCapturing)
	captureStart := time.Now()
	snapshot, err := c.renderer.Capture(ctx, capture.RenderRequest{
		Range:     req.Range,
		FetchedAt: req.Model.FetchedAt,
		Model:     req.Model,
		Views:     req.Views,
	})
	util.CaptureLatency.Observe(time.Since(captureStart).Seconds())
	if err != nil {
		return nil, c.fail(ctx, "capture", err)
	}

	c.setState(StateComposing)
	doc, err := pdf.Compose(snapshot, pdf.Meta{
		RangeStart:  req.Range.Start,
		RangeEnd:    req.Range.End,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return nil, c.fail(ctx, "compose", err)
	}
	util.PDFPagesGenerated.Observe(float64(doc.Pages))

	c.setState(StateDownloading)
	path, err := c.sink.Save(doc)
	if err != nil {
		return nil, c.fail(ctx, "save", err)
	}

	c.record(ctx, req, doc, path)
	c.publishCompleted(ctx, req, doc, path)

	c.logger.Info("Export completed",
		zap.String("filename", doc.Filename),
		zap.Int("pages", doc.Pages),
		zap.String("path", path))

	util.ExportsCompletedTotal.Inc()
	c.setState(StateIdle)

	return &Result{Document: doc, Path: path}, nil
}

// fail surfaces a stage failure and returns the flow to IDLE
func (c *Controller) fail(ctx context.Context, stage string, err error) error {
	c.setState(StateFailed)
	util.ExportsFailedTotal.WithLabelValues(stage).Inc()
	c.logger.Error("Export failed",
		zap.String("stage", stage),
		zap.Error(err))

	if c.events != nil {
		event := &models.ExportFailedEvent{
			BaseEvent: newBaseEvent(models.EventTypeExportFailed),
			Stage:     stage,
			Reason:    err.Error(),
		}
		if pubErr := c.events.PublishExportFailed(ctx, event); pubErr != nil {
			c.logger.Error("Failed to publish ExportFailed event", zap.Error(pubErr))
		}
	}

	c.setState(StateIdle)
	return err
}

// record appends to the export history; a history failure does not fail a
// finished export
func (c *Controller) record(ctx context.Context, req Request, doc *pdf.Document, path string) {
	if c.recorder == nil {
		return
	}
	export := &models.Export{
		Filename:   doc.Filename,
		Path:       path,
		RangeStart: req.Range.Start,
		RangeEnd:   req.Range.End,
		Pages:      doc.Pages,
		Status:     models.ExportStatusCompleted,
	}
	if err := c.recorder.CreateExport(ctx, export); err != nil {
		c.logger.Error("Failed to record export history", zap.Error(err))
	}
}

func (c *Controller) publishCompleted(ctx context.Context, req Request, doc *pdf.Document, path string) {
	if c.events == nil {
		return
	}
	event := &models.ExportCompletedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeExportCompleted),
		Filename:   doc.Filename,
		Path:       path,
		Pages:      doc.Pages,
		RangeStart: req.Range.Start.Format("2006-01-02"),
		RangeEnd:   req.Range.End.Format("2006-01-02"),
	}
	if err := c.events.PublishExportCompleted(ctx, event); err != nil {
		c.logger.Error("Failed to publish ExportCompleted event", zap.Error(err))
	}
}

func (c *Controller) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
	c.logger.Debug("Export state changed", zap.String("state", string(s)))
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
