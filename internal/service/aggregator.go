package service

import (
	"context"
	"fmt"
	"time"

	"report-service/internal/models"
	"report-service/internal/upstream"
	"report-service/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FetchError reports which aggregation read failed. Any single failure
// invalidates the whole fetch; no partial model is ever built.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("report fetch failed: endpoint=%s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Aggregator issues the reads needed for a date range and joins them into
// one consolidated snapshot
type Aggregator struct {
	client      *upstream.Client
	readTimeout time.Duration
	logger      *zap.Logger
}

// NewAggregator creates a new report aggregator
func NewAggregator(client *upstream.Client, readTimeout time.Duration) *Aggregator {
	return &Aggregator{
		client:      client,
		readTimeout: readTimeout,
		logger:      util.GetLogger(),
	}
}

// FetchAll issues the four reads concurrently and returns a fully populated
// ReportModel, or a FetchError if any one read fails. Callers must ensure
// rng.Start <= rng.End. There is no automatic retry; retry is re-invocation.
func (a *Aggregator) FetchAll(ctx context.Context, rng models.DateRange) (*models.ReportModel, error) {
	ctx, span := util.StartSpan(ctx, "Aggregator.FetchAll")
	defer span.End()

	util.ReportFetchesTotal.Inc()
	start := time.Now()
	defer func() {
		util.ReportFetchLatency.Observe(time.Since(start).Seconds())
	}()

	var (
		summary  *models.ReportSummary
		users    []models.User
		orders   []models.Order
		payments []models.Payment
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(a.read(gctx, "summary", func(ctx context.Context) error {
		var err error
		summary, err = a.client.GetSummary(ctx, rng)
		return err
	}))
	g.Go(a.read(gctx, "users", func(ctx context.Context) error {
		var err error
		users, err = a.client.GetUsers(ctx)
		return err
	}))
	g.Go(a.read(gctx, "orders", func(ctx context.Context) error {
		var err error
		orders, err = a.client.GetOrders(ctx)
		return err
	}))
	g.Go(a.read(gctx, "payments", func(ctx context.Context) error {
		var err error
		payments, err = a.client.GetPayments(ctx)
		return err
	}))

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Info("Report snapshot fetched",
		zap.Int("users", len(users)),
		zap.Int("orders", len(orders)),
		zap.Int("payments", len(payments)))

	return &models.ReportModel{
		Summary:   *summary,
		Users:     users,
		Orders:    orders,
		Payments:  payments,
		FetchedAt: time.Now(),
	}, nil
}

// read wraps one upstream call with a bounded timeout and tags failures
// with the originating endpoint
func (a *Aggregator) read(ctx context.Context, endpoint string, fn func(context.Context) error) func() error {
	return func() error {
		readCtx, cancel := context.WithTimeout(ctx, a.readTimeout)
		defer cancel()

		if err := fn(readCtx); err != nil {
			util.ReportFetchFailedTotal.WithLabelValues(endpoint).Inc()
			a.logger.Warn("Report read failed",
				zap.String("endpoint", endpoint),
				zap.Error(err))
			return &FetchError{Endpoint: endpoint, Err: err}
		}
		return nil
	}
}
