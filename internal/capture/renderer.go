package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"time"

	"report-service/internal/models"
	"report-service/internal/service"
)

// CaptureError reports a failed raster snapshot acquisition
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("snapshot capture failed: %v", e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// RenderRequest is the report content sent to the render service. Only the
// detail tables end up in the capture; charts are on-screen only.
type RenderRequest struct {
	Range     models.DateRange    `json:"range"`
	FetchedAt time.Time           `json:"fetched_at"`
	Model     *models.ReportModel `json:"model"`
	Views     service.Views       `json:"views"`
}

// Renderer captures the rendered report content as a single raster image
type Renderer interface {
	Capture(ctx context.Context, req RenderRequest) (*models.RasterSnapshot, error)
}

// HTTPRenderer asks an external render service to rasterize the report
// tables into one tall PNG
type HTTPRenderer struct {
	url        string
	httpClient *http.Client
}

// NewHTTPRenderer creates a renderer client
func NewHTTPRenderer(url string, timeout time.Duration) *HTTPRenderer {
	return &HTTPRenderer{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Capture posts the report content and decodes the returned PNG. A
// zero-size image is a capture failure; composition never starts on one.
func (r *HTTPRenderer) Capture(ctx context.Context, renderReq RenderRequest) (*models.RasterSnapshot, error) {
	body, err := json.Marshal(renderReq)
	if err != nil {
		return nil, &CaptureError{Err: fmt.Errorf("failed to encode render request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, &CaptureError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &CaptureError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &CaptureError{Err: fmt.Errorf("unexpected status %s from renderer", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CaptureError{Err: err}
	}

	return DecodeSnapshot(data)
}

// DecodeSnapshot validates PNG bytes and reads the image dimensions
func DecodeSnapshot(data []byte) (*models.RasterSnapshot, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &CaptureError{Err: fmt.Errorf("invalid png: %w", err)}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &CaptureError{Err: fmt.Errorf("zero-size capture: %dx%d", cfg.Width, cfg.Height)}
	}

	return &models.RasterSnapshot{
		PNG:    data,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
