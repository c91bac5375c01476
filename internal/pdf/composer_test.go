package pdf

import (
	"bytes"
	"compress/zlib"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"report-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentPages(t *testing.T) {
	tests := []struct {
		name        string
		imageHeight float64
		pageHeight  float64
		want        int
	}{
		{"partial last page", 250, 100, 3},
		{"exact multiple has no trailing page", 300, 100, 3},
		{"single short page", 50, 100, 1},
		{"exactly one page", 100, 100, 1},
		{"zero height", 0, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentPages(tt.imageHeight, tt.pageHeight))
		})
	}
}

func TestBuildPlanScalesToPageWidth(t *testing.T) {
	plan := buildPlan(1000, 2000)

	assert.Equal(t, pageWidth, plan.ImageWidth)
	// aspect ratio preserved: 2000px at 210mm/1000px
	assert.InDelta(t, 420.0, plan.ImageHeight, 0.001)
	assert.Equal(t, 2, plan.ContentPages)
	assert.Equal(t, 3, plan.TotalPages)
}

func TestFooterText(t *testing.T) {
	assert.Equal(t, "Page 1 of 1", footerText(1, 1))
	assert.Equal(t, "Page 2 of 5", footerText(2, 5))
}

func TestRangeLabel(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Jan 1, 2024 - Jan 31, 2024", rangeLabel(start, end))
}

func testSnapshot(t *testing.T, width, height int) *models.RasterSnapshot {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 17, G: 24, B: 39, A: 255})
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return &models.RasterSnapshot{PNG: buf.Bytes(), Width: width, Height: height}
}

func testMeta() Meta {
	return Meta{
		RangeStart:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestComposePageCounts(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		height    int
		wantPages int
	}{
		// image height in page units = height * 210 / width
		{"one content page plus cover", 210, 297, 2},
		{"just over one page", 210, 298, 3},
		{"tall capture", 210, 1200, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Compose(testSnapshot(t, tt.width, tt.height), testMeta())
			require.NoError(t, err)
			assert.Equal(t, tt.wantPages, doc.Pages)
			assert.NotEmpty(t, doc.Bytes)
		})
	}
}

func TestComposeNamingAndTitle(t *testing.T) {
	doc, err := Compose(testSnapshot(t, 210, 297), testMeta())
	require.NoError(t, err)

	// named for the day the export ran, not the report period
	assert.Equal(t, "operations_report_2024-02-01.pdf", doc.Filename)
	assert.Equal(t, "Operations Report - Jan 1, 2024 - Jan 31, 2024", doc.Title)
}

func TestComposeIdempotent(t *testing.T) {
	snapshot := testSnapshot(t, 210, 500)
	meta := testMeta()

	first, err := Compose(snapshot, meta)
	require.NoError(t, err)
	second, err := Compose(snapshot, meta)
	require.NoError(t, err)

	assert.Equal(t, first.Pages, second.Pages)
	assert.Equal(t, first.Filename, second.Filename)
	assert.Equal(t, first.Title, second.Title)
}

// inflateStreams decompresses every flate stream in a PDF and concatenates
// the results, enough to search the page content for drawn text
func inflateStreams(data []byte) string {
	var out []byte
	for {
		i := bytes.Index(data, []byte("stream\n"))
		if i < 0 {
			break
		}
		data = data[i+len("stream\n"):]
		j := bytes.Index(data, []byte("endstream"))
		if j < 0 {
			break
		}
		if r, err := zlib.NewReader(bytes.NewReader(data[:j])); err == nil {
			if inflated, err := io.ReadAll(r); err == nil {
				out = append(out, inflated...)
			}
			r.Close()
		}
		data = data[j+len("endstream"):]
	}
	return string(out)
}

func TestComposeStampsFooterOnEveryPage(t *testing.T) {
	// 744px at full page width is 744 page units: three content pages
	// plus the cover
	doc, err := Compose(testSnapshot(t, 210, 744), testMeta())
	require.NoError(t, err)
	require.Equal(t, 4, doc.Pages)

	content := inflateStreams(doc.Bytes)
	require.NotEmpty(t, content)

	for i := 1; i <= doc.Pages; i++ {
		assert.Contains(t, content, footerText(i, doc.Pages))
	}
	assert.NotContains(t, content, "Page 5 of")
}

func TestComposeRejectsBadSnapshots(t *testing.T) {
	var composeErr *ComposeError

	_, err := Compose(nil, testMeta())
	require.Error(t, err)
	assert.ErrorAs(t, err, &composeErr)

	_, err = Compose(&models.RasterSnapshot{PNG: []byte("x"), Width: 0, Height: 100}, testMeta())
	require.Error(t, err)
	assert.ErrorAs(t, err, &composeErr)
	assert.Equal(t, "validate", composeErr.Stage)
}
