package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"report-service/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// A4 portrait in millimeters
const (
	pageWidth  = 210.0
	pageHeight = 297.0
)

// Cover and footer layout constants, in page units
const (
	coverTitle     = "Operations Report"
	coverTitleY    = 50.0
	coverRangeY    = 63.0
	coverStampY    = 71.0
	footerRightPad = 20.0
	footerBottom   = 8.0
)

// ComposeError reports a failed document assembly. No partial document is
// ever returned alongside one.
type ComposeError struct {
	Stage string
	Err   error
}

func (e *ComposeError) Error() string {
	return fmt.Sprintf("pdf compose failed: stage=%s: %v", e.Stage, e.Err)
}

func (e *ComposeError) Unwrap() error {
	return e.Err
}

// Meta describes the report the document is composed for
type Meta struct {
	RangeStart  time.Time
	RangeEnd    time.Time
	GeneratedAt time.Time
}

// Document is a finished, paginated report
type Document struct {
	Bytes    []byte
	Pages    int
	Filename string
	Title    string
}

// Plan is the page geometry derived from the snapshot dimensions before any
// page is drawn
type Plan struct {
	ImageWidth   float64
	ImageHeight  float64
	ContentPages int
	TotalPages   int
}

// buildPlan scales the snapshot width to the page width, keeps the aspect
// ratio, and counts the pages the tiling loop will produce
func buildPlan(pxWidth, pxHeight int) Plan {
	imgH := float64(pxHeight) * pageWidth / float64(pxWidth)
	content := contentPages(imgH, pageHeight)
	return Plan{
		ImageWidth:   pageWidth,
		ImageHeight:  imgH,
		ContentPages: content,
		TotalPages:   content + 1,
	}
}

// contentPages counts the pages needed to tile an image of the given height
// across fixed-height pages: ceil(imageHeight / pageHeight), with no
// trailing page when the height is an exact multiple.
func contentPages(imageHeight, pageHeight float64) int {
	pages := 0
	for remaining := imageHeight; remaining > 0; remaining -= pageHeight {
		pages++
	}
	return pages
}

func footerText(page, total int) string {
	return fmt.Sprintf("Page %d of %d", page, total)
}

func prettyDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

func rangeLabel(start, end time.Time) string {
	return prettyDate(start) + " - " + prettyDate(end)
}

// Compose converts a raster snapshot plus metadata into a finished
// document: a vector cover page, the snapshot tiled across content pages at
// offsets 0, -Hp, -2Hp, ..., a second footer pass once the total count is
// known, and document metadata. The final page may carry trailing blank
// space.
func Compose(snapshot *models.RasterSnapshot, meta Meta) (*Document, error) {
	if snapshot == nil || len(snapshot.PNG) == 0 {
		return nil, &ComposeError{Stage: "validate", Err: errors.New("empty snapshot")}
	}
	if snapshot.Width <= 0 || snapshot.Height <= 0 {
		return nil, &ComposeError{
			Stage: "validate",
			Err:   fmt.Errorf("zero-size snapshot: %dx%d", snapshot.Width, snapshot.Height),
		}
	}

	plan := buildPlan(snapshot.Width, snapshot.Height)
	ranges := rangeLabel(meta.RangeStart, meta.RangeEnd)

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)

	// Cover page, vector only, independent of the snapshot
	doc.AddPage()
	doc.SetFillColor(248, 250, 252)
	doc.Rect(0, 0, pageWidth, pageHeight, "F")
	doc.SetTextColor(17, 24, 39)
	doc.SetFont("Helvetica", "B", 22)
	centerText(doc, coverTitle, coverTitleY)
	doc.SetFont("Helvetica", "", 12)
	doc.SetTextColor(75, 85, 99)
	centerText(doc, "Date Range: "+ranges, coverRangeY)
	centerText(doc, "Generated: "+prettyDate(meta.GeneratedAt), coverStampY)

	// Tile the full image on every content page at a rising negative
	// offset; the page boundary clips each slice.
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("snapshot", opts, bytes.NewReader(snapshot.PNG))

	offset := 0.0
	for remaining := plan.ImageHeight; remaining > 0; remaining -= pageHeight {
		doc.AddPage()
		doc.ImageOptions("snapshot", 0, offset, plan.ImageWidth, plan.ImageHeight, false, opts, 0, "")
		offset -= pageHeight
	}

	// The footer needs the total count, so it runs as a second pass after
	// every page exists.
	total := doc.PageCount()
	doc.SetFont("Helvetica", "", 8)
	doc.SetTextColor(107, 114, 128)
	for i := 1; i <= total; i++ {
		doc.SetPage(i)
		doc.Text(pageWidth-footerRightPad, pageHeight-footerBottom, footerText(i, total))
	}

	title := coverTitle + " - " + ranges
	doc.SetTitle(title, true)
	doc.SetSubject("Tables export", true)
	doc.SetAuthor("Admin Dashboard", true)
	doc.SetCreator("Admin Dashboard", true)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, &ComposeError{Stage: "render", Err: err}
	}

	return &Document{
		Bytes:    buf.Bytes(),
		Pages:    total,
		Filename: fmt.Sprintf("operations_report_%s.pdf", meta.GeneratedAt.Format("2006-01-02")),
		Title:    title,
	}, nil
}

// centerText draws a string horizontally centered at the given baseline
func centerText(doc *gofpdf.Fpdf, s string, y float64) {
	doc.Text((pageWidth-doc.GetStringWidth(s))/2, y, s)
}
