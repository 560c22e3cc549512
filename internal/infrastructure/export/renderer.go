package export

import (
	"bytes"
	"context"
	"time"
)

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	// HTML is a complete document
	HTML string
	// Title for the PDF document metadata
	Title string
	// Layout gives paper size and margins in millimetres
	Layout Layout
	// Timeout overrides the renderer's default
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer turns HTML into PDF bytes
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

var (
	pageMarker  = []byte("/Type /Page")
	pagesMarker = []byte("/Type /Pages")
)

// countPages estimates the number of pages from the page objects in a PDF
func countPages(pdf []byte) int {
	n := bytes.Count(pdf, pageMarker) - bytes.Count(pdf, pagesMarker)
	return max(n, 1)
}
