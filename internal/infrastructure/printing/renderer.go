package printing

import (
	"context"
	"strings"
	"time"
)

// Letter sheet size in inches, as used by the browser print API
const (
	LetterWidthIn  = 8.5
	LetterHeightIn = 11.0
)

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	// HTML content to render; fragments are wrapped in a full document
	HTML string
	// Title for the document head
	Title string
	// PaperWidthIn and PaperHeightIn default to US Letter
	PaperWidthIn  float64
	PaperHeightIn float64
	// MarginIn is applied to all four sides
	MarginIn float64
	// Timeout overrides the renderer default
	Timeout time.Duration
}

// Validate checks the request and fills the Letter defaults
func (r *RenderRequest) Validate() error {
	if r == nil {
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(r.HTML) == "" {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if r.PaperWidthIn == 0 {
		r.PaperWidthIn = LetterWidthIn
	}
	if r.PaperHeightIn == 0 {
		r.PaperHeightIn = LetterHeightIn
	}
	if r.PaperWidthIn < 0 || r.PaperHeightIn < 0 || r.MarginIn < 0 ||
		2*r.MarginIn >= r.PaperWidthIn || 2*r.MarginIn >= r.PaperHeightIn {
		return NewRenderError(ErrCodeInvalidPaperSize, "paper size or margins out of range", nil)
	}
	return nil
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// HTMLRenderer renders HTML to PDF
type HTMLRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
