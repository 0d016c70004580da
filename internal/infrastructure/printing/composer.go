package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"
	"github.com/returnmail/backend/internal/domain/returns"
	"go.uber.org/zap"
)

const pageBox = "/MediaBox"

// ErrNotPDF is returned for input that lacks a PDF header
var ErrNotPDF = errors.New("document is not a PDF")

// PageSize is one page's media box size in points
type PageSize struct {
	Width  float64
	Height float64
}

// Composer builds the return packet from the instructions and the label.
// It holds no per-request state and is safe for concurrent use.
type Composer struct {
	creator string
	logger  *zap.Logger
}

// NewComposer creates a composer
func NewComposer(logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{creator: "returnmail", logger: logger.Named("printing.composer")}
}

// Compose appends every instructions page unmodified, then one US Letter page
// with the first label page scaled into the target box and centered.
func (c *Composer) Compose(ctx context.Context, labelBytes, instructions []byte) (doc *returns.ComposedDocument, err error) {
	if err := ctx.Err(); err != nil {
		return nil, &returns.ComposeError{Reason: returns.ComposeRenderFailed, Cause: err}
	}
	if !looksLikePDF(labelBytes) {
		return nil, &returns.ComposeError{Reason: returns.ComposeInvalidLabelDocument, Cause: ErrNotPDF}
	}
	if len(instructions) > 0 && !looksLikePDF(instructions) {
		return nil, &returns.ComposeError{Reason: returns.ComposeInvalidInstructionsDocument, Cause: ErrNotPDF}
	}

	// gofpdi panics on documents it cannot parse
	reason := returns.ComposeRenderFailed
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &returns.ComposeError{Reason: reason, Cause: fmt.Errorf("%v", r)}
		}
	}()

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
	})
	pdf.SetCreator(c.creator, false)
	pdf.SetAutoPageBreak(false, 0)

	// One importer per document: template names are only unique within an importer
	imp := gofpdi.NewImporter()

	instructionPages := 0
	if len(instructions) > 0 {
		reason = returns.ComposeInvalidInstructionsDocument
		rs := io.ReadSeeker(bytes.NewReader(instructions))
		first := imp.ImportPageFromStream(pdf, &rs, 1, pageBox)
		sizes := imp.GetPageSizes()
		for n := 1; n <= len(sizes); n++ {
			tpl := first
			if n > 1 {
				tpl = imp.ImportPageFromStream(pdf, &rs, n, pageBox)
			}
			w, h := sizes[n][pageBox]["w"], sizes[n][pageBox]["h"]
			pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
			imp.UseImportedTemplate(pdf, tpl, 0, 0, w, h)
		}
		instructionPages = len(sizes)
	}

	reason = returns.ComposeInvalidLabelDocument
	lrs := io.ReadSeeker(bytes.NewReader(labelBytes))
	labelTpl := imp.ImportPageFromStream(pdf, &lrs, 1, pageBox)
	labelBox := imp.GetPageSizes()[1][pageBox]
	placement, err := FitLabel(labelBox["w"], labelBox["h"])
	if err != nil {
		return nil, &returns.ComposeError{Reason: returns.ComposeInvalidLabelDocument, Cause: err}
	}

	reason = returns.ComposeRenderFailed
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: PageWidth, Ht: PageHeight})
	imp.UseImportedTemplate(pdf, labelTpl, placement.X, top(placement), placement.Width, placement.Height)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &returns.ComposeError{Reason: returns.ComposeRenderFailed, Cause: err}
	}

	c.logger.Debug("return packet composed",
		zap.Int("instruction_pages", instructionPages),
		zap.Float64("label_scale", placement.Scale),
		zap.Int("bytes", buf.Len()))

	return &returns.ComposedDocument{
		Bytes:            buf.Bytes(),
		PageCount:        instructionPages + 1,
		InstructionPages: instructionPages,
		Placement:        placement,
	}, nil
}

// InspectDocument returns the media box size of every page
func InspectDocument(data []byte) (pages []PageSize, err error) {
	if !looksLikePDF(data) {
		return nil, ErrNotPDF
	}
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse PDF: %v", r)
		}
	}()

	sink := fpdf.NewCustom(&fpdf.InitType{UnitStr: "pt", Size: fpdf.SizeType{Wd: PageWidth, Ht: PageHeight}})
	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(data))
	imp.ImportPageFromStream(sink, &rs, 1, pageBox)

	sizes := imp.GetPageSizes()
	pages = make([]PageSize, 0, len(sizes))
	for n := 1; n <= len(sizes); n++ {
		pages = append(pages, PageSize{Width: sizes[n][pageBox]["w"], Height: sizes[n][pageBox]["h"]})
	}
	if len(pages) == 0 {
		return nil, errors.New("document has no pages")
	}
	return pages, nil
}

func looksLikePDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-"))
}

var _ returns.DocumentComposer = (*Composer)(nil)
