package printing

import (
	"context"
	"fmt"
	"os"
)

// InstructionsSource yields the fixed instructions document placed before the label
type InstructionsSource interface {
	Load(ctx context.Context) ([]byte, error)
	Describe() string
}

// ObjectReader reads one object from storage
type ObjectReader interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// FileInstructions reads a PDF from the local filesystem
type FileInstructions struct {
	Path string
}

// Load implements InstructionsSource
func (s FileInstructions) Load(context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read instructions %s: %w", s.Path, err)
	}
	return data, nil
}

// Describe implements InstructionsSource
func (s FileInstructions) Describe() string { return "file:" + s.Path }

// ObjectInstructions reads a PDF from object storage
type ObjectInstructions struct {
	Store ObjectReader
	Key   string
}

// Load implements InstructionsSource
func (s ObjectInstructions) Load(ctx context.Context) ([]byte, error) {
	data, err := s.Store.Download(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("download instructions %s: %w", s.Key, err)
	}
	return data, nil
}

// Describe implements InstructionsSource
func (s ObjectInstructions) Describe() string { return "object:" + s.Key }

// HTMLInstructions renders an HTML template to PDF
type HTMLInstructions struct {
	Path     string
	Title    string
	MarginIn float64
	Renderer HTMLRenderer
}

// Load implements InstructionsSource
func (s HTMLInstructions) Load(ctx context.Context) ([]byte, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read instructions template %s: %w", s.Path, err)
	}
	result, err := s.Renderer.Render(ctx, &RenderRequest{HTML: string(raw), Title: s.Title, MarginIn: s.MarginIn})
	if err != nil {
		return nil, fmt.Errorf("render instructions template %s: %w", s.Path, err)
	}
	return result.PDFData, nil
}

// Describe implements InstructionsSource
func (s HTMLInstructions) Describe() string { return "html:" + s.Path }

// LoadInstructions reads the document once and checks that it parses.
// A nil source means the packet carries the label page only.
func LoadInstructions(ctx context.Context, src InstructionsSource) ([]byte, int, error) {
	if src == nil {
		return nil, 0, nil
	}
	data, err := src.Load(ctx)
	if err != nil {
		return nil, 0, err
	}
	pages, err := InspectDocument(data)
	if err != nil {
		return nil, 0, fmt.Errorf("instructions %s: %w", src.Describe(), err)
	}
	return data, len(pages), nil
}
