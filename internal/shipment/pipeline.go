package shipment

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/zombor/shipdocs/internal/scanning"
)

// Pipeline turns one input document into a FieldRecord
type Pipeline struct {
	converter      scanning.Converter
	textExtractor  scanning.TextExtractor
	fieldExtractor scanning.FieldExtractor
	failOnOCRError bool
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithFailOnOCRError makes OCR errors abort the batch instead of skipping the file
func WithFailOnOCRError(fail bool) PipelineOption {
	return func(p *Pipeline) {
		p.failOnOCRError = fail
	}
}

// NewPipeline creates a new Pipeline
func NewPipeline(converter scanning.Converter, textExtractor scanning.TextExtractor, fieldExtractor scanning.FieldExtractor, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		converter:      converter,
		textExtractor:  textExtractor,
		fieldExtractor: fieldExtractor,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// isPDF reports whether path has a PDF extension, ignoring case
func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// ProcessFile converts (for PDFs), OCRs and field-extracts one file.
//
// A nil record with a nil error means the file was skipped. An error is only
// returned when the whole batch should stop: a cancelled context, or an OCR
// failure when the pipeline was built WithFailOnOCRError.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*FieldRecord, error) {
	imagePath := path

	if isPDF(path) {
		converted, err := p.converter.Convert(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Failed to convert PDF", "file", path, "error", err)
			slog.Info("Skipped PDF", "file", path)
			return nil, nil
		}
		slog.Debug("Converted PDF", "file", path, "image", converted)
		imagePath = converted
	}

	text, err := p.textExtractor.ExtractText(ctx, imagePath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if p.failOnOCRError {
			return nil, fmt.Errorf("extracting text from %s: %w", imagePath, err)
		}
		slog.Error("Failed to extract text", "file", imagePath, "error", err)
		return nil, nil
	}
	slog.Info("Extracted text", "file", imagePath, "chars", len(text))

	if text == "" {
		slog.Info("No text found", "file", path)
		return nil, nil
	}

	data, err := p.fieldExtractor.ExtractFields(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// the error carries the provider's response body when there was one
		slog.Error("Failed to extract fields", "file", path, "error", err)
		return nil, nil
	}
	if data == nil {
		slog.Info("No fields extracted", "file", path)
		return nil, nil
	}

	return NewFieldRecord(data, filepath.Base(path)), nil
}
