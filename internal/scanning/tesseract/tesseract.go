// Package tesseract provides a local OCR engine backed by libtesseract (cgo).
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguages covers the Russian and Latin text found on railway waybills
var DefaultLanguages = []string{"rus", "eng"}

// Engine implements scanning.TextExtractor using gosseract
type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// New creates a Tesseract engine for the given language codes
func New(languages ...string) *Engine {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &Engine{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

// ExtractText recognizes the text of an image file with a fresh client per image
func (e *Engine) ExtractText(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Close is a no-op; clients are closed after each image
func (e *Engine) Close() error {
	return nil
}
