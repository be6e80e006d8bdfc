package scanning

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

const (
	// convertedPageSuffix is appended to the PDF base name for the rendered page
	convertedPageSuffix = "-1"
	convertedExt        = ".jpg"
	jpegQuality         = 90
)

// ConvertedImageName returns the file name Convert writes for a PDF name
func ConvertedImageName(pdfName string) string {
	base := filepath.Base(pdfName)
	return strings.TrimSuffix(base, filepath.Ext(base)) + convertedPageSuffix + convertedExt
}

// FitzConverter renders PDFs with MuPDF and writes the first page next to the source file
type FitzConverter struct{}

// NewFitzConverter creates a new FitzConverter
func NewFitzConverter() *FitzConverter {
	return &FitzConverter{}
}

// Convert renders page 1 of pdfPath to <dir>/<base>-1.jpg
func (c *FitzConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, err := pdfFirstPage(pdfPath)
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(filepath.Dir(pdfPath), ConvertedImageName(pdfPath))
	if err := writeJPEG(outPath, img); err != nil {
		return "", err
	}

	return outPath, nil
}

// pdfFirstPage renders the first page of a PDF file
func pdfFirstPage(pdfPath string) (image.Image, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Render the first page at MuPDF's default 300 DPI
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	return img, nil
}

func writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encoding JPEG: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing image file: %w", err)
	}
	return nil
}
