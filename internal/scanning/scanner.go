package scanning

import "context"

// FieldData contains the fields a language model extracted from document text.
// A nil field means the model reply did not contain that key.
type FieldData struct {
	InvoiceNumber   *string `json:"invoice_number,omitempty"`
	ContainerNumber *string `json:"container_number,omitempty"`
	ForwarderName   *string `json:"forwarder_name,omitempty"`
}

// Converter rasterizes the first page of a PDF to an image file on disk
type Converter interface {
	// Convert writes the image and returns its path
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// TextExtractor runs OCR over an image file
type TextExtractor interface {
	// ExtractText returns the recognized text, or "" when the image has none
	ExtractText(ctx context.Context, imagePath string) (string, error)
	// Close releases the underlying client
	Close() error
}

// FieldExtractor asks a language model for the shipment fields in a text
type FieldExtractor interface {
	// ExtractFields sends the field prompt for text and parses the reply
	ExtractFields(ctx context.Context, text string) (*FieldData, error)
	// Close releases the underlying client
	Close() error
}
