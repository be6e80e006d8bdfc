package shipment

import "github.com/zombor/shipdocs/internal/scanning"

// FieldRecord is the extraction result for one source document.
// A key the model left out and a key it sent as null are treated the same:
// the field is nil and omitted from the JSON output.
type FieldRecord struct {
	InvoiceNumber   *string `json:"invoice_number,omitempty"`
	ContainerNumber *string `json:"container_number,omitempty"`
	ForwarderName   *string `json:"forwarder_name,omitempty"`
	SourceFile      string  `json:"source_file"`
}

// NewFieldRecord builds a record from extracted fields and the source file base name
func NewFieldRecord(data *scanning.FieldData, sourceFile string) *FieldRecord {
	return &FieldRecord{
		InvoiceNumber:   data.InvoiceNumber,
		ContainerNumber: data.ContainerNumber,
		ForwarderName:   data.ForwarderName,
		SourceFile:      sourceFile,
	}
}
