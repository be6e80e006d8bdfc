package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

var fieldKeys = []string{"invoice_number", "container_number", "forwarder_name"}

// ParseFieldJSON parses a model reply into FieldData.
//
// Markdown fences and surrounding prose are dropped. A missing or null key
// leaves the field nil; non-string values keep their JSON text.
func ParseFieldJSON(text string) (*FieldData, error) {
	text = strings.TrimSpace(text)

	// Remove opening markdown code blocks
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	values := make(map[string]*string, len(fieldKeys))
	for _, key := range fieldKeys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		v, err := fieldText(msg)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
		values[key] = v
	}

	return &FieldData{
		InvoiceNumber:   values["invoice_number"],
		ContainerNumber: values["container_number"],
		ForwarderName:   values["forwarder_name"],
	}, nil
}

// fieldText turns one JSON value into text. null yields nil.
func fieldText(msg json.RawMessage) (*string, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return &s, nil
	}

	// numbers, booleans, objects and arrays keep their compact JSON form
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, err
	}
	s := buf.String()
	return &s, nil
}
