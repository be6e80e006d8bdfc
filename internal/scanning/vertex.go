package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	vertex "cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// Vertex implements the FieldExtractor interface using Gemini on Vertex AI.
// It authenticates with the same service account as the Vision OCR engine.
type Vertex struct {
	client    *vertex.Client
	model     vertexGenerator
	modelName string
}

// vertexGenerator is the part of *vertex.GenerativeModel used for extraction
type vertexGenerator interface {
	GenerateContent(ctx context.Context, parts ...vertex.Part) (*vertex.GenerateContentResponse, error)
}

// NewVertex creates a new Vertex FieldExtractor instance
func NewVertex(ctx context.Context, projectID, region, modelName string, opts ...option.ClientOption) (*Vertex, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex project and region are required")
	}
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}

	client, err := vertex.NewClient(ctx, projectID, region, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vertex client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.GenerationConfig = vertex.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      vertex.Ptr[float32](DefaultTemperature),
	}

	return &Vertex{
		client:    client,
		model:     model,
		modelName: modelName,
	}, nil
}

// ExtractFields asks the model for the shipment fields of text
func (v *Vertex) ExtractFields(ctx context.Context, text string) (*FieldData, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := slog.With("req_id", rid, "provider", "vertex", "model", v.modelName)
	log.Debug("llm.extract.start", "text_len", len(text))

	resp, err := v.model.GenerateContent(ctx, vertex.Text(BuildFieldPrompt(text)))
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from vertex")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(vertex.Text); ok {
			responseText.WriteString(string(t))
		}
	}

	data, err := ParseFieldJSON(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("parsing field data: %w", err)
	}

	log.Debug("llm.extract.ok", "elapsed_ms", time.Since(start).Milliseconds())
	return data, nil
}

// Close closes the Vertex client
func (v *Vertex) Close() error {
	return v.client.Close()
}
