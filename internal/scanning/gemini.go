package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// Gemini implements the FieldExtractor interface using Google Gemini
type Gemini struct {
	client    *genai.Client
	model     geminiGenerator
	modelName string
}

// geminiGenerator is the part of *genai.GenerativeModel used for extraction
type geminiGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// NewGemini creates a new Gemini FieldExtractor instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(DefaultTemperature)

	return &Gemini{
		client:    client,
		model:     model,
		modelName: modelName,
	}, nil
}

// ExtractFields asks the model for the shipment fields of text
func (g *Gemini) ExtractFields(ctx context.Context, text string) (*FieldData, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := slog.With("req_id", rid, "provider", "gemini", "model", g.modelName)
	log.Debug("llm.extract.start", "text_len", len(text))

	resp, err := g.model.GenerateContent(ctx, genai.Text(BuildFieldPrompt(text)))
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
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

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
