package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const ollamaSystemPrompt = "You are an expert at reading railway shipping documents and extracting exact values from their text."

// Ollama implements the FieldExtractor interface using Ollama
type Ollama struct {
	baseURL     string
	model       string
	temperature float32
	client      *http.Client
}

// NewOllama creates a new Ollama FieldExtractor instance.
// Text-only models with good Cyrillic coverage work best here, e.g. qwen2.5 or llama3.1.
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "qwen2.5"
	}

	return &Ollama{
		baseURL:     baseURL,
		model:       modelName,
		temperature: DefaultTemperature,
		client: &http.Client{
			Timeout: 120 * time.Second, // local models can be slow on first load
		},
	}, nil
}

// ollamaChatRequest represents the request body for Ollama's chat API
type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
}

// ollamaChatResponse represents the response from Ollama's chat API
type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// ExtractFields asks the model for the shipment fields of text
func (o *Ollama) ExtractFields(ctx context.Context, text string) (*FieldData, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := slog.With("req_id", rid, "provider", "ollama", "model", o.model)
	log.Debug("llm.extract.start", "text_len", len(text))

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: ollamaSystemPrompt,
			},
			{
				Role:    "user",
				Content: BuildFieldPrompt(text),
			},
		},
		Options: ollamaOptions{Temperature: o.temperature},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", strings.TrimRight(o.baseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	data, err := ParseFieldJSON(chatResp.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing field data: %w", err)
	}

	log.Debug("llm.extract.ok", "elapsed_ms", time.Since(start).Milliseconds())
	return data, nil
}

// Close closes the Ollama client (no-op for HTTP client)
func (o *Ollama) Close() error {
	return nil
}
