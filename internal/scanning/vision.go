package scanning

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/vision/v1"
)

const textDetectionFeature = "TEXT_DETECTION"

// Vision implements the TextExtractor interface using Google Cloud Vision
type Vision struct {
	service *vision.Service
}

// NewVision creates a new Vision TextExtractor. Callers normally pass
// option.WithCredentialsFile pointing at a service account key.
func NewVision(ctx context.Context, opts ...option.ClientOption) (*Vision, error) {
	service, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vision client: %w", err)
	}
	return &Vision{service: service}, nil
}

// ExtractText runs text detection on an image file
func (v *Vision) ExtractText(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(data)},
				Features: []*vision.Feature{{Type: textDetectionFeature}},
			},
		},
	}

	start := time.Now()
	resp, err := v.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calling vision API: %w", err)
	}
	slog.Debug("Vision annotate done", "file", imagePath, "elapsed_ms", time.Since(start).Milliseconds())

	if len(resp.Responses) == 0 {
		return "", nil
	}

	result := resp.Responses[0]
	if result.Error != nil && result.Error.Code != 0 {
		return "", fmt.Errorf("vision API error (code %d): %s", result.Error.Code, result.Error.Message)
	}
	if result.FullTextAnnotation == nil {
		return "", nil
	}

	return result.FullTextAnnotation.Text, nil
}

// Close is a no-op; the REST client holds no open connections of its own
func (v *Vision) Close() error {
	return nil
}
