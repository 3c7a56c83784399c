// Package classifier provides the category prediction collaborator. The
// trained model lives behind an HTTP boundary; callers treat the returned
// label as untrusted and validate it against the category enum themselves,
// since retraining may change the label set between calls.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/config"
)

// Classifier predicts a category label for free-text issue descriptions.
type Classifier interface {
	Classify(ctx context.Context, description string) (string, error)
}

// Func adapts a plain function to the Classifier interface.
type Func func(ctx context.Context, description string) (string, error)

// Classify implements Classifier.
func (f Func) Classify(ctx context.Context, description string) (string, error) {
	return f(ctx, description)
}

// New selects an implementation from configuration: the HTTP-backed model
// service when a URL is configured, otherwise the keyword fallback.
func New(cfg config.ClassifierConfig, logger *zap.Logger) Classifier {
	if cfg.URL != "" {
		logger.Info("using http classifier", zap.String("url", cfg.URL))
		return NewHTTPClassifier(cfg)
	}
	logger.Info("CLASSIFIER_URL not set; using keyword classifier")
	return NewKeywordClassifier()
}

// HTTPClassifier calls the model-serving endpoint.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier constructs the client.
func NewHTTPClassifier(cfg config.ClassifierConfig) *HTTPClassifier {
	return &HTTPClassifier{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout()},
	}
}

type predictRequest struct {
	Description string `json:"description"`
}

type predictResponse struct {
	PredictedCategory string `json:"predicted_category"`
	Error             string `json:"error,omitempty"`
}

// Classify posts the description and returns the predicted label.
func (h *HTTPClassifier) Classify(ctx context.Context, description string) (string, error) {
	body, err := json.Marshal(predictRequest{Description: description})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode classifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, parsed.Error)
	}
	return parsed.PredictedCategory, nil
}
