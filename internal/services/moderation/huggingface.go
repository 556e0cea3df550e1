package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HuggingFaceClassifier calls a hosted text-classification model that
// answers with the single-label shape.
type HuggingFaceClassifier struct {
	httpClient *http.Client
	modelURL   string
	apiKey     string
}

func NewHuggingFaceClassifier(httpClient *http.Client, modelURL, apiKey string) (*HuggingFaceClassifier, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client is nil")
	}
	if strings.TrimSpace(modelURL) == "" {
		return nil, fmt.Errorf("model url is empty")
	}

	return &HuggingFaceClassifier{
		httpClient: httpClient,
		modelURL:   strings.TrimSpace(modelURL),
		apiKey:     strings.TrimSpace(apiKey),
	}, nil
}

func (c *HuggingFaceClassifier) ClassifyText(ctx context.Context, text string) (ProviderResponse, json.RawMessage, error) {
	payload, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return nil, nil, fmt.Errorf("encode inference payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("create inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("call inference api: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read inference response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected inference status: %d", resp.StatusCode)
	}

	parsed, err := ParseLabelScore(body)
	if err != nil {
		return nil, nil, err
	}

	return parsed, json.RawMessage(body), nil
}
