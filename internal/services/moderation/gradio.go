package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// GradioScorer calls a hosted toxicity space that answers with the
// per-category shape wrapped in a {"data":[...]} envelope.
type GradioScorer struct {
	httpClient *http.Client
	spaceURL   string
}

func NewGradioScorer(httpClient *http.Client, spaceURL string) (*GradioScorer, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client is nil")
	}
	if strings.TrimSpace(spaceURL) == "" {
		return nil, fmt.Errorf("space url is empty")
	}

	return &GradioScorer{
		httpClient: httpClient,
		spaceURL:   strings.TrimRight(strings.TrimSpace(spaceURL), "/"),
	}, nil
}

// ScoreText returns the provider's response body untouched next to its
// parsed form, so pass-through endpoints can relay exactly what the
// space said.
func (c *GradioScorer) ScoreText(ctx context.Context, text string) (ProviderResponse, json.RawMessage, error) {
	payload, err := json.Marshal(map[string]interface{}{"data": []string{text}})
	if err != nil {
		return nil, nil, fmt.Errorf("encode predict payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.spaceURL+"/run/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("call toxicity space: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return nil, nil, fmt.Errorf("read toxicity response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected toxicity status: %d", resp.StatusCode)
	}

	parsed, err := ParseToxicityScores(body.Bytes())
	if err != nil {
		return nil, nil, err
	}

	return parsed, json.RawMessage(body.Bytes()), nil
}
