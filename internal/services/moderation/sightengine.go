package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// SightengineChecker calls the image-analysis API that answers with the
// per-attribute shape. Images are passed by URL, so the stored object
// must be presigned before the check.
type SightengineChecker struct {
	httpClient *http.Client
	endpoint   string
	apiUser    string
	apiSecret  string
	models     string
}

func NewSightengineChecker(httpClient *http.Client, endpoint, apiUser, apiSecret, models string) (*SightengineChecker, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client is nil")
	}
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("endpoint is empty")
	}
	if strings.TrimSpace(apiUser) == "" || strings.TrimSpace(apiSecret) == "" {
		return nil, fmt.Errorf("api credentials are empty")
	}

	return &SightengineChecker{
		httpClient: httpClient,
		endpoint:   strings.TrimSpace(endpoint),
		apiUser:    strings.TrimSpace(apiUser),
		apiSecret:  strings.TrimSpace(apiSecret),
		models:     strings.TrimSpace(models),
	}, nil
}

func (c *SightengineChecker) CheckImageURL(ctx context.Context, imageURL string) (ProviderResponse, json.RawMessage, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, nil, fmt.Errorf("image url is empty")
	}

	query := url.Values{}
	query.Set("url", imageURL)
	query.Set("models", c.models)
	query.Set("api_user", c.apiUser)
	query.Set("api_secret", c.apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create image check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("call image check api: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read image check response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected image check status: %d", resp.StatusCode)
	}

	parsed, err := ParseAttributeReport(body)
	if err != nil {
		return nil, nil, err
	}

	return parsed, json.RawMessage(body), nil
}
