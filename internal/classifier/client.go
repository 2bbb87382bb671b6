// Package classifier calls the external image classification service.
package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/your-org/tcmreview/internal/apperr"
	"github.com/your-org/tcmreview/internal/observability"
)

type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

type predictRequest struct {
	BS64 string `json:"bs64"`
}

type predictResponse struct {
	Result *string `json:"result"`
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Classify sends the image and returns the predicted label. Every failure,
// including timeout, is an upstream error.
func (c *Client) Classify(ctx context.Context, image []byte) (string, error) {
	const op = "classifier.Classify"
	start := time.Now()

	label, err := c.classify(ctx, image)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.UpstreamDuration.WithLabelValues("classifier", outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", apperr.E(apperr.KindUpstream, op, err)
	}
	return label, nil
}

func (c *Client) classify(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(predictRequest{BS64: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("classifier timed out after %s", c.timeout)
		}
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var out predictResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode response: %w, body: %s", err, string(respBody))
	}
	if out.Result == nil {
		return "", fmt.Errorf("missing 'result' in response, body: %s", string(respBody))
	}
	return *out.Result, nil
}
