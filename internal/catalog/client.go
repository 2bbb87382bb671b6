// Package catalog fetches the medicine catalog and narrows it to the names
// offered as upload labels.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/your-org/tcmreview/internal/apperr"
	"github.com/your-org/tcmreview/internal/observability"
)

type Client struct {
	url        string
	timeout    time.Duration
	category   string
	marker     string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration, category, marker string) *Client {
	return &Client{
		url:        url,
		timeout:    timeout,
		category:   category,
		marker:     marker,
		httpClient: &http.Client{},
	}
}

// Names returns the filtered, de-duplicated candidate label list.
func (c *Client) Names(ctx context.Context) ([]string, error) {
	const op = "catalog.Names"
	start := time.Now()

	items, err := c.fetch(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.UpstreamDuration.WithLabelValues("catalog", outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, apperr.E(apperr.KindUpstream, op, err)
	}
	return FilterNames(items, c.category, c.marker), nil
}

func (c *Client) fetch(ctx context.Context) ([]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("catalog timed out after %s", c.timeout)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response is not a dictionary: %s", string(body))
	}
	data, ok := obj["Data"]
	if !ok {
		return nil, fmt.Errorf("missing 'Data' key in response: %s", string(body))
	}
	list, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected response format in 'Data': %v", data)
	}
	return list, nil
}

// FilterNames keeps catalog entries whose TORW equals category, whose NAME
// contains marker and which carry a SKDIACODE, formatted "NAME(SKDIACODE)".
// Duplicates are dropped, first occurrence wins.
func FilterNames(items []any, category, marker string) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if torw, _ := item["TORW"].(string); torw != category {
			continue
		}
		name, _ := item["NAME"].(string)
		if !strings.Contains(name, marker) {
			continue
		}
		code, ok := item["SKDIACODE"]
		if !ok {
			continue
		}
		entry := fmt.Sprintf("%s(%v)", name, code)
		if seen[entry] {
			continue
		}
		seen[entry] = true
		names = append(names, entry)
	}
	return names
}
