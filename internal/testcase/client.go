// Package testcase fetches the ordered list of test cases for a problem
// from the external content service, trimmed from the ancestor's
// ContentServiceClient (which also fetched problem metadata) down to
// the one call this worker needs.
package testcase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"judgeworker/internal/model"
)

// Client fetches test cases over HTTP. The URL is built by substituting
// {problemId} into a configured format string.
type Client struct {
	urlFormat  string
	httpClient *http.Client
}

// New builds a Client. urlFormat must contain the literal "{problemId}"
// placeholder, e.g. "http://content:8080/problems/{problemId}/testcases".
func New(urlFormat string) *Client {
	return &Client{
		urlFormat: urlFormat,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type testCasesResponse struct {
	TestCases []model.TestCase `json:"testCases"`
}

// Fetch performs a single GET for problemId's test cases. Any transport
// error or non-2xx response is returned as an error; there is no retry
// at this layer.
func (c *Client) Fetch(ctx context.Context, problemID string) ([]model.TestCase, error) {
	url := strings.ReplaceAll(c.urlFormat, "{problemId}", problemID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build test-case request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch test cases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("test-case endpoint returned status %d", resp.StatusCode)
	}

	var body testCasesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode test-case response: %w", err)
	}

	return body.TestCases, nil
}
