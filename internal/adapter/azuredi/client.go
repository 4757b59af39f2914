// Package azuredi is a minimal REST client for Azure Document
// Intelligence. It submits a PDF to the prebuilt-layout model with
// markdown output and polls the operation until it completes.
package azuredi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	apiVersion  = "2024-11-30"
	layoutModel = "prebuilt-layout"
)

type Client struct {
	endpoint     string
	key          string
	client       *http.Client
	pollInterval time.Duration
}

func NewClient(endpoint, key string) *Client {
	return &Client{
		endpoint:     strings.TrimRight(endpoint, "/"),
		key:          key,
		client:       &http.Client{Timeout: 60 * time.Second},
		pollInterval: 2 * time.Second,
	}
}

// SetPollInterval shortens the polling delay in tests.
func (c *Client) SetPollInterval(d time.Duration) {
	c.pollInterval = d
}

func (c *Client) Configured() bool {
	return c != nil && c.endpoint != "" && c.key != ""
}

// Analyze submits the document and blocks until the analysis finishes,
// returning the extracted content as markdown.
func (c *Client) Analyze(ctx context.Context, data []byte) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("document intelligence is not configured")
	}

	opURL, err := c.submit(ctx, data)
	if err != nil {
		return "", err
	}
	return c.poll(ctx, opURL)
}

func (c *Client) submit(ctx context.Context, data []byte) (string, error) {
	url := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s&outputContentFormat=markdown",
		c.endpoint, layoutModel, apiVersion)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("document intelligence error: %s", apiErr.Error.Message)
		}
		return "", fmt.Errorf("document intelligence error: status %d", resp.StatusCode)
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("document intelligence: missing Operation-Location header")
	}
	return opURL, nil
}

func (c *Client) poll(ctx context.Context, opURL string) (string, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, "GET", opURL, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

		resp, err := c.client.Do(req)
		if err != nil {
			return "", err
		}

		var result struct {
			Status string `json:"status"`
			Error  struct {
				Message string `json:"message"`
			} `json:"error"`
			AnalyzeResult struct {
				Content string `json:"content"`
			} `json:"analyzeResult"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if decodeErr != nil {
			return "", decodeErr
		}

		switch result.Status {
		case "succeeded":
			return result.AnalyzeResult.Content, nil
		case "failed":
			return "", fmt.Errorf("document analysis failed: %s", result.Error.Message)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}
