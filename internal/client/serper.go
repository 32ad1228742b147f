package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/finanalyzer/api/internal/config"
)

const serperEndpoint = "https://google.serper.dev/search"

// SerperClient provides web search to the analysis stages via the
// Serper.dev API. Optional: stages skip market context when it is
// not configured.
type SerperClient struct {
	httpClient *http.Client
	apiKey     string
}

type serperRequest struct {
	Query string `json:"q"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func NewSerperClient(cfg *config.SerperConfig) *SerperClient {
	return &SerperClient{
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		apiKey: cfg.APIKey,
	}
}

func (c *SerperClient) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

// Search runs a web search and returns the top results formatted as a
// plain-text digest suitable for prompt context.
func (c *SerperClient) Search(ctx context.Context, query string) (string, error) {
	bodyBytes, err := json.Marshal(serperRequest{Query: query})
	if err != nil {
		return "", eris.Wrap(err, "marshal search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperEndpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "create search request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "send search request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "read search response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.New(fmt.Sprintf("serper API error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	var searchResp serperResponse
	if err := json.Unmarshal(respBody, &searchResp); err != nil {
		return "", eris.Wrap(err, "unmarshal search response")
	}

	var b strings.Builder
	for i, r := range searchResp.Organic {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "- %s (%s)\n  %s\n", r.Title, r.Link, r.Snippet)
	}
	if b.Len() == 0 {
		return "No search results found.", nil
	}
	return b.String(), nil
}
