package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://www.omdbapi.com/"

// omdbMissing is the placeholder OMDb returns for fields it has no value for.
const omdbMissing = "N/A"

type Metadata struct {
	Poster      string
	Description string
}

type omdbResponse struct {
	Response string `json:"Response"`
	Poster   string `json:"Poster"`
	Plot     string `json:"Plot"`
	Error    string `json:"Error"`
}

// Client looks up poster and plot for a title on OMDb. Lookups are best
// effort: every failure yields empty Metadata and a warning log.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, userAgent string, timeout time.Duration, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		userAgent:  userAgent,
		timeout:    timeout,
		httpClient: httpClient,
	}
}

func (c *Client) Enrich(ctx context.Context, title string) Metadata {
	if c.apiKey == "" || strings.TrimSpace(title) == "" {
		return Metadata{}
	}

	result, err := c.lookup(ctx, title)
	if err != nil {
		slog.Warn("Metadata lookup failed", "title", title, "error", err)
		return Metadata{}
	}

	if result.Response != "True" {
		slog.Warn("Metadata not found", "title", title, "reason", result.Error)
		return Metadata{}
	}

	return Metadata{
		Poster:      normalize(result.Poster),
		Description: normalize(result.Plot),
	}
}

func (c *Client) lookup(ctx context.Context, title string) (*omdbResponse, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}
	query := endpoint.Query()
	query.Set("apikey", c.apiKey)
	query.Set("t", title)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result omdbResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

func normalize(value string) string {
	value = strings.TrimSpace(value)
	if value == omdbMissing {
		return ""
	}
	return value
}
