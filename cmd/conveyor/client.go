package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"conveyor/internal/api"
)

// apiClient speaks the daemon's HTTP API.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(base, token string) *apiClient {
	return &apiClient{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: 60 * time.Second},
	}
}

type sourceParams struct {
	RunID       string
	TaskID      string
	LogicalDate string
	TryNumber   int
}

func (p sourceParams) values() url.Values {
	values := url.Values{}
	values.Set("run_id", p.RunID)
	values.Set("task_id", p.TaskID)
	values.Set("logical_date", p.LogicalDate)
	values.Set("try_number", strconv.Itoa(p.TryNumber))
	return values
}

// Logs fetches one paginated chunk. metadata is the raw cursor from the
// previous response, empty on the first call.
func (c *apiClient) Logs(ctx context.Context, params sourceParams, metadata string) (api.LogsResponse, error) {
	values := params.values()
	if metadata != "" {
		values.Set("metadata", metadata)
	}

	var payload api.LogsResponse
	body, _, err := c.get(ctx, "/api/logs", values)
	if err != nil {
		return payload, err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return payload, fmt.Errorf("decode logs response: %w", err)
	}
	return payload, nil
}

// Download streams the aggregated log. The returned name comes from the
// server's attachment header.
func (c *apiClient) Download(ctx context.Context, params sourceParams) (io.ReadCloser, string, error) {
	values := params.values()
	values.Set("format", "file")

	body, header, err := c.get(ctx, "/api/logs", values)
	if err != nil {
		return nil, "", err
	}

	name := ""
	if _, dispositionParams, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		name = dispositionParams["filename"]
	}
	return body, name, nil
}

func (c *apiClient) Runs(ctx context.Context, limit int) (api.RunsResponse, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}

	var payload api.RunsResponse
	body, _, err := c.get(ctx, "/api/runs", values)
	if err != nil {
		return payload, err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return payload, fmt.Errorf("decode runs response: %w", err)
	}
	return payload, nil
}

func (c *apiClient) Status(ctx context.Context) (api.StatusResponse, error) {
	var payload api.StatusResponse
	body, _, err := c.get(ctx, "/api/status", nil)
	if err != nil {
		return payload, err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return payload, fmt.Errorf("decode status response: %w", err)
	}
	return payload, nil
}

func (c *apiClient) get(ctx context.Context, path string, values url.Values) (io.ReadCloser, http.Header, error) {
	endpoint := c.base + path
	if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("contact daemon at %s: %w", c.base, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var apiErr api.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return nil, nil, fmt.Errorf("daemon responded %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, nil, fmt.Errorf("daemon responded %d", resp.StatusCode)
	}
	return resp.Body, resp.Header, nil
}
