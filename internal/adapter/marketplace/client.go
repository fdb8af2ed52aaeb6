// Package marketplace is the HTTP client for the seller marketplace API.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rl1809/stock-sync/internal/port"
)

const DefaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of a failed response is kept in the error text.
const maxErrorBody = 512

// Client talks to the marketplace over JSON/HTTP with a bearer token.
//
//	GET /items        -> port.ListItemsResponse
//	GET /items/{id}   -> port.ItemDetailsResponse
//	PUT /items/{id}   <- port.ItemUpdate, -> port.UpdateItemResponse
//
// Transport failures are returned as errors. A non-2xx status becomes a
// response with Success false so callers handle both the same way.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ port.MarketplaceClient = (*Client)(nil)

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListMyItems(ctx context.Context) (port.ListItemsResponse, error) {
	var resp port.ListItemsResponse
	status, err := c.do(ctx, http.MethodGet, "/items", nil, &resp)
	if err != nil {
		return port.ListItemsResponse{}, err
	}
	if status != "" {
		return port.ListItemsResponse{Success: false, Error: status}, nil
	}
	return resp, nil
}

func (c *Client) GetItemDetails(ctx context.Context, id string) (port.ItemDetailsResponse, error) {
	var resp port.ItemDetailsResponse
	status, err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(id), nil, &resp)
	if err != nil {
		return port.ItemDetailsResponse{}, err
	}
	if status != "" {
		return port.ItemDetailsResponse{Success: false, Error: status}, nil
	}
	return resp, nil
}

func (c *Client) UpdateItem(ctx context.Context, remoteID string, update port.ItemUpdate) (port.UpdateItemResponse, error) {
	var resp port.UpdateItemResponse
	status, err := c.do(ctx, http.MethodPut, "/items/"+url.PathEscape(remoteID), update, &resp)
	if err != nil {
		return port.UpdateItemResponse{}, err
	}
	if status != "" {
		return port.UpdateItemResponse{Success: false, Error: status}, nil
	}
	return resp, nil
}

// do sends one request and decodes a 2xx body into out. For any other status
// it returns a short description of the failure instead.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (string, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return "", fmt.Errorf("create request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
			return fmt.Sprintf("%d: %s", resp.StatusCode, envelope.Error), nil
		}
		return fmt.Sprintf("%d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return "", nil
}
