// Package backend talks to the commerce backend that owns server carts,
// orders and payments.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client calls the commerce backend on behalf of a signed in customer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend HTTP client.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

type envelope struct {
	IsSuccessful    bool            `json:"isSuccessful"`
	ResponseContent json.RawMessage `json:"responseContent"`
	ErrorMessage    string          `json:"errorMessage"`
	ErrorDetails    *struct {
		Code string `json:"code"`
	} `json:"errorDetails"`
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, token, out)
}

func (c *Client) do(req *http.Request, token string, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 300 {
				return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
			}
			return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
		}
	} else if resp.StatusCode < 300 {
		env.IsSuccessful = true
	}

	if resp.StatusCode >= 300 || !env.IsSuccessful {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.ErrorMessage}
		if env.ErrorDetails != nil {
			apiErr.Code = env.ErrorDetails.Code
		}
		return apiErr
	}

	if out == nil || len(env.ResponseContent) == 0 || string(env.ResponseContent) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.ResponseContent, out); err != nil {
		return fmt.Errorf("decode %s %s content: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
