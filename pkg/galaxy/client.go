package galaxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client provides methods to interact with a Galaxy instance's REST API.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *slog.Logger
}

// NewClient creates a new Galaxy API client with the given configuration.
func NewClient(config Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		// Request deadlines come from contexts so that long-running
		// dataset downloads are not cut off by a client-wide timeout.
		httpClient: &http.Client{},
		config:     config,
		logger:     logger.With("component", "galaxy-client"),
	}
}

// BaseURL returns the configured instance URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// apiURL builds the absolute URL for an API path like "histories" or
// "workflows/abc/invocations".
func (c *Client) apiURL(path string, query url.Values) string {
	u := strings.TrimSuffix(c.config.BaseURL, "/") + "/api/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs a JSON API request, retrying transient failures, and decodes
// the response into out when non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	var payload []byte
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshaling request: %w", op, err)
		}
		payload = data
		contentType = "application/json"
	}
	return c.doRaw(ctx, op, method, path, query, contentType, payload, out)
}

// doRaw is the retry loop shared by JSON and multipart requests. Transport
// errors and 5xx/429 responses are retried up to MaxRetries with a fixed
// delay; application errors surface immediately as *APIError.
func (c *Client) doRaw(ctx context.Context, op, method, path string, query url.Values, contentType string, payload []byte, out any) error {
	logger := c.logger.With("op", op, "method", method, "path", path)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying after delay", "attempt", attempt, "delay", c.config.RetryDelay)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", op, ctx.Err())
			case <-time.After(c.config.RetryDelay):
			}
		}

		err := c.once(ctx, op, method, path, query, contentType, payload, out)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		logger.Debug("request failed, will retry", "error", err, "attempt", attempt)
		lastErr = err
	}

	return fmt.Errorf("%s: retries exhausted: %w", op, lastErr)
}

// once performs a single HTTP request against the API.
func (c *Client) once(ctx context.Context, op, method, path string, query url.Values, contentType string, payload []byte, out any) error {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL(path, query), bodyReader)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.authorize(req)

	requestID := uuid.NewString()
	c.logger.Debug("sending request", "op", op, "method", method, "url", req.URL.String(), "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", op, err)
	}

	c.logger.Debug("received response", "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiErrorFromResponse(op, resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%s: unmarshaling response: %w", op, err)
		}
	}
	return nil
}

// authorize attaches the API key to a request.
func (c *Client) authorize(req *http.Request) {
	if c.config.APIKey != "" {
		req.Header.Set("x-api-key", c.config.APIKey)
	}
}

// apiErrorFromResponse builds an *APIError, extracting Galaxy's err_msg
// field when the body carries one.
func apiErrorFromResponse(op string, status int, body []byte) *APIError {
	var galaxyErr struct {
		ErrMsg string `json:"err_msg"`
	}
	_ = json.Unmarshal(body, &galaxyErr)
	return &APIError{Op: op, StatusCode: status, ErrMsg: galaxyErr.ErrMsg}
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.do(ctx, op, http.MethodDelete, path, query, nil, out)
}
