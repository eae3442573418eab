package galaxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ShowDataset retrieves the full view of a dataset.
func (c *Client) ShowDataset(ctx context.Context, datasetID string) (*Dataset, error) {
	var dataset Dataset
	if err := c.get(ctx, "ShowDataset", "datasets/"+datasetID, nil, &dataset); err != nil {
		return nil, err
	}
	return &dataset, nil
}

// DownloadDataset streams a dataset's content to w, returning the number of
// bytes written. Downloads are bounded only by ctx, not the request timeout.
// Establishing the transfer is retried like any other request; once bytes
// have reached w the stream cannot be restarted and a failure is final.
func (c *Client) DownloadDataset(ctx context.Context, datasetID string, w io.Writer) (int64, error) {
	const op = "DownloadDataset"
	logger := c.logger.With("op", op, "dataset_id", datasetID)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying after delay", "attempt", attempt, "delay", c.config.RetryDelay)
			select {
			case <-ctx.Done():
				return 0, fmt.Errorf("%s: %w", op, ctx.Err())
			case <-time.After(c.config.RetryDelay):
			}
		}

		resp, err := c.openDisplay(ctx, op, datasetID)
		if err != nil {
			if !isRetryable(err) {
				return 0, err
			}
			logger.Debug("request failed, will retry", "error", err, "attempt", attempt)
			lastErr = err
			continue
		}

		n, err := io.Copy(w, resp.Body)
		resp.Body.Close()
		if err != nil {
			return n, fmt.Errorf("%s: streaming content: %w", op, err)
		}
		return n, nil
	}

	return 0, fmt.Errorf("%s: retries exhausted: %w", op, lastErr)
}

// openDisplay starts a dataset content transfer, returning the response with
// its body still open. The caller owns the body.
func (c *Client) openDisplay(ctx context.Context, op, datasetID string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL("datasets/"+datasetID+"/display", nil), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, apiErrorFromResponse(op, resp.StatusCode, body)
	}
	return resp, nil
}

// UploadFile pushes a local file into a history through the upload tool,
// assigning it the given name and, when fileType is non-empty, datatype.
func (c *Client) UploadFile(ctx context.Context, historyID, path, name, fileType string) (*Dataset, error) {
	const op = "UploadFile"

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: reading file: %w", op, err)
	}

	if fileType == "" {
		fileType = "auto"
	}
	inputs := map[string]any{
		"files_0|NAME": name,
		"files_0|type": "upload_dataset",
		"file_type":    fileType,
		"dbkey":        "?",
	}

	body, contentType, err := uploadForm(historyID, inputs, filepath.Base(path), content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result struct {
		Outputs []Dataset `json:"outputs"`
	}
	if err := c.doRaw(ctx, op, http.MethodPost, "tools", nil, contentType, body, &result); err != nil {
		return nil, err
	}

	if len(result.Outputs) == 0 {
		return nil, &APIError{Op: op, StatusCode: http.StatusOK, ErrMsg: "no dataset returned from upload"}
	}
	return &result.Outputs[0], nil
}

// uploadForm encodes a multipart form invoking Galaxy's upload tool.
func uploadForm(historyID string, inputs map[string]any, filename string, content []byte) ([]byte, string, error) {
	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return nil, "", fmt.Errorf("marshaling tool inputs: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"tool_id":    "upload1",
		"history_id": historyID,
		"inputs":     string(inputsJSON),
	}
	for field, value := range fields {
		if err := mw.WriteField(field, value); err != nil {
			return nil, "", fmt.Errorf("encoding form: %w", err)
		}
	}

	part, err := mw.CreateFormFile("files_0|file_data", filename)
	if err != nil {
		return nil, "", fmt.Errorf("encoding form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("encoding form file: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("finalizing form: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
