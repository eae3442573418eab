package galaxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(url string) *Client {
	config := DefaultConfig().
		WithBaseURL(url).
		WithAPIKey("test-key").
		WithRetries(2, time.Millisecond)
	return NewClient(config, nil)
}

func TestClient_SendsAPIKey(t *testing.T) {
	var gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		json.NewEncoder(w).Encode([]History{})
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	if _, err := c.ListHistories(context.Background()); err != nil {
		t.Fatalf("ListHistories: %v", err)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q, want %q", gotKey, "test-key")
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"err_msg": "unavailable"})
			return
		}
		json.NewEncoder(w).Encode([]History{{ID: "h1", Name: "test"}})
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	histories, err := c.ListHistories(context.Background())
	if err != nil {
		t.Fatalf("ListHistories after retries: %v", err)
	}
	if len(histories) != 1 || histories[0].ID != "h1" {
		t.Errorf("unexpected histories: %+v", histories)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestClient_RetryBudgetExhausted(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"err_msg": "unavailable"})
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	_, err := c.ListHistories(context.Background())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// 1 initial attempt + 2 retries.
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"err_msg": "malformed request"})
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	_, err := c.ListHistories(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.ErrMsg != "malformed request" {
		t.Errorf("ErrMsg = %q, want %q", apiErr.ErrMsg, "malformed request")
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestClient_IsInactiveInvocation(t *testing.T) {
	err := &APIError{
		Op:         "cancel invocation",
		StatusCode: http.StatusBadRequest,
		ErrMsg:     "Cannot cancel an inactive workflow invocation.",
	}
	if !IsInactiveInvocation(err) {
		t.Error("expected inactive invocation error to be recognized")
	}
	if IsInactiveInvocation(&APIError{StatusCode: http.StatusBadRequest, ErrMsg: "other"}) {
		t.Error("unrelated 400 should not be treated as inactive invocation")
	}
}

func TestDownloadDataset(t *testing.T) {
	content := "##gff-version 3\nchr1\t.\tgenomic_island\t1\t100\n"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/datasets/d1/display" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(content))
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	var buf bytes.Buffer
	n, err := c.DownloadDataset(context.Background(), "d1", &buf)
	if err != nil {
		t.Fatalf("DownloadDataset: %v", err)
	}
	if buf.String() != content {
		t.Errorf("content = %q, want %q", buf.String(), content)
	}
	if n != int64(len(content)) {
		t.Errorf("n = %d, want %d", n, len(content))
	}
}

func TestDownloadDataset_RetriesConnection(t *testing.T) {
	content := "##gff-version 3\n"
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"err_msg": "unavailable"})
			return
		}
		w.Write([]byte(content))
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	var buf bytes.Buffer
	n, err := c.DownloadDataset(context.Background(), "d1", &buf)
	if err != nil {
		t.Fatalf("DownloadDataset after retries: %v", err)
	}
	if buf.String() != content {
		t.Errorf("content = %q, want %q", buf.String(), content)
	}
	if n != int64(len(content)) {
		t.Errorf("n = %d, want %d", n, len(content))
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestDownloadDataset_NoRetryOnMissingDataset(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"err_msg": "dataset not found"})
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	var buf bytes.Buffer
	_, err := c.DownloadDataset(context.Background(), "missing", &buf)
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestUploadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genome.gbk")
	if err := os.WriteFile(path, []byte("LOCUS TEST 100 bp"), 0o644); err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("tool_id"); got != "upload1" {
			t.Errorf("tool_id = %q, want upload1", got)
		}
		if got := r.FormValue("history_id"); got != "h1" {
			t.Errorf("history_id = %q, want h1", got)
		}

		var inputs map[string]any
		if err := json.Unmarshal([]byte(r.FormValue("inputs")), &inputs); err != nil {
			t.Fatalf("parse inputs: %v", err)
		}
		if got := inputs["files_0|NAME"]; got != "my-genome" {
			t.Errorf("files_0|NAME = %v, want my-genome", got)
		}
		if got := inputs["file_type"]; got != "genbank" {
			t.Errorf("file_type = %v, want genbank", got)
		}

		if _, _, err := r.FormFile("files_0|file_data"); err != nil {
			t.Errorf("missing file part: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"outputs": []map[string]any{{"id": "d1", "name": "my-genome", "state": "queued"}},
		})
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	dataset, err := c.UploadFile(context.Background(), "h1", path, "my-genome", "genbank")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if dataset.ID != "d1" {
		t.Errorf("dataset.ID = %q, want d1", dataset.ID)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"err_msg": "unavailable"})
	}))
	defer ts.Close()

	config := DefaultConfig().
		WithBaseURL(ts.URL).
		WithAPIKey("test-key").
		WithRetries(10, time.Second)
	c := NewClient(config, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.ListHistories(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("retry loop ignored context cancellation, took %s", elapsed)
	}
}

func TestConfig_WithCopies(t *testing.T) {
	base := DefaultConfig()
	derived := base.WithBaseURL("http://example.test").WithAPIKey("k")

	if base.BaseURL != DefaultBaseURL {
		t.Errorf("base config mutated: BaseURL = %q", base.BaseURL)
	}
	if base.APIKey != "" {
		t.Errorf("base config mutated: APIKey = %q", base.APIKey)
	}
	if derived.BaseURL != "http://example.test" || derived.APIKey != "k" {
		t.Errorf("derived config wrong: %+v", derived)
	}
}
