package analysis

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brinkmanlab/islandcompare-cli/internal/galaxytest"
	"github.com/brinkmanlab/islandcompare-cli/pkg/galaxy"
)

// newTestRunner starts a fake Galaxy server and returns it with a Runner
// tuned for fast polling.
func newTestRunner(t *testing.T) (*galaxytest.Server, *Runner) {
	t.Helper()

	fake := galaxytest.New()
	fake.APIKey = "test-key"
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(ts.Close)

	config := galaxy.DefaultConfig().
		WithBaseURL(ts.URL).
		WithAPIKey("test-key").
		WithRetries(2, time.Millisecond)
	client := galaxy.NewClient(config, nil)

	r := NewRunner(client, nil)
	r.PollInterval = time.Millisecond
	r.InputPollInterval = time.Millisecond
	r.Quiet = true
	r.Status = io.Discard
	r.Out = io.Discard
	return fake, r
}

func TestFindWorkflow_PrefersCanonicalOwner(t *testing.T) {
	fake, r := newTestRunner(t)
	fake.AddWorkflow("fork", "someoneelse", []string{"islandcompare"}, galaxytest.IslandCompareInputLabels)
	want := fake.AddIslandCompareWorkflow()

	workflow, err := r.FindWorkflow(context.Background())
	if err != nil {
		t.Fatalf("FindWorkflow: %v", err)
	}
	if workflow.ID != want {
		t.Errorf("workflow.ID = %q, want %q", workflow.ID, want)
	}
}

func TestFindWorkflow_FallsBackToTag(t *testing.T) {
	fake, r := newTestRunner(t)
	want := fake.AddWorkflow("fork", "someoneelse", []string{"islandcompare"}, galaxytest.IslandCompareInputLabels)
	fake.AddWorkflow("unrelated", "brinkmanlab", []string{"other"}, nil)

	workflow, err := r.FindWorkflow(context.Background())
	if err != nil {
		t.Fatalf("FindWorkflow: %v", err)
	}
	if workflow.ID != want {
		t.Errorf("workflow.ID = %q, want %q", workflow.ID, want)
	}
}

func TestFindWorkflow_NotFound(t *testing.T) {
	fake, r := newTestRunner(t)
	fake.AddWorkflow("unrelated", "brinkmanlab", []string{"other"}, nil)

	_, err := r.FindWorkflow(context.Background())
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected *ConfigurationError, got %v", err)
	}
}

func TestUploadHistory_CreatesAndTags(t *testing.T) {
	fake, r := newTestRunner(t)

	history, err := r.UploadHistory(context.Background())
	if err != nil {
		t.Fatalf("UploadHistory: %v", err)
	}
	if history.Name != UploadHistoryName {
		t.Errorf("history.Name = %q, want %q", history.Name, UploadHistoryName)
	}
	if !hasTag(history.Tags, UploadHistoryTag) {
		t.Errorf("history tags %v missing %q", history.Tags, UploadHistoryTag)
	}
	if fake.HistoryDeleted(history.ID) {
		t.Error("upload history should exist on the server")
	}
}

func TestUploadHistory_ReusesExisting(t *testing.T) {
	fake, r := newTestRunner(t)
	want := fake.NewHistory(UploadHistoryName, UploadHistoryTag)

	history, err := r.UploadHistory(context.Background())
	if err != nil {
		t.Fatalf("UploadHistory: %v", err)
	}
	if history.ID != want {
		t.Errorf("history.ID = %q, want existing %q", history.ID, want)
	}
}
