// Package analysis implements the IslandCompare invocation lifecycle
// against a Galaxy instance: uploading genomes, assembling workflow
// inputs, submitting and tracking invocations, and retrieving results.
package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/brinkmanlab/islandcompare-cli/pkg/galaxy"
)

const (
	// UploadHistoryName names the shared history holding user uploads.
	UploadHistoryName = "Uploaded data"

	// UploadHistoryTag marks the upload history.
	UploadHistoryTag = "user_data"

	// WorkflowTag marks the published IslandCompare workflow.
	WorkflowTag = "islandcompare"

	// WorkflowOwner is the expected owner of the production workflow.
	WorkflowOwner = "brinkmanlab"

	// ApplicationTag marks histories created by this application.
	ApplicationTag = "IslandCompare"
)

// Default polling intervals. Input readiness is cheap to check; invocation
// completion is not.
const (
	DefaultPollInterval      = 10 * time.Second
	DefaultInputPollInterval = 1 * time.Second
)

// Runner drives the invocation lifecycle. All remote state lives on the
// Galaxy server; the Runner holds no cache and re-reads server state on
// every poll.
type Runner struct {
	client *galaxy.Client
	logger *slog.Logger

	// PollInterval is the fixed delay between invocation state polls.
	PollInterval time.Duration

	// InputPollInterval is the fixed delay between input readiness polls.
	InputPollInterval time.Duration

	// Quiet suppresses the spinner and progress bars.
	Quiet bool

	// Status receives progress messages. Defaults to os.Stderr; stdout is
	// reserved for program output.
	Status io.Writer

	// Out receives program output such as result paths. Defaults to
	// os.Stdout.
	Out io.Writer
}

// NewRunner creates a Runner on top of a Galaxy client.
func NewRunner(client *galaxy.Client, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		client:            client,
		logger:            logger.With("component", "analysis"),
		PollInterval:      DefaultPollInterval,
		InputPollInterval: DefaultInputPollInterval,
		Status:            os.Stderr,
		Out:               os.Stdout,
	}
}

// Client returns the underlying Galaxy client.
func (r *Runner) Client() *galaxy.Client {
	return r.client
}

// FindWorkflow locates the published IslandCompare workflow, preferring the
// canonical owner and falling back to any workflow carrying the tag.
func (r *Runner) FindWorkflow(ctx context.Context) (*galaxy.WorkflowDetail, error) {
	workflows, err := r.client.ListWorkflows(ctx, true)
	if err != nil {
		return nil, err
	}

	var fallback *galaxy.Workflow
	for i, wf := range workflows {
		if !hasTag(wf.Tags, WorkflowTag) {
			continue
		}
		if wf.Owner == WorkflowOwner {
			return r.client.ShowWorkflow(ctx, wf.ID)
		}
		if fallback == nil {
			fallback = &workflows[i]
		}
	}
	if fallback != nil {
		return r.client.ShowWorkflow(ctx, fallback.ID)
	}

	return nil, &ConfigurationError{Message: "IslandCompare workflow not found on host"}
}

// UploadHistory finds the history tagged as the upload container, creating
// and tagging it on first use.
func (r *Runner) UploadHistory(ctx context.Context) (*galaxy.History, error) {
	histories, err := r.client.ListHistories(ctx)
	if err != nil {
		return nil, err
	}
	for i, h := range histories {
		if !h.Deleted && hasTag(h.Tags, UploadHistoryTag) {
			return &histories[i], nil
		}
	}

	history, err := r.client.CreateHistory(ctx, UploadHistoryName)
	if err != nil {
		return nil, err
	}
	history.Tags = append(history.Tags, UploadHistoryTag)
	if err := r.client.UpdateHistoryTags(ctx, history.ID, history.Tags); err != nil {
		return nil, err
	}
	return history, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// statusf writes a progress message to the status writer.
func (r *Runner) statusf(format string, args ...any) {
	fmt.Fprintf(r.Status, format+"\n", args...)
}
