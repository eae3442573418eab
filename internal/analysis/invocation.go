package analysis

import (
	"context"
	"time"

	"github.com/brinkmanlab/islandcompare-cli/pkg/galaxy"
)

// Status is the locally derived state of an invocation. It is computed
// from the output history's dataset state counters and the invocation's
// outputs; the server stores nothing equivalent.
type Status int

const (
	StatusRunning Status = iota
	StatusDone
	StatusError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "running"
	}
}

// Invoke submits one analysis: it waits for the input datasets to become
// ready, assembles the invocation inputs, and starts the workflow. It
// returns the invocation id and the output history.
func (r *Runner) Invoke(ctx context.Context, workflow *galaxy.WorkflowDetail, label string, data []*galaxy.Dataset, tree *galaxy.Dataset, accession bool, referenceID string) (string, *galaxy.History, error) {
	waitFor := data
	if tree != nil {
		waitFor = append(append([]*galaxy.Dataset{}, data...), tree)
	}
	if err := r.waitForInputs(ctx, waitFor); err != nil {
		return "", nil, err
	}

	inputs, history, err := r.prepareInputs(ctx, workflow, label, data, tree, accession, referenceID)
	if err != nil {
		return "", nil, err
	}

	invocation, err := r.client.InvokeWorkflow(ctx, galaxy.InvokeWorkflowInput{
		WorkflowID:                workflow.ID,
		HistoryID:                 history.ID,
		Inputs:                    inputs,
		AllowToolStateCorrections: true,
	})
	if err != nil {
		return "", nil, err
	}

	r.logger.Info("invocation submitted", "invocation_id", invocation.ID, "history_id", history.ID)
	return invocation.ID, history, nil
}

// waitForInputs polls until every input dataset leaves its pending state,
// failing fast when any input fails.
func (r *Runner) waitForInputs(ctx context.Context, data []*galaxy.Dataset) error {
	pending := make([]string, 0, len(data))
	for _, d := range data {
		pending = append(pending, d.ID)
	}

	for len(pending) > 0 {
		remaining := pending[:0]
		for _, id := range pending {
			dataset, err := r.client.ShowDataset(ctx, id)
			if err != nil {
				return err
			}
			switch {
			case dataset.State == galaxy.DatasetStateError || dataset.State == galaxy.DatasetStatePaused:
				return &InputError{DatasetID: dataset.ID, Name: dataset.Name, State: string(dataset.State)}
			case dataset.State.IsPending():
				remaining = append(remaining, id)
			}
		}
		pending = remaining

		if len(pending) > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.InputPollInterval):
			}
		}
	}
	return nil
}

// PollState classifies the current state of an invocation.
//
// A history reporting errors while datasets are still in flight is
// classified running, not failed: the engine can still complete the run
// while partial or sub-workflow errors are present.
func (r *Runner) PollState(ctx context.Context, historyID, invocationID string) (Status, error) {
	history, err := r.client.ShowHistory(ctx, historyID)
	if err != nil {
		return StatusRunning, err
	}

	if history.StateDetails["error"] > 0 || history.State == "error" {
		for _, state := range galaxy.PendingDatasetStates {
			if history.StateDetails[string(state)] > 0 {
				return StatusRunning, nil
			}
		}
	}

	invocation, err := r.client.ShowInvocation(ctx, invocationID)
	if err != nil {
		return StatusRunning, err
	}

	// The Results label is the completion marker; its absence means the
	// run is unfinished or failed, never done.
	if _, ok := invocation.Outputs["Results"]; !ok {
		return StatusError, nil
	}

	done := true
	for _, output := range invocation.Outputs {
		dataset, err := r.client.ShowDataset(ctx, output.ID)
		if err != nil {
			return StatusRunning, err
		}
		switch dataset.State {
		case galaxy.DatasetStateError, galaxy.DatasetStatePaused:
			return StatusError, nil
		case galaxy.DatasetStateOK:
		default:
			done = false
		}
	}
	if !done {
		return StatusRunning, nil
	}
	return StatusDone, nil
}

// Cancel requests cancellation of an invocation and deletes its output
// history. Cancelling an invocation that already reached a terminal state
// is not an error.
func (r *Runner) Cancel(ctx context.Context, workflowID, invocationID string) error {
	invocation, err := r.client.ShowInvocation(ctx, invocationID)
	if err != nil {
		return err
	}

	if err := r.client.CancelInvocation(ctx, workflowID, invocationID); err != nil && !galaxy.IsInactiveInvocation(err) {
		return err
	}

	return r.client.DeleteHistory(ctx, invocation.HistoryID, false)
}

// Run describes one invocation for listing purposes.
type Run struct {
	ID    string
	Label string
	State Status
}

// ListRuns lists all invocations of the workflow across the histories this
// application created, classifying each one's state.
func (r *Runner) ListRuns(ctx context.Context, workflow *galaxy.WorkflowDetail) ([]Run, error) {
	histories, err := r.client.ListHistories(ctx)
	if err != nil {
		return nil, err
	}

	var runs []Run
	for _, history := range histories {
		if history.Deleted || !(hasTag(history.Tags, workflow.ID) || hasTag(history.Tags, ApplicationTag)) {
			continue
		}
		invocations, err := r.client.ListInvocations(ctx, workflow.ID, history.ID)
		if err != nil {
			return nil, err
		}
		for _, invocation := range invocations {
			state, err := r.PollState(ctx, history.ID, invocation.ID)
			if err != nil {
				return nil, err
			}
			runs = append(runs, Run{ID: invocation.ID, Label: history.Name, State: state})
		}
	}
	return runs, nil
}
