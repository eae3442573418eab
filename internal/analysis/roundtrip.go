package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/brinkmanlab/islandcompare-cli/pkg/galaxy"
)

// RoundTripInput bundles the parameters of a single-command analysis.
type RoundTripInput struct {
	Label       string
	DataPaths   []string
	NewickPath  string
	OutputDir   string
	Accession   bool
	ReferenceID string
}

// RoundTripResult reports what a completed round trip produced.
type RoundTripResult struct {
	InvocationID string
	Outputs      map[string]string
	Errors       map[string]string
	Elapsed      time.Duration
}

// RoundTrip runs one analysis end to end: upload the inputs, invoke the
// workflow, wait for and download the results, collect job errors, and
// purge everything that was created on the server. Cleanup is best effort;
// failures are logged and do not mask the analysis outcome.
func (r *Runner) RoundTrip(ctx context.Context, workflow *galaxy.WorkflowDetail, input RoundTripInput) (*RoundTripResult, error) {
	start := time.Now()

	for _, path := range input.DataPaths {
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return nil, fmt.Errorf("invalid file path specified: %s", path)
		}
	}
	if input.NewickPath != "" {
		if info, err := os.Stat(input.NewickPath); err != nil || info.IsDir() {
			return nil, fmt.Errorf("invalid file path specified: %s", input.NewickPath)
		}
	}
	if info, err := os.Stat(input.OutputDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("output path must be an existing folder: %s", input.OutputDir)
	}

	uploadHistory, err := r.UploadHistory(ctx)
	if err != nil {
		return nil, err
	}

	r.statusf("Uploading..")
	data := make([]*galaxy.Dataset, 0, len(input.DataPaths))
	for _, path := range input.DataPaths {
		dataset, err := r.Upload(ctx, uploadHistory.ID, path, "", "")
		if err != nil {
			return nil, err
		}
		data = append(data, dataset)
	}

	var tree *galaxy.Dataset
	if input.NewickPath != "" {
		tree, err = r.Upload(ctx, uploadHistory.ID, input.NewickPath, "", "newick")
		if err != nil {
			return nil, err
		}
	}

	r.statusf("Running..")
	invocationID, history, err := r.Invoke(ctx, workflow, input.Label, data, tree, input.Accession, input.ReferenceID)
	if err != nil {
		return nil, err
	}
	r.statusf("Analysis ID:")
	fmt.Fprintln(r.Out, invocationID)

	result := &RoundTripResult{InvocationID: invocationID}
	defer r.cleanup(history, data, tree)

	outputs, err := r.FetchResults(ctx, invocationID, input.OutputDir)
	if err != nil {
		var blocking *BlockingWorkflowError
		if !errors.As(err, &blocking) {
			return nil, err
		}
		// The run failed; report it and fall through so the job error
		// report still reaches the caller.
		r.statusf("%s", blocking)
	}
	result.Outputs = outputs

	r.statusf("Collecting any errors..")
	errs, err := r.CollectErrors(ctx, invocationID)
	if err != nil {
		return nil, err
	}
	result.Errors = errs
	for _, id := range sortedKeys(errs) {
		fmt.Fprintln(r.Out, errs[id])
	}
	if len(errs) == 0 {
		r.statusf("No errors found")
	}

	result.Elapsed = time.Since(start)
	r.statusf("Wall time: %s", result.Elapsed.Round(time.Second))
	return result, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cleanup purges the server-side state a round trip created. It runs with
// its own deadline so a cancelled analysis still gets cleaned up.
func (r *Runner) cleanup(history *galaxy.History, data []*galaxy.Dataset, tree *galaxy.Dataset) {
	r.statusf("Cleaning up..")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := r.client.DeleteHistory(ctx, history.ID, true); err != nil {
		r.logger.Warn("failed to purge output history", "history_id", history.ID, "error", err)
	}
	for _, d := range data {
		if err := r.client.DeleteDataset(ctx, d.HistoryID, d.ID, true); err != nil {
			r.logger.Warn("failed to purge uploaded dataset", "dataset_id", d.ID, "error", err)
		}
	}
	if tree != nil {
		if err := r.client.DeleteDataset(ctx, tree.HistoryID, tree.ID, true); err != nil {
			r.logger.Warn("failed to purge uploaded tree", "dataset_id", tree.ID, "error", err)
		}
	}
}
