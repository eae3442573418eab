package analysis

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/brinkmanlab/islandcompare-cli/pkg/galaxy"
)

// FetchResults blocks until the invocation completes, then downloads every
// labelled output into dir, naming each file after its label and declared
// datatype extension. It returns a mapping from output label to file path.
//
// A BlockingWorkflowError is returned when the invocation is classified as
// failed; nothing is downloaded in that case.
func (r *Runner) FetchResults(ctx context.Context, invocationID, dir string) (map[string]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("output path must be an existing folder: %s", dir)
	}

	invocation, err := r.client.ShowInvocation(ctx, invocationID)
	if err != nil {
		return nil, err
	}

	if err := r.waitForCompletion(ctx, invocation.HistoryID, invocationID); err != nil {
		return nil, err
	}

	// Re-read the invocation: outputs may have been registered since the
	// first show.
	invocation, err = r.client.ShowInvocation(ctx, invocationID)
	if err != nil {
		return nil, err
	}

	r.statusf("Downloading..")
	labels := make([]string, 0, len(invocation.Outputs))
	for label := range invocation.Outputs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	results := make(map[string]string, len(labels))
	for _, label := range labels {
		path, err := r.downloadOutput(ctx, label, invocation.Outputs[label], dir)
		if err != nil {
			return nil, err
		}
		results[label] = path
		fmt.Fprintln(r.Out, path)
	}
	return results, nil
}

// waitForCompletion polls the invocation state at a fixed interval until
// it is done, surfacing a BlockingWorkflowError on failure.
func (r *Runner) waitForCompletion(ctx context.Context, historyID, invocationID string) error {
	var spin *spinner.Spinner
	if r.Quiet {
		r.statusf("Waiting for results..")
	} else {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond,
			spinner.WithWriter(r.Status), spinner.WithSuffix(" Waiting for results.."))
		spin.Start()
		defer spin.Stop()
	}

	for {
		state, err := r.PollState(ctx, historyID, invocationID)
		if err != nil {
			return err
		}
		switch state {
		case StatusError:
			return &BlockingWorkflowError{InvocationID: invocationID}
		case StatusDone:
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.PollInterval):
		}
	}
}

// downloadOutput resolves one labelled output to its dataset and streams
// it to <dir>/<label>.<ext>.
func (r *Runner) downloadOutput(ctx context.Context, label string, output galaxy.InvocationOutput, dir string) (string, error) {
	dataset, err := r.client.ShowDataset(ctx, output.ID)
	if err != nil {
		return "", err
	}

	path, err := filepath.Abs(filepath.Join(dir, label+"."+dataset.FileExt))
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	var n int64
	if r.Quiet {
		n, err = r.client.DownloadDataset(ctx, output.ID, f)
	} else {
		bar := progressbar.DefaultBytes(dataset.Size, label)
		n, err = r.client.DownloadDataset(ctx, output.ID, io.MultiWriter(f, bar))
		bar.Finish()
	}
	if err != nil {
		return "", err
	}

	r.logger.Debug("downloaded output", "label", label, "path", path, "size", humanize.Bytes(uint64(n)))
	return path, nil
}
