package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/brinkmanlab/islandcompare-cli/pkg/galaxy"
)

// CollectErrors walks an invocation's steps, descending into sub-workflow
// invocations, and composes a human-readable error report for every job
// that failed. The result is keyed by job id.
func (r *Runner) CollectErrors(ctx context.Context, invocationID string) (map[string]string, error) {
	invocation, err := r.client.ShowInvocation(ctx, invocationID)
	if err != nil {
		return nil, err
	}

	// Steps are walked as a queue so sub-workflow steps are visited after
	// their parent, each paired with its owning invocation.
	type queuedStep struct {
		invocationID string
		step         galaxy.InvocationStep
	}
	queue := make([]queuedStep, 0, len(invocation.Steps))
	for _, step := range invocation.Steps {
		queue = append(queue, queuedStep{invocationID: invocation.ID, step: step})
	}

	errs := make(map[string]string)
	for i := 0; i < len(queue); i++ {
		q := queue[i]

		if q.step.SubworkflowInvocationID != "" {
			sub, err := r.client.ShowInvocation(ctx, q.step.SubworkflowInvocationID)
			if err != nil {
				return nil, err
			}
			for _, step := range sub.Steps {
				queue = append(queue, queuedStep{invocationID: sub.ID, step: step})
			}
			continue
		}

		detail, err := r.client.ShowInvocationStep(ctx, q.invocationID, q.step.ID)
		if err != nil {
			return nil, err
		}

		for _, jobRef := range detail.Jobs {
			if jobRef.State != "error" {
				continue
			}
			report, err := r.jobErrorReport(ctx, detail.WorkflowStepLabel, jobRef.ID)
			if err != nil {
				return nil, err
			}
			errs[jobRef.ID] = report
		}
	}
	return errs, nil
}

// jobErrorReport composes the error string for one failed job: a line per
// errored output dataset followed by the job's raw stderr.
func (r *Runner) jobErrorReport(ctx context.Context, stepLabel, jobID string) (string, error) {
	job, err := r.client.ShowJob(ctx, jobID)
	if err != nil {
		return "", err
	}

	identifier := inputIdentifier(job)

	keys := make([]string, 0, len(job.Outputs))
	for key := range job.Outputs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		output := job.Outputs[key]
		if output.Src != "hda" {
			continue
		}
		dataset, err := r.client.ShowDataset(ctx, output.ID)
		if err != nil {
			return "", err
		}
		if dataset.State == galaxy.DatasetStateError {
			fmt.Fprintf(&b, "%s on %s - %s: %s\n", stepLabel, identifier, key, dataset.MiscInfo)
		}
	}
	b.WriteString(job.Stderr + "\n")
	return b.String(), nil
}

// inputIdentifier resolves the collection element identifier(s) the failed
// job ran on: empty when none, the bare value when one, a bracketed
// comma-joined list when several.
func inputIdentifier(job *galaxy.Job) string {
	names := make([]string, 0, len(job.Inputs))
	for name := range job.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	var identifiers []string
	for _, name := range names {
		if value, ok := job.Params[name+"|__identifier__"].(string); ok {
			identifiers = append(identifiers, value)
		}
	}

	switch len(identifiers) {
	case 0:
		return ""
	case 1:
		return identifiers[0]
	default:
		return "[" + strings.Join(identifiers, ", ") + "]"
	}
}
