package galaxy

import (
	"context"
	"fmt"
	"net/url"
)

// ListWorkflows lists stored workflows. With published, publicly shared
// workflows are included.
func (c *Client) ListWorkflows(ctx context.Context, published bool) ([]Workflow, error) {
	query := url.Values{}
	if published {
		query.Set("show_published", "true")
	}

	var workflows []Workflow
	if err := c.get(ctx, "ListWorkflows", "workflows", query, &workflows); err != nil {
		return nil, err
	}
	return workflows, nil
}

// ShowWorkflow retrieves a workflow including its declared input slots.
func (c *Client) ShowWorkflow(ctx context.Context, workflowID string) (*WorkflowDetail, error) {
	var workflow WorkflowDetail
	if err := c.get(ctx, "ShowWorkflow", "workflows/"+workflowID, nil, &workflow); err != nil {
		return nil, err
	}
	return &workflow, nil
}

// InvokeWorkflowInput contains the parameters for submitting an invocation.
type InvokeWorkflowInput struct {
	// WorkflowID identifies the workflow to invoke.
	WorkflowID string

	// HistoryID is the history invocation outputs are written to.
	HistoryID string

	// Inputs maps input step ids to their values: dataset or collection
	// references, or scalar parameter strings.
	Inputs map[string]any

	// AllowToolStateCorrections lets the server auto-correct stale tool
	// state instead of rejecting the invocation.
	AllowToolStateCorrections bool
}

// InvokeWorkflow submits a new workflow invocation.
func (c *Client) InvokeWorkflow(ctx context.Context, input InvokeWorkflowInput) (*Invocation, error) {
	body := map[string]any{
		"inputs":                       input.Inputs,
		"history_id":                   input.HistoryID,
		"allow_tool_state_corrections": input.AllowToolStateCorrections,
	}

	var invocation Invocation
	path := "workflows/" + input.WorkflowID + "/invocations"
	if err := c.post(ctx, "InvokeWorkflow", path, body, &invocation); err != nil {
		return nil, err
	}
	return &invocation, nil
}

// ListInvocations lists invocations of a workflow, optionally restricted to
// one history.
func (c *Client) ListInvocations(ctx context.Context, workflowID, historyID string) ([]Invocation, error) {
	query := url.Values{}
	query.Set("include_terminal", "true")
	if historyID != "" {
		query.Set("history_id", historyID)
	}

	var invocations []Invocation
	path := "workflows/" + workflowID + "/invocations"
	if err := c.get(ctx, "ListInvocations", path, query, &invocations); err != nil {
		return nil, err
	}
	return invocations, nil
}

// ShowInvocation retrieves the full view of an invocation, including its
// labelled outputs and steps.
func (c *Client) ShowInvocation(ctx context.Context, invocationID string) (*Invocation, error) {
	var invocation Invocation
	if err := c.get(ctx, "ShowInvocation", "invocations/"+invocationID, nil, &invocation); err != nil {
		return nil, err
	}
	return &invocation, nil
}

// ShowInvocationStep retrieves the detail view of one invocation step,
// including its step label and jobs.
func (c *Client) ShowInvocationStep(ctx context.Context, invocationID, stepID string) (*InvocationStep, error) {
	var step InvocationStep
	path := fmt.Sprintf("invocations/%s/steps/%s", invocationID, stepID)
	if err := c.get(ctx, "ShowInvocationStep", path, nil, &step); err != nil {
		return nil, err
	}
	return &step, nil
}

// CancelInvocation requests server-side cancellation of an invocation.
// Cancelling an already-terminal invocation yields an *APIError for which
// IsInactiveInvocation reports true.
func (c *Client) CancelInvocation(ctx context.Context, workflowID, invocationID string) error {
	path := fmt.Sprintf("workflows/%s/invocations/%s", workflowID, invocationID)
	return c.delete(ctx, "CancelInvocation", path, nil, nil)
}
