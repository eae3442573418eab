package galaxy

import (
	"context"
	"net/url"
)

// ShowJob retrieves the full view of a job, including its tool state,
// inputs, outputs and captured stderr.
func (c *Client) ShowJob(ctx context.Context, jobID string) (*Job, error) {
	query := url.Values{}
	query.Set("full", "true")

	var job Job
	if err := c.get(ctx, "ShowJob", "jobs/"+jobID, query, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
