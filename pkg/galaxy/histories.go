package galaxy

import (
	"context"
	"fmt"
	"net/url"
)

// ListHistories lists the user's histories, most recent first.
func (c *Client) ListHistories(ctx context.Context) ([]History, error) {
	var histories []History
	if err := c.get(ctx, "ListHistories", "histories", nil, &histories); err != nil {
		return nil, err
	}
	return histories, nil
}

// CreateHistory creates a new named history.
func (c *Client) CreateHistory(ctx context.Context, name string) (*History, error) {
	var history History
	body := map[string]any{"name": name}
	if err := c.post(ctx, "CreateHistory", "histories", body, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// ShowHistory retrieves a history including its per-state dataset counters.
func (c *Client) ShowHistory(ctx context.Context, historyID string) (*HistoryDetail, error) {
	var history HistoryDetail
	if err := c.get(ctx, "ShowHistory", "histories/"+historyID, nil, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// UpdateHistoryTags replaces a history's tags.
func (c *Client) UpdateHistoryTags(ctx context.Context, historyID string, tags []string) error {
	body := map[string]any{"tags": tags}
	return c.put(ctx, "UpdateHistoryTags", "histories/"+historyID, body, nil)
}

// DeleteHistory deletes a history. With purge, its datasets are removed
// from disk as well.
func (c *Client) DeleteHistory(ctx context.Context, historyID string, purge bool) error {
	query := url.Values{}
	if purge {
		query.Set("purge", "true")
	}
	return c.delete(ctx, "DeleteHistory", "histories/"+historyID, query, nil)
}

// ListHistoryContents lists the datasets of a history, including deleted ones.
func (c *Client) ListHistoryContents(ctx context.Context, historyID string) ([]DatasetSummary, error) {
	var contents []DatasetSummary
	if err := c.get(ctx, "ListHistoryContents", "histories/"+historyID+"/contents", nil, &contents); err != nil {
		return nil, err
	}
	return contents, nil
}

// DeleteDataset deletes a single dataset from a history.
func (c *Client) DeleteDataset(ctx context.Context, historyID, datasetID string, purge bool) error {
	query := url.Values{}
	if purge {
		query.Set("purge", "true")
	}
	path := fmt.Sprintf("histories/%s/contents/%s", historyID, datasetID)
	return c.delete(ctx, "DeleteDataset", path, query, nil)
}

// CreateDatasetCollection registers a flat list collection of existing
// datasets against a history.
func (c *Client) CreateDatasetCollection(ctx context.Context, historyID, name string, elements []CollectionElement) (*DatasetCollection, error) {
	body := map[string]any{
		"name":                name,
		"collection_type":     "list",
		"instance_type":       "history",
		"element_identifiers": elements,
	}

	var collection DatasetCollection
	path := "histories/" + historyID + "/contents/dataset_collections"
	if err := c.post(ctx, "CreateDatasetCollection", path, body, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}
