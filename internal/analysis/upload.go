package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brinkmanlab/islandcompare-cli/pkg/galaxy"
	"github.com/dustin/go-humanize"
)

// extToDatatype maps recognized file extensions to Galaxy datatypes.
// Unknown extensions are left for the server to sniff.
var extToDatatype = map[string]string{
	"genbank": "genbank",
	"gbk":     "genbank",
	"gbff":    "genbank",
	"embl":    "embl",
	"newick":  "newick",
	"nwk":     "newick",
}

// DatatypeForPath returns the Galaxy datatype for a file path, or empty
// when the extension is not recognized.
func DatatypeForPath(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return extToDatatype[ext]
}

// Upload pushes a local file into the given history. The label defaults to
// the file's base name and the datatype is inferred from the extension
// table when not supplied.
func (r *Runner) Upload(ctx context.Context, historyID, path, label, fileType string) (*galaxy.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("invalid file path specified: %s", path)
	}

	if label == "" {
		label = filepath.Base(path)
	}
	if fileType == "" {
		fileType = DatatypeForPath(path)
	}

	r.logger.Debug("uploading dataset",
		"path", path, "label", label, "type", fileType,
		"size", humanize.Bytes(uint64(info.Size())))

	dataset, err := r.client.UploadFile(ctx, historyID, path, label, fileType)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	return dataset, nil
}

// ListData lists the non-deleted datasets of a history.
func (r *Runner) ListData(ctx context.Context, historyID string) ([]galaxy.DatasetSummary, error) {
	contents, err := r.client.ListHistoryContents(ctx, historyID)
	if err != nil {
		return nil, err
	}

	datasets := make([]galaxy.DatasetSummary, 0, len(contents))
	for _, d := range contents {
		if !d.Deleted {
			datasets = append(datasets, d)
		}
	}
	return datasets, nil
}

// DeleteData purges one dataset from a history, or the whole history when
// datasetID is empty.
func (r *Runner) DeleteData(ctx context.Context, historyID, datasetID string) error {
	if datasetID == "" {
		return r.client.DeleteHistory(ctx, historyID, true)
	}
	return r.client.DeleteDataset(ctx, historyID, datasetID, true)
}
