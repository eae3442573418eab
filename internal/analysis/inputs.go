package analysis

import (
	"context"
	"fmt"
	"regexp"

	"github.com/brinkmanlab/islandcompare-cli/pkg/galaxy"
)

// Workflow input slot labels as declared by the published workflow.
const (
	inputLabelData      = "Input datasets"
	inputLabelTree      = "Phylogenetic tree in newick format"
	inputLabelNewickIDs = "Newick Identifiers"
	inputLabelReference = "Reference Genome"
)

var nonWordChars = regexp.MustCompile(`\W`)

// SanitizeReferenceID rewrites an accession-style identifier into the form
// reference ids use, replacing every non-word character with an underscore.
func SanitizeReferenceID(id string) string {
	return nonWordChars.ReplaceAllString(id, "_")
}

// prepareInputs creates the tagged output history for one analysis and
// builds the invocation input payload: the uploaded datasets wrapped in a
// list collection, the optional tree dataset, and the scalar parameters.
func (r *Runner) prepareInputs(ctx context.Context, workflow *galaxy.WorkflowDetail, label string, data []*galaxy.Dataset, tree *galaxy.Dataset, accession bool, referenceID string) (map[string]any, *galaxy.History, error) {
	slots := workflow.InputLabelsToIDs()
	resolve := func(label string) (string, error) {
		ids := slots[label]
		if len(ids) != 1 {
			return "", &ConfigurationError{
				Message: fmt.Sprintf("workflow input %q resolves to %d slots, expected exactly 1", label, len(ids)),
			}
		}
		return ids[0], nil
	}

	dataSlot, err := resolve(inputLabelData)
	if err != nil {
		return nil, nil, err
	}
	treeSlot, err := resolve(inputLabelTree)
	if err != nil {
		return nil, nil, err
	}
	newickIDSlot, err := resolve(inputLabelNewickIDs)
	if err != nil {
		return nil, nil, err
	}
	referenceSlot, err := resolve(inputLabelReference)
	if err != nil {
		return nil, nil, err
	}

	history, err := r.client.CreateHistory(ctx, label)
	if err != nil {
		return nil, nil, err
	}
	history.Tags = append(history.Tags, workflow.ID, ApplicationTag)
	if err := r.client.UpdateHistoryTags(ctx, history.ID, history.Tags); err != nil {
		return nil, nil, err
	}

	elements := make([]galaxy.CollectionElement, 0, len(data))
	for _, d := range data {
		elements = append(elements, galaxy.CollectionElement{ID: d.ID, Name: d.Name, Src: "hda"})
	}
	collection, err := r.client.CreateDatasetCollection(ctx, history.ID, "input_data", elements)
	if err != nil {
		return nil, nil, err
	}

	// Identifiers in the tree are either accessions or dataset labels;
	// the workflow parameter is the inverse of the accession flag.
	newickIdentifiers := "True"
	if accession {
		newickIdentifiers = "False"
	}

	inputs := map[string]any{
		dataSlot:      map[string]any{"id": collection.ID, "src": "hdca"},
		newickIDSlot:  newickIdentifiers,
		referenceSlot: referenceID,
	}
	if tree != nil {
		inputs[treeSlot] = map[string]any{"id": tree.ID, "src": "hda"}
	} else {
		inputs[treeSlot] = nil
	}

	return inputs, history, nil
}
