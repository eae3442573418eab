package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/brinkmanlab/islandcompare-cli/internal/galaxytest"
	"github.com/brinkmanlab/islandcompare-cli/pkg/galaxy"
)

func TestSanitizeReferenceID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"NC_003997.3", "NC_003997_3"},
		{"already_clean", "already_clean"},
		{"GCF 000008445-1", "GCF_000008445_1"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeReferenceID(tc.in); got != tc.want {
			t.Errorf("SanitizeReferenceID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func stagedInputs(t *testing.T, fake *galaxytest.Server) (string, []string) {
	t.Helper()
	historyID := fake.NewHistory(UploadHistoryName, UploadHistoryTag)
	a := fake.AddDataset(historyID, "a.gbk", "ok", "genbank", "LOCUS A")
	b := fake.AddDataset(historyID, "b.gbk", "ok", "genbank", "LOCUS B")
	return historyID, []string{a, b}
}

func TestPrepareInputs(t *testing.T) {
	fake, r := newTestRunner(t)
	workflowID := fake.AddIslandCompareWorkflow()
	_, ids := stagedInputs(t, fake)

	workflow, err := r.client.ShowWorkflow(context.Background(), workflowID)
	if err != nil {
		t.Fatalf("ShowWorkflow: %v", err)
	}

	data := make([]*galaxy.Dataset, 0, len(ids))
	for _, id := range ids {
		d, err := r.client.ShowDataset(context.Background(), id)
		if err != nil {
			t.Fatalf("ShowDataset: %v", err)
		}
		data = append(data, d)
	}

	inputs, history, err := r.prepareInputs(context.Background(), workflow, "my analysis", data, nil, true, "ref_1")
	if err != nil {
		t.Fatalf("prepareInputs: %v", err)
	}

	if history.Name != "my analysis" {
		t.Errorf("history.Name = %q, want analysis label", history.Name)
	}
	if !hasTag(history.Tags, workflow.ID) || !hasTag(history.Tags, ApplicationTag) {
		t.Errorf("history tags %v missing workflow id or application tag", history.Tags)
	}

	slots := workflow.InputLabelsToIDs()
	dataInput, ok := inputs[slots[inputLabelData][0]].(map[string]any)
	if !ok {
		t.Fatalf("data input missing or wrong shape: %v", inputs)
	}
	if dataInput["src"] != "hdca" {
		t.Errorf("data input src = %v, want hdca", dataInput["src"])
	}
	if inputs[slots[inputLabelTree][0]] != nil {
		t.Errorf("tree input = %v, want nil without a tree", inputs[slots[inputLabelTree][0]])
	}
	if inputs[slots[inputLabelNewickIDs][0]] != "False" {
		t.Errorf("newick identifiers = %v, want False for accession identifiers", inputs[slots[inputLabelNewickIDs][0]])
	}
	if inputs[slots[inputLabelReference][0]] != "ref_1" {
		t.Errorf("reference = %v, want ref_1", inputs[slots[inputLabelReference][0]])
	}
}

func TestPrepareInputs_TreeAsSeparateInput(t *testing.T) {
	fake, r := newTestRunner(t)
	workflowID := fake.AddIslandCompareWorkflow()
	historyID, ids := stagedInputs(t, fake)
	treeID := fake.AddDataset(historyID, "tree.nwk", "ok", "newick", "(a,b);")

	workflow, _ := r.client.ShowWorkflow(context.Background(), workflowID)
	var data []*galaxy.Dataset
	for _, id := range ids {
		d, _ := r.client.ShowDataset(context.Background(), id)
		data = append(data, d)
	}
	tree, _ := r.client.ShowDataset(context.Background(), treeID)

	inputs, _, err := r.prepareInputs(context.Background(), workflow, "labelled", data, tree, false, "")
	if err != nil {
		t.Fatalf("prepareInputs: %v", err)
	}

	slots := workflow.InputLabelsToIDs()
	treeInput, ok := inputs[slots[inputLabelTree][0]].(map[string]any)
	if !ok {
		t.Fatalf("tree input missing: %v", inputs)
	}
	if treeInput["src"] != "hda" || treeInput["id"] != tree.ID {
		t.Errorf("tree input = %v, want hda reference to %q", treeInput, tree.ID)
	}
	if inputs[slots[inputLabelNewickIDs][0]] != "True" {
		t.Errorf("newick identifiers = %v, want True for label identifiers", inputs[slots[inputLabelNewickIDs][0]])
	}
}

func TestPrepareInputs_AmbiguousSlot(t *testing.T) {
	fake, r := newTestRunner(t)
	workflowID := fake.AddIslandCompareWorkflow()
	fake.DuplicateInputSlot(workflowID, inputLabelData)
	_, ids := stagedInputs(t, fake)

	workflow, _ := r.client.ShowWorkflow(context.Background(), workflowID)
	var data []*galaxy.Dataset
	for _, id := range ids {
		d, _ := r.client.ShowDataset(context.Background(), id)
		data = append(data, d)
	}

	_, _, err := r.prepareInputs(context.Background(), workflow, "labelled", data, nil, true, "")
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected *ConfigurationError for duplicate slot, got %v", err)
	}
}
