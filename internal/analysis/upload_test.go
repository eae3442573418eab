package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDatatypeForPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"genome.gbk", "genbank"},
		{"genome.genbank", "genbank"},
		{"genome.gbff", "genbank"},
		{"genome.embl", "embl"},
		{"tree.newick", "newick"},
		{"tree.nwk", "newick"},
		{"reads.fastq", ""},
		{"noextension", ""},
	}
	for _, tc := range cases {
		if got := DatatypeForPath(tc.path); got != tc.want {
			t.Errorf("DatatypeForPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestUpload_InfersDatatype(t *testing.T) {
	fake, r := newTestRunner(t)
	historyID := fake.NewHistory(UploadHistoryName, UploadHistoryTag)

	path := writeTempFile(t, "genome.gbk", "LOCUS TEST 100 bp")
	dataset, err := r.Upload(context.Background(), historyID, path, "", "")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if dataset.Name != "genome.gbk" {
		t.Errorf("label = %q, want file base name", dataset.Name)
	}
	if got := fake.UploadedType(dataset.ID); got != "genbank" {
		t.Errorf("requested datatype = %q, want genbank", got)
	}
}

func TestUpload_UnknownExtensionSniffed(t *testing.T) {
	fake, r := newTestRunner(t)
	historyID := fake.NewHistory(UploadHistoryName, UploadHistoryTag)

	path := writeTempFile(t, "reads.fastq", "@read1\nACGT\n")
	dataset, err := r.Upload(context.Background(), historyID, path, "custom-label", "")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if dataset.Name != "custom-label" {
		t.Errorf("label = %q, want custom-label", dataset.Name)
	}
	if got := fake.UploadedType(dataset.ID); got != "auto" {
		t.Errorf("requested datatype = %q, want auto", got)
	}
}

func TestUpload_RejectsMissingFile(t *testing.T) {
	fake, r := newTestRunner(t)
	historyID := fake.NewHistory(UploadHistoryName, UploadHistoryTag)

	if _, err := r.Upload(context.Background(), historyID, filepath.Join(t.TempDir(), "absent.gbk"), "", ""); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := r.Upload(context.Background(), historyID, t.TempDir(), "", ""); err == nil {
		t.Fatal("expected error for directory path")
	}
}

func TestListData_ExcludesDeleted(t *testing.T) {
	fake, r := newTestRunner(t)
	historyID := fake.NewHistory(UploadHistoryName, UploadHistoryTag)
	kept := fake.AddDataset(historyID, "kept.gbk", "ok", "genbank", "")
	deleted := fake.AddDataset(historyID, "deleted.gbk", "ok", "genbank", "")

	if err := r.DeleteData(context.Background(), historyID, deleted); err != nil {
		t.Fatalf("DeleteData: %v", err)
	}

	datasets, err := r.ListData(context.Background(), historyID)
	if err != nil {
		t.Fatalf("ListData: %v", err)
	}
	if len(datasets) != 1 || datasets[0].ID != kept {
		t.Errorf("datasets = %+v, want only %q", datasets, kept)
	}
}

func TestDeleteData_EmptyIDDeletesHistory(t *testing.T) {
	fake, r := newTestRunner(t)
	historyID := fake.NewHistory(UploadHistoryName, UploadHistoryTag)

	if err := r.DeleteData(context.Background(), historyID, ""); err != nil {
		t.Fatalf("DeleteData: %v", err)
	}
	if !fake.HistoryDeleted(historyID) {
		t.Error("history should be deleted when no dataset id is given")
	}
}
