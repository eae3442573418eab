// Package galaxytest provides an in-process fake Galaxy server backing
// client, lifecycle and CLI tests. It implements the subset of the Galaxy
// REST API that pkg/galaxy consumes, with hooks to stage datasets,
// workflows, invocations and failures.
package galaxytest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// OutputSpec describes a labelled output dataset the fake server creates
// when a workflow is invoked.
type OutputSpec struct {
	Ext     string
	State   string
	Content string
}

// Server is a fake Galaxy instance.
type Server struct {
	mu sync.Mutex

	// APIKey, when set, is required in the x-api-key header of every request.
	APIKey string

	// UploadState is the state assigned to freshly uploaded datasets.
	UploadState string

	// InvokeOutputs are the outputs materialized for each new invocation.
	InvokeOutputs map[string]OutputSpec

	failNext int

	invocationOrder []string

	histories   map[string]*history
	datasets    map[string]*dataset
	collections map[string]*collection
	workflows   map[string]*workflow
	invocations map[string]*invocation
	jobs        map[string]*job
	genomes     [][]string
}

type history struct {
	ID      string
	Name    string
	Tags    []string
	Deleted bool
	Purged  bool
}

type dataset struct {
	ID            string
	HistoryID     string
	Name          string
	State         string
	FileExt       string
	MiscInfo      string
	Deleted       bool
	Purged        bool
	Content       []byte
	RequestedType string
}

type collection struct {
	ID        string
	HistoryID string
	Name      string
	Elements  []collectionElement
}

type collectionElement struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Src  string `json:"src"`
}

type workflow struct {
	ID        string
	Name      string
	Owner     string
	Tags      []string
	Published bool
	Inputs    map[string]map[string]string
}

type invocation struct {
	ID         string
	WorkflowID string
	HistoryID  string
	State      string
	Outputs    map[string]outputRef
	Steps      []*step
}

type outputRef struct {
	ID  string `json:"id"`
	Src string `json:"src"`
}

type step struct {
	ID            string
	Label         string
	SubInvocation string
	Jobs          []jobRef
}

type jobRef struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type job struct {
	ID      string
	State   string
	Stderr  string
	Params  map[string]any
	Inputs  map[string]outputRef
	Outputs map[string]outputRef
}

// New creates an empty fake server.
func New() *Server {
	return &Server{
		UploadState: "ok",
		InvokeOutputs: map[string]OutputSpec{
			"Results": {Ext: "gff3", State: "ok", Content: "##gff-version 3\n"},
		},
		histories:   make(map[string]*history),
		datasets:    make(map[string]*dataset),
		collections: make(map[string]*collection),
		workflows:   make(map[string]*workflow),
		invocations: make(map[string]*invocation),
		jobs:        make(map[string]*job),
	}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// FailNext makes the next n API requests fail with 503, exercising client
// retry paths.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// NewHistory stages a history and returns its id.
func (s *Server) NewHistory(name string, tags ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &history{ID: newID(), Name: name, Tags: append([]string{}, tags...)}
	s.histories[h.ID] = h
	return h.ID
}

// AddDataset stages a dataset in a history and returns its id.
func (s *Server) AddDataset(historyID, name, state, fileExt, content string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &dataset{
		ID:        newID(),
		HistoryID: historyID,
		Name:      name,
		State:     state,
		FileExt:   fileExt,
		Content:   []byte(content),
	}
	s.datasets[d.ID] = d
	return d.ID
}

// SetDatasetState updates a staged dataset's state and diagnostic message.
func (s *Server) SetDatasetState(datasetID, state, miscInfo string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.datasets[datasetID]; ok {
		d.State = state
		d.MiscInfo = miscInfo
	}
}

// DatasetDeleted reports whether a dataset has been deleted.
func (s *Server) DatasetDeleted(datasetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.datasets[datasetID]
	return !ok || d.Deleted
}

// HistoryDeleted reports whether a history has been deleted.
func (s *Server) HistoryDeleted(historyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[historyID]
	return !ok || h.Deleted
}

// UploadedType returns the datatype requested when a dataset was uploaded.
func (s *Server) UploadedType(datasetID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.datasets[datasetID]; ok {
		return d.RequestedType
	}
	return ""
}

// AddWorkflow stages a published workflow whose input slots carry the given
// labels (one slot per label) and returns its id.
func (s *Server) AddWorkflow(name, owner string, tags, inputLabels []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := &workflow{
		ID:        newID(),
		Name:      name,
		Owner:     owner,
		Tags:      append([]string{}, tags...),
		Published: true,
		Inputs:    make(map[string]map[string]string),
	}
	for i, label := range inputLabels {
		w.Inputs[fmt.Sprintf("%d", i)] = map[string]string{"label": label, "uuid": newID()}
	}
	s.workflows[w.ID] = w
	return w.ID
}

// IslandCompareInputLabels are the input slots of the production workflow.
var IslandCompareInputLabels = []string{
	"Input datasets",
	"Phylogenetic tree in newick format",
	"Newick Identifiers",
	"Reference Genome",
}

// AddIslandCompareWorkflow stages the canonical IslandCompare workflow.
func (s *Server) AddIslandCompareWorkflow() string {
	return s.AddWorkflow("IslandCompare", "brinkmanlab", []string{"islandcompare"}, IslandCompareInputLabels)
}

// DuplicateInputSlot adds a second slot with the same label, making the
// workflow ambiguous for input resolution.
func (s *Server) DuplicateInputSlot(workflowID, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.workflows[workflowID]; ok {
		w.Inputs[fmt.Sprintf("%d", len(w.Inputs))] = map[string]string{"label": label, "uuid": newID()}
	}
}

// SetGenomes stages the built-in reference genome listing as [name, id] pairs.
func (s *Server) SetGenomes(pairs [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genomes = pairs
}

// AddInvocation stages an invocation with labelled outputs referencing
// existing datasets and returns its id.
func (s *Server) AddInvocation(workflowID, historyID, state string, outputs map[string]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := &invocation{
		ID:         newID(),
		WorkflowID: workflowID,
		HistoryID:  historyID,
		State:      state,
		Outputs:    make(map[string]outputRef),
	}
	for label, datasetID := range outputs {
		inv.Outputs[label] = outputRef{ID: datasetID, Src: "hda"}
	}
	s.invocations[inv.ID] = inv
	s.invocationOrder = append(s.invocationOrder, inv.ID)
	return inv.ID
}

// InvocationState returns the state of a staged invocation.
func (s *Server) InvocationState(invocationID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv, ok := s.invocations[invocationID]; ok {
		return inv.State
	}
	return ""
}

// LastInvocation returns the id of the most recently created invocation.
func (s *Server) LastInvocation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.invocationOrder) == 0 {
		return ""
	}
	return s.invocationOrder[len(s.invocationOrder)-1]
}

// AddStep appends a step to an invocation and returns the step id. A
// non-empty subInvocation marks the step as a sub-workflow expansion.
func (s *Server) AddStep(invocationID, label, subInvocation string, jobIDs ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invocations[invocationID]
	if !ok {
		return ""
	}
	st := &step{ID: newID(), Label: label, SubInvocation: subInvocation}
	for _, jobID := range jobIDs {
		state := ""
		if j, ok := s.jobs[jobID]; ok {
			state = j.State
		}
		st.Jobs = append(st.Jobs, jobRef{ID: jobID, State: state})
	}
	inv.Steps = append(inv.Steps, st)
	return st.ID
}

// AddJob stages a job and returns its id. inputs and outputs map parameter
// names to dataset ids.
func (s *Server) AddJob(state, stderr string, params map[string]any, inputs, outputs map[string]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &job{
		ID:      newID(),
		State:   state,
		Stderr:  stderr,
		Params:  params,
		Inputs:  make(map[string]outputRef),
		Outputs: make(map[string]outputRef),
	}
	for name, id := range inputs {
		j.Inputs[name] = outputRef{ID: id, Src: "hda"}
	}
	for name, id := range outputs {
		j.Outputs[name] = outputRef{ID: id, Src: "hda"}
	}
	s.jobs[j.ID] = j
	return j.ID
}
