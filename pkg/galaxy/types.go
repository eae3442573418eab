package galaxy

// DatasetState is the server-side state of a history dataset.
type DatasetState string

const (
	DatasetStateNew             DatasetState = "new"
	DatasetStateUpload          DatasetState = "upload"
	DatasetStateQueued          DatasetState = "queued"
	DatasetStateRunning         DatasetState = "running"
	DatasetStateSettingMetadata DatasetState = "setting_metadata"
	DatasetStateOK              DatasetState = "ok"
	DatasetStateError           DatasetState = "error"
	DatasetStatePaused          DatasetState = "paused"
)

// PendingDatasetStates lists the states a dataset passes through before
// reaching a terminal state. Galaxy reports per-state counts for these in
// a history's state_details.
var PendingDatasetStates = []DatasetState{
	DatasetStateNew,
	DatasetStateUpload,
	DatasetStateQueued,
	DatasetStateRunning,
	DatasetStateSettingMetadata,
}

// IsPending reports whether the dataset is still being produced.
func (s DatasetState) IsPending() bool {
	for _, p := range PendingDatasetStates {
		if s == p {
			return true
		}
	}
	return false
}

// History is a server-side container grouping datasets.
type History struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Deleted bool     `json:"deleted"`
	Tags    []string `json:"tags"`
}

// HistoryDetail is a history with its aggregate dataset state counters.
type HistoryDetail struct {
	History

	// State is the summary state of the history ("ok", "error", "running", ...).
	State string `json:"state"`

	// StateDetails counts the history's datasets by state.
	StateDetails map[string]int `json:"state_details"`
}

// DatasetSummary is a history content listing entry.
type DatasetSummary struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Deleted bool         `json:"deleted"`
	State   DatasetState `json:"state"`
}

// Dataset is a fully shown history dataset.
type Dataset struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	HistoryID string       `json:"history_id"`
	State     DatasetState `json:"state"`
	Deleted   bool         `json:"deleted"`

	// FileExt is the Galaxy datatype extension ("genbank", "newick", "gff3", ...).
	FileExt string `json:"file_ext"`

	// Size is the dataset size in bytes.
	Size int64 `json:"file_size"`

	// MiscInfo carries the tool's diagnostic message, populated on error.
	MiscInfo string `json:"misc_info"`
}

// DatasetCollection is a registered history dataset collection (HDCA).
type DatasetCollection struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CollectionType string `json:"collection_type"`
}

// CollectionElement names one dataset inside a collection to be created.
type CollectionElement struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Src  string `json:"src"`
}

// Workflow is a stored workflow as returned by the workflow listing.
type Workflow struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Owner     string   `json:"owner"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
}

// WorkflowInput describes one declared input slot of a workflow.
type WorkflowInput struct {
	Label string `json:"label"`
	UUID  string `json:"uuid"`
	Value string `json:"value"`
}

// WorkflowDetail is a workflow with its input slots, keyed by step id.
type WorkflowDetail struct {
	Workflow
	Inputs map[string]WorkflowInput `json:"inputs"`
}

// InputLabelsToIDs maps each human-readable input label to the set of step
// ids declaring it. A well-formed workflow has exactly one id per label.
func (w *WorkflowDetail) InputLabelsToIDs() map[string][]string {
	m := make(map[string][]string, len(w.Inputs))
	for id, input := range w.Inputs {
		m[input.Label] = append(m[input.Label], id)
	}
	return m
}

// InvocationState is the server-side state of a workflow invocation.
type InvocationState string

const (
	InvocationStateNew       InvocationState = "new"
	InvocationStateReady     InvocationState = "ready"
	InvocationStateScheduled InvocationState = "scheduled"
	InvocationStateCancelled InvocationState = "cancelled"
	InvocationStateFailed    InvocationState = "failed"
)

// InvocationOutput references the dataset backing a labelled workflow output.
type InvocationOutput struct {
	ID  string `json:"id"`
	Src string `json:"src"`
}

// Invocation is a workflow invocation. Its state transitions are owned by
// the server; clients only observe.
type Invocation struct {
	ID         string          `json:"id"`
	WorkflowID string          `json:"workflow_id"`
	HistoryID  string          `json:"history_id"`
	State      InvocationState `json:"state"`

	// Outputs maps output labels to backing datasets. Present only in the
	// full invocation view.
	Outputs map[string]InvocationOutput `json:"outputs,omitempty"`

	// Steps lists the invocation steps. Present only in the full view.
	Steps []InvocationStep `json:"steps,omitempty"`
}

// InvocationStep is one step of an invocation.
type InvocationStep struct {
	ID string `json:"id"`

	// SubworkflowInvocationID is set when the step expands into a nested
	// invocation.
	SubworkflowInvocationID string `json:"subworkflow_invocation_id"`

	// WorkflowStepLabel is the step's label in the workflow editor.
	// Populated in the step detail view.
	WorkflowStepLabel string `json:"workflow_step_label"`

	// Jobs lists the jobs scheduled for this step. Populated in the step
	// detail view.
	Jobs []JobSummary `json:"jobs,omitempty"`
}

// JobSummary is a job reference within an invocation step.
type JobSummary struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// JobIO references a dataset consumed or produced by a job.
type JobIO struct {
	ID  string `json:"id"`
	Src string `json:"src"`
}

// Job is the full view of a tool execution.
type Job struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Stderr string `json:"stderr"`

	// Params holds the tool state, including per-input "__identifier__"
	// entries naming the collection element each input came from.
	Params map[string]any `json:"params"`

	Inputs  map[string]JobIO `json:"inputs"`
	Outputs map[string]JobIO `json:"outputs"`
}

// ReferenceGenome is a built-in genome drafts can be aligned against.
type ReferenceGenome struct {
	ID   string
	Name string
}
