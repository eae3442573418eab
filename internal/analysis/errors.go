package analysis

import "fmt"

// ConfigurationError indicates the server is missing something this client
// depends on, such as the published workflow or one of its input slots.
type ConfigurationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return e.Message
}

// BlockingWorkflowError indicates an invocation was classified as failed
// and no results can be retrieved.
type BlockingWorkflowError struct {
	InvocationID string
}

// Error implements the error interface.
func (e *BlockingWorkflowError) Error() string {
	return fmt.Sprintf("blocking error detected in analysis %s", e.InvocationID)
}

// InputError indicates an input dataset entered a failed state before the
// workflow could be invoked.
type InputError struct {
	DatasetID string
	Name      string
	State     string
}

// Error implements the error interface.
func (e *InputError) Error() string {
	return fmt.Sprintf("input dataset %s (%s) entered state %q", e.Name, e.DatasetID, e.State)
}
