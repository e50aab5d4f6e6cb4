package oracle

import "fmt"

// InputError reports arguments the oracle cannot cluster.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return "oracle input: " + e.Reason }

// DecompositionError reports a failed principal component analysis.
type DecompositionError struct {
	Rows int
	Cols int
}

func (e *DecompositionError) Error() string {
	return fmt.Sprintf("principal component analysis failed on %dx%d matrix", e.Rows, e.Cols)
}

// StateError reports an undecodable or inconsistent model snapshot.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return "model state: " + e.Reason }
