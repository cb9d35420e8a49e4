package bridge

import "fmt"

// MalformedSelectionError reports a selection that does not decompose
// into a valid loop topology (branching, mixed fragments, degree > 2).
type MalformedSelectionError struct {
	Reason string
}

func (e MalformedSelectionError) Error() string {
	return "malformed selection: " + e.Reason
}

// LoopCountError reports a selection that decomposes into a number of
// loops other than two.
type LoopCountError struct {
	Count int
}

func (e LoopCountError) Error() string {
	return fmt.Sprintf("selection contains %d edge borders, exactly 2 required", e.Count)
}

// OrientationConflictError reports that no consistent winding could be
// established for the fill faces. The conflict is surfaced to the
// caller; ambiguous intent is never guessed.
type OrientationConflictError struct {
	Reason string
}

func (e OrientationConflictError) Error() string {
	return "cannot resolve fill orientation: " + e.Reason
}

// ContainmentError reports that the inner loop does not lie inside the
// outer loop's region.
type ContainmentError struct {
	Reason string
}

func (e ContainmentError) Error() string {
	return "containment check failed: " + e.Reason
}

// HostOperationError wraps a failure from a delegated host operation,
// such as the quadrangulation step. It is propagated, never retried.
type HostOperationError struct {
	Op  string
	Err error
}

func (e HostOperationError) Error() string {
	return fmt.Sprintf("host operation %s failed: %v", e.Op, e.Err)
}

func (e HostOperationError) Unwrap() error {
	return e.Err
}
