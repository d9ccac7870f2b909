package proc

import "fmt"

// ErrProcessExited indicates that the target process has exited, either
// before we could attach or while it was being inspected.
type ErrProcessExited struct {
	Pid    int
	Status int
}

func (pe ErrProcessExited) Error() string {
	return fmt.Sprintf("Process %d has exited with status %d", pe.Pid, pe.Status)
}

// ProcessDetachedError indicates that an operation was attempted on a target
// that has already been resumed and released.
type ProcessDetachedError struct {
}

func (pe ProcessDetachedError) Error() string {
	return "detached from the process"
}

// AttachError means the PTRACE_ATTACH request itself was refused, such as
// when the pid does not exist or the kernel's ptrace policy forbids tracing
// it. Nothing was touched; there is no attachment to undo.
type AttachError struct {
	Pid int
	Err error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("could not attach to pid %d: %v", e.Pid, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }

// WaitError means the attach request was accepted but waiting for the
// target's stop notification failed, leaving its state unknown.
type WaitError struct {
	Pid int
	Err error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("could not wait for pid %d to stop: %v", e.Pid, e.Err)
}

func (e *WaitError) Unwrap() error { return e.Err }

// MappingError means the mapping table of an attached target could not be
// read or parsed. Without the table no region can be located, so this ends
// the scan; the deferred detach still runs.
type MappingError struct {
	Pid int
	Err error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("could not read memory mappings of pid %d: %v", e.Pid, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// DetachError means the PTRACE_DETACH request failed and the target may
// still be stopped. It is reported and never silently dropped, but it does
// not invalidate results that were already extracted.
type DetachError struct {
	Pid int
	Err error
}

func (e *DetachError) Error() string {
	return fmt.Sprintf("could not detach from pid %d: %v", e.Pid, e.Err)
}

func (e *DetachError) Unwrap() error { return e.Err }
