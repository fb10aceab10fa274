// Package errors provides typed error handling for the kernel core.
//
// This package defines the TCR (Thread Control Register) error
// vocabulary from the external interface contract and wraps it in a
// type that supports the standard errors.Is()/errors.As() functions,
// so callers at any layer can test for a specific TCR code without
// string matching.
package errors

import (
	"errors"
	"fmt"
)

// Kind is the TCR error classification reported back to user threads.
type Kind int

const (
	// OK indicates no error.
	OK Kind = iota
	// NoPrivilege indicates the caller lacks the rights for the operation.
	NoPrivilege
	// InvalThread indicates an invalid or non-existent thread reference.
	InvalThread
	// InvalSpace indicates an invalid partition/page reference.
	InvalSpace
	// InvalSched indicates an invalid scheduling parameter.
	InvalSched
	// InvalPara indicates an invalid generic argument.
	InvalPara
	// UtcbArea indicates a UTCB placement error.
	UtcbArea
	// KipArea indicates a kernel-info-page placement error.
	KipArea
	// NoMem indicates the object pool is exhausted.
	NoMem
	// IPCTimeout indicates a send/recv rendezvous timed out.
	IPCTimeout
	// IPCNotExist indicates the IPC partner does not exist.
	IPCNotExist
	// IPCCanceled indicates the IPC was canceled via ExchangeRegisters.
	IPCCanceled
	// IPCMsgOverflow indicates the message exceeded MESSAGE_REGISTER_NUM.
	IPCMsgOverflow
	// IPCXferTimeout indicates a typed-item transfer timed out.
	IPCXferTimeout
	// IPCAborted indicates the IPC was aborted by a concurrent operation.
	IPCAborted
)

// String returns a human-readable name for the error kind.
func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case NoPrivilege:
		return "no privilege"
	case InvalThread:
		return "invalid thread"
	case InvalSpace:
		return "invalid space"
	case InvalSched:
		return "invalid scheduler parameter"
	case InvalPara:
		return "invalid parameter"
	case UtcbArea:
		return "invalid utcb area"
	case KipArea:
		return "invalid kip area"
	case NoMem:
		return "out of memory"
	case IPCTimeout:
		return "ipc timeout"
	case IPCNotExist:
		return "ipc partner does not exist"
	case IPCCanceled:
		return "ipc canceled"
	case IPCMsgOverflow:
		return "ipc message overflow"
	case IPCXferTimeout:
		return "ipc transfer timeout"
	case IPCAborted:
		return "ipc aborted"
	default:
		return "unknown error"
	}
}

// Phase marks which half of a two-phase IPC an error code applies to.
// IPC-related Kinds are reported OR-ed with a phase bit in the TCR;
// the phase travels alongside the Kind here as a field instead, per
// the structured-request approach this port takes to the source's
// bit-soup control words.
type Phase int

const (
	// NoPhase applies to non-IPC errors.
	NoPhase Phase = iota
	// SendPhase marks an error that occurred during the send half.
	SendPhase
	// RecvPhase marks an error that occurred during the receive half.
	RecvPhase
)

func (p Phase) String() string {
	switch p {
	case SendPhase:
		return "send"
	case RecvPhase:
		return "recv"
	default:
		return ""
	}
}

// KernelError is the error value a syscall handler returns, and the
// value recorded in a thread's TCR.
type KernelError struct {
	// Op is the operation that failed (e.g. "send_ipc", "thread_control").
	Op string
	// Thread is the thread id involved, if applicable.
	Thread uint32
	// Err is the underlying error, if any.
	Err error
	// Kind is the TCR classification.
	Kind Kind
	// Phase marks the IPC phase, when Kind is IPC-related.
	Phase Phase
	// Detail provides additional context.
	Detail string
}

// Error returns the error message.
func (e *KernelError) Error() string {
	if e == nil {
		return "<nil>"
	}

	var msg string
	if e.Thread != 0 {
		msg = fmt.Sprintf("thread %#x: ", e.Thread)
	}
	if e.Op != "" {
		msg += fmt.Sprintf("%s: ", e.Op)
	}
	if e.Detail != "" {
		msg += e.Detail
	} else {
		msg += e.Kind.String()
	}
	if e.Phase != NoPhase {
		msg += fmt.Sprintf(" (%s phase)", e.Phase)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *KernelError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether the error matches the target.
// It matches if the target is a *KernelError with the same Kind; the
// underlying error is reached by errors.Is through Unwrap, not here.
func (e *KernelError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	if t, ok := target.(*KernelError); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a new KernelError with the given kind.
func New(kind Kind, op string, detail string) *KernelError {
	return &KernelError{Op: op, Kind: kind, Detail: detail}
}

// Wrap wraps an error with kernel context.
func Wrap(err error, kind Kind, op string) *KernelError {
	return &KernelError{Op: op, Err: err, Kind: kind}
}

// WrapWithThread wraps an error with thread context.
func WrapWithThread(err error, kind Kind, op string, threadID uint32) *KernelError {
	return &KernelError{Op: op, Thread: threadID, Err: err, Kind: kind}
}

// WrapWithDetail wraps an error with additional detail.
func WrapWithDetail(err error, kind Kind, op string, detail string) *KernelError {
	return &KernelError{Op: op, Err: err, Kind: kind, Detail: detail}
}

// IPC builds an IPC error tagged with its phase, matching the source's
// "IPC_TIMEOUT | SEND_PHASE"-style OR-ed TCR codes.
func IPC(kind Kind, phase Phase, op string, threadID uint32) *KernelError {
	return &KernelError{Op: op, Thread: threadID, Kind: kind, Phase: phase}
}

// IsKind checks if an error is of a specific kind.
func IsKind(err error, kind Kind) bool {
	var kerr *KernelError
	if errors.As(err, &kerr) {
		return kerr.Kind == kind
	}
	return false
}

// GetKind returns the error kind if the error is a KernelError.
func GetKind(err error) (Kind, bool) {
	var kerr *KernelError
	if errors.As(err, &kerr) {
		return kerr.Kind, true
	}
	return 0, false
}

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)
