// Package thread defines the thread control block (TCB): the kernel's
// per-thread state, its intrusive list links, and the small set of
// state-transition helpers every other subsystem (scheduler, IPC,
// notification, object table) mutates through.
package thread

import (
	"fmt"
	"sync"

	"wellkernel/config"
	kernelerrors "wellkernel/errors"
)

// State is a bit-set over the thread's blocking/lifecycle condition.
// Queued is orthogonal to the rest: a thread can be on the ready
// queue and, transiently, mid-transition out of a blocked state.
type State uint16

const (
	// Dummy marks a TCB slot that holds no live thread.
	Dummy State = 1 << iota
	// RecvBlocked marks a thread waiting to receive on an endpoint.
	RecvBlocked
	// SendBlocked marks a thread waiting to send on an endpoint.
	SendBlocked
	// NotBlocked marks a thread waiting on a notification.
	NotBlocked
	// Restart marks a thread whose user-visible operation was
	// interrupted (timeout, cancellation, fault) and must retry.
	Restart
	// Dead marks a thread that has been torn down.
	Dead
	// Suspended marks a thread administratively held off the ready
	// queue.
	Suspended
	// Aborting marks a thread flagged for teardown on another CPU,
	// pending observation at this CPU's next scheduler entry.
	Aborting
	// Queued marks a thread present on the ready queue. Orthogonal to
	// every other bit.
	Queued
)

// blockedMask is every bit I1 says Queued must exclude.
const blockedMask = RecvBlocked | SendBlocked | NotBlocked | Suspended | Dead

// String renders the set bits for logging/debugging.
func (s State) String() string {
	if s == 0 {
		return "none"
	}
	names := []struct {
		bit  State
		name string
	}{
		{Dummy, "Dummy"}, {RecvBlocked, "RecvBlocked"}, {SendBlocked, "SendBlocked"},
		{NotBlocked, "NotBlocked"}, {Restart, "Restart"}, {Dead, "Dead"},
		{Suspended, "Suspended"}, {Aborting, "Aborting"}, {Queued, "Queued"},
	}
	out := ""
	for _, n := range names {
		if s&n.bit != 0 {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	return out
}

// Has reports whether all bits in mask are set.
func (s State) Has(mask State) bool { return s&mask == mask }

// Any reports whether any bit in mask is set.
func (s State) Any(mask State) bool { return s&mask != 0 }

// Level controls whether budget exhaustion faults (HARD) or silently
// re-queues the thread (SOFT).
type Level int

const (
	// Hard threads fault the Health Monitor on budget exhaustion.
	Hard Level = iota
	// Soft threads are silently re-queued on budget exhaustion.
	Soft
)

func (l Level) String() string {
	if l == Hard {
		return "HARD"
	}
	return "SOFT"
}

// ID is a 32-bit thread identifier: a thread-number in the low bits
// and a version counter in the high bits, so a stale capability to a
// reused TCB slot is detected instead of silently addressing the new
// occupant.
type ID uint32

const (
	idNumberBits = 20
	idNumberMask = (1 << idNumberBits) - 1
)

// NewID packs a thread number and version into an ID.
func NewID(number uint32, version uint32) ID {
	return ID((version << idNumberBits) | (number & idNumberMask))
}

// Number extracts the thread-number portion.
func (id ID) Number() uint32 { return uint32(id) & idNumberMask }

// Version extracts the version portion.
func (id ID) Version() uint32 { return uint32(id) >> idNumberBits }

// Reserved thread numbers (§6 "Thread ID encoding"). Every user
// thread occupies a thread number at or above FirstUserThread;
// the numbers below it name fixed kernel-internal roles that never
// change version, so NewID(role, 0) is the stable id for each.
const (
	IdleThreadNumber      = 0
	MainThreadNumber      = 1
	PrivilegeThreadNumber = 2
	SchedulerThreadNumber = 3
	SpacerThreadNumber    = 4
	IrqRequestNumber      = 5
	IrqAckNumber          = 6
	FirstUserThread       = 7
)

// Nil is the distinguished NIL_THREAD id: "no thread", used as the
// SwitchThread destination meaning "choose any ready thread".
const Nil ID = 0xffffffff

// Any is the distinguished ANY_THREAD id meaning "any sender". No
// syscall takes it: ExchangeIpcRequest expresses an any-sender receive
// with its AnyFrom flag instead.
const Any ID = 0xfffffffe

func (id ID) IsNil() bool { return id == Nil }
func (id ID) IsAny() bool { return id == Any }

func (id ID) String() string { return fmt.Sprintf("%#x", uint32(id)) }

// StateObjectKind tags what kind of rendezvous endpoint state_object
// points at, since Go has no untyped pointer union.
type StateObjectKind int

const (
	// NoStateObject means the thread is not blocked on an endpoint.
	NoStateObject StateObjectKind = iota
	// MessageEndpoint means state_object is a message endpoint address.
	MessageEndpoint
	// NotificationEndpoint means state_object is a notification address.
	NotificationEndpoint
)

// TCB is the thread control block.
//
// mu guards every field below it; callers that need to read and then
// act on several fields atomically (the scheduler's pick/dispatch
// path) should hold mu across the whole operation rather than
// re-locking per field.
type TCB struct {
	mu sync.Mutex

	// ID is this thread's identifier (number + version).
	ID ID

	// Name is a human-readable label; it has no kernel meaning.
	Name string

	// State is the current lifecycle/blocking bit-set.
	State State

	// Priority is the scheduling priority, in [0, NumPriorities).
	Priority int

	// MCP is the maximum controlled priority this thread may set.
	MCP int

	// Domain is the scheduling domain, in [0, NumDomains).
	Domain int

	// Level controls HARD vs SOFT budget-exhaustion behavior.
	Level Level

	// SchedContextAddr is the address of the owned scheduling context,
	// or 0 if the thread owns none (object.Addr of the SC object).
	SchedContextAddr uintptr

	// StateObjectKind and StateObjectAddr identify the rendezvous
	// endpoint this thread is blocked on, if any.
	StateObjectKind StateObjectKind
	StateObjectAddr uintptr

	// NotificationAddr is the address of a bound notification object,
	// or 0 if none is bound.
	NotificationAddr uintptr

	// PageTableAddr is the address of the owned partition set, or 0.
	PageTableAddr uintptr

	// CalleeSaved is the register-save slot; the kernel's
	// ExchangeRegisters keeps the thread's sp/ip/flags frame here.
	CalleeSaved any

	// AffinityMask selects which simulated CPUs may run this thread.
	// Bit i set means CPU i is eligible. A single-CPU simulation
	// leaves this at 1.
	AffinityMask uint64

	// Deadline is the optional CONFIG_SCHED_DEADLINE ordering value:
	// among equal priorities, the earlier deadline wins. Signed
	// arithmetic tolerates wraparound as long as deadlines reset
	// before the counter reaches its midpoint. Zero means unused.
	Deadline int64

	// ReadyPrev/ReadyNext and MsgPrev/MsgNext are intrusive list
	// links. I1 requires a TCB never sit on both lists at once;
	// LinkReady and LinkMsg enforce this by clearing the other pair
	// whenever one pair is set through them.
	ReadyPrev, ReadyNext *TCB
	MsgPrev, MsgNext     *TCB

	// MR holds the message registers. MR[0] is the message tag;
	// MR[1:] carry untyped words followed by typed item words.
	MR [config.MessageRegisterNum + 1]uint64
}

// New creates a TCB in the Dummy state, unlinked from every list.
func New(id ID, name string) *TCB {
	return &TCB{
		ID:           id,
		Name:         name,
		State:        Dummy,
		AffinityMask: 1,
	}
}

// Lock/Unlock expose the TCB's mutex to callers (scheduler, IPC) that
// must hold it across a multi-field transition.
func (t *TCB) Lock()   { t.mu.Lock() }
func (t *TCB) Unlock() { t.mu.Unlock() }

// SetState installs a new state, validating I1: Queued may never
// coexist with a blocked/suspended/dead bit. Callers must hold the
// lock.
func (t *TCB) SetState(s State) error {
	if s&Queued != 0 && s&blockedMask != 0 {
		return kernelerrors.WrapWithThread(nil, kernelerrors.InvalSched, "set_state",
			uint32(t.ID))
	}
	t.State = s
	return nil
}

// IsBlocked reports whether the thread is waiting on any rendezvous.
func (t *TCB) IsBlocked() bool {
	return t.State.Any(RecvBlocked | SendBlocked | NotBlocked)
}

// ClearStateObject detaches the thread from whatever endpoint it was
// blocked on. Callers must hold the lock.
func (t *TCB) ClearStateObject() {
	t.StateObjectKind = NoStateObject
	t.StateObjectAddr = 0
}

// LinkReady splices this TCB onto a ready-queue doubly-linked list
// between prev and next, clearing any message-queue links per I1.
func (t *TCB) LinkReady(prev, next *TCB) {
	t.MsgPrev, t.MsgNext = nil, nil
	t.ReadyPrev, t.ReadyNext = prev, next
}

// LinkMsg splices this TCB onto a message-queue doubly-linked list,
// clearing any ready-queue links per I1.
func (t *TCB) LinkMsg(prev, next *TCB) {
	t.ReadyPrev, t.ReadyNext = nil, nil
	t.MsgPrev, t.MsgNext = prev, next
}

// Unlink clears every list link, leaving the TCB on no list.
func (t *TCB) Unlink() {
	t.ReadyPrev, t.ReadyNext = nil, nil
	t.MsgPrev, t.MsgNext = nil, nil
}

// SetPriority changes the thread's priority, enforcing that it never
// exceeds MCP (§3 "an operation that would raise a thread's priority
// above mcp fails").
func (t *TCB) SetPriority(p int) error {
	if p > t.MCP {
		return kernelerrors.ErrMCPExceeded
	}
	t.Priority = p
	return nil
}
