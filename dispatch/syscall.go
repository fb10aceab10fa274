package dispatch

import "wellkernel/thread"

// Number identifies a syscall in the numbered surface (§6), kept
// identical across architectures the way the source's syscall table
// is.
type Number int

const (
	SysThreadControl Number = iota
	SysSchedule
	SysSwitchThread
	SysExchangeRegisters
	SysExchangeIpc
	SysSystemClock
	SysSpaceControl
	SysProcessorControl
	SysUnmapPage
)

func (n Number) String() string {
	names := [...]string{
		"ThreadControl", "Schedule", "SwitchThread", "ExchangeRegisters",
		"ExchangeIpc", "SystemClock", "SpaceControl", "ProcessorControl",
		"UnmapPage",
	}
	if int(n) < 0 || int(n) >= len(names) {
		return "Unknown"
	}
	return names[n]
}

// ThreadControlOp distinguishes the three ThreadControl behaviors
// named in §6's syscall surface table, replacing the source's
// space==null/exists-check ternary with an explicit request field.
type ThreadControlOp int

const (
	// OpModify changes an existing thread's pager/space.
	OpModify ThreadControlOp = iota
	// OpCreate creates a new thread (space != null, doesn't exist yet).
	OpCreate
	// OpDelete deletes a thread (space == null).
	OpDelete
	// OpBindNotification attaches Notification to Dest for bound
	// fast-path signal delivery (§4.4).
	OpBindNotification
	// OpUnbindNotification detaches whatever notification Dest is
	// currently bound to, if any.
	OpUnbindNotification
)

// ThreadControlRequest is the ThreadControl syscall's argument tuple.
type ThreadControlRequest struct {
	Dest         thread.ID
	Op           ThreadControlOp
	Pager        thread.ID // supplies stack/entry on create; ignored otherwise
	Notification uintptr   // notification object address; OpBindNotification only
}

// ScheduleRequest is the Schedule syscall's argument tuple: apply
// priority, MCP, level, domain, budget/period/max-refills to Dest.
type ScheduleRequest struct {
	Dest       thread.ID
	Priority   int
	MCP        int
	Level      thread.Level
	Domain     int
	Budget     int64
	Period     int64
	MaxRefills int
}

// ExchangeRegistersControl is the structured replacement for the
// source's 13-bit bit-soup control word (Design Notes §9): one bool
// per control bit, named for what it does rather than its ABI
// position. The ABI boundary (dispatch's caller in a real image) is
// the only place that would re-encode this into the wire format.
type ExchangeRegistersControl struct {
	// ReadSP/ReadIP/ReadFlags select which registers to read back
	// (the source's lower-case s/i/f bits).
	ReadSP, ReadIP, ReadFlags bool
	// WriteSP/WriteIP/WriteFlags select which registers to overwrite
	// with the Request's corresponding value (split from read for
	// clarity).
	WriteSP, WriteIP, WriteFlags bool
	// Halt requests the target be suspended before any read/write.
	Halt bool
	// Delete requests the target thread be deleted.
	Delete bool
	// CancelSend/CancelRecv cancel an in-flight send/receive phase
	// (the source's S/R control bits), delivering IPC_CANCELED.
	CancelSend, CancelRecv bool
}

// Undefined is the pinned sentinel ExchangeRegistersResponse uses for
// a register the caller didn't ask to read, replacing the source's
// unnamed UNDEFINE_VALUE (Design Notes §9 open question: the ABI
// needed a name, this is it).
const Undefined uint32 = 0xdeadc0de

// ExchangeRegistersRequest is the ExchangeRegisters syscall's
// argument tuple.
type ExchangeRegistersRequest struct {
	Dest    thread.ID
	Control ExchangeRegistersControl
	SP      uint32
	IP      uint32
	Flags   uint32
}

// ExchangeRegistersResponse carries back the registers the control
// word asked to read, Undefined for anything not requested.
type ExchangeRegistersResponse struct {
	SP, IP, Flags uint32
}

// NewExchangeRegistersResponse seeds every field with Undefined, so
// a handler only needs to set the fields the control word's read
// bits actually requested.
func NewExchangeRegistersResponse() ExchangeRegistersResponse {
	return ExchangeRegistersResponse{SP: Undefined, IP: Undefined, Flags: Undefined}
}

// ExchangeIpcRequest is the combined send-then-receive syscall's
// argument tuple. §6's condensed syscall table names its arguments
// "to, from" as if IPC addressed threads directly; §3/§4.3's data
// model is unambiguous that the actual rendezvous point is a message
// Endpoint capability, so To/From here are endpoint object addresses
// (0 standing in for "none", the object-table address space never
// allocating address 0) rather than thread ids — the endpoint-capability
// reading is the one this port implements.
type ExchangeIpcRequest struct {
	To      uintptr // send-phase endpoint, 0 for none
	From    uintptr // receive-phase endpoint, 0 for none
	AnyFrom bool    // accept a receive from any sender on From
	Timeout uint16  // mantissa/exponent-encoded per §4.3; ipc.Timeout(Timeout) decodes it
}

// ExchangeIpcResponse reports which thread actually sent the message
// received, relevant when AnyFrom was set.
type ExchangeIpcResponse struct {
	FromActual thread.ID
}
