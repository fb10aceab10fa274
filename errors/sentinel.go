// Package errors provides predefined sentinel errors for common failure cases.
package errors

// Thread lifecycle errors.
var (
	// ErrThreadNotFound indicates the thread does not exist.
	ErrThreadNotFound = &KernelError{Kind: InvalThread, Detail: "thread not found"}

	// ErrThreadExists indicates a thread already occupies that id slot.
	ErrThreadExists = &KernelError{Kind: InvalThread, Detail: "thread already exists"}

	// ErrThreadNotReady indicates the thread is not in a state Schedule/Resume can act on.
	ErrThreadNotReady = &KernelError{Kind: InvalSched, Detail: "thread is not ready"}

	// ErrThreadNotBlocked indicates an operation expected a blocked thread.
	ErrThreadNotBlocked = &KernelError{Kind: InvalSched, Detail: "thread is not blocked"}

	// ErrInvalidThreadID indicates the thread id encoding is malformed.
	ErrInvalidThreadID = &KernelError{Kind: InvalThread, Detail: "invalid thread id"}

	// ErrNoSchedContext indicates the thread has no owned scheduling context.
	ErrNoSchedContext = &KernelError{Kind: InvalSched, Detail: "thread has no scheduling context"}
)

// Scheduling / budget errors.
var (
	// ErrMCPExceeded indicates an attempt to raise priority above mcp.
	ErrMCPExceeded = &KernelError{Kind: NoPrivilege, Detail: "priority exceeds maximum controlled priority"}

	// ErrInvalidPriority indicates a priority outside [0, NUM_PRIORITIES).
	ErrInvalidPriority = &KernelError{Kind: InvalSched, Detail: "priority out of range"}

	// ErrInvalidDomain indicates a domain outside [0, NUM_DOMAINS).
	ErrInvalidDomain = &KernelError{Kind: InvalSched, Detail: "domain out of range"}

	// ErrBudgetExhausted indicates a HARD thread ran out of budget.
	ErrBudgetExhausted = &KernelError{Kind: InvalSched, Detail: "scheduling context budget exhausted"}

	// ErrRefillQueueFull indicates the circular refill buffer has no room to split.
	ErrRefillQueueFull = &KernelError{Kind: InvalSched, Detail: "refill queue is full"}
)

// IPC errors.
var (
	// ErrEndpointBusy indicates a non-blocking send/recv found no partner.
	ErrEndpointBusy = &KernelError{Kind: IPCNotExist, Detail: "no ipc partner available"}

	// ErrMsgOverflow indicates a message exceeded MESSAGE_REGISTER_NUM.
	ErrMsgOverflow = &KernelError{Kind: IPCMsgOverflow, Detail: "message exceeds register capacity"}

	// ErrIPCTimedOut indicates a blocking rendezvous timed out.
	ErrIPCTimedOut = &KernelError{Kind: IPCTimeout, Detail: "ipc timed out"}

	// ErrIPCCanceledErr indicates the IPC was canceled via ExchangeRegisters.
	ErrIPCCanceledErr = &KernelError{Kind: IPCCanceled, Detail: "ipc canceled"}
)

// Object table errors.
var (
	// ErrOutOfMemory indicates the object pool is exhausted.
	ErrOutOfMemory = &KernelError{Kind: NoMem, Detail: "object pool exhausted"}

	// ErrObjectNotFound indicates an object lookup missed.
	ErrObjectNotFound = &KernelError{Kind: InvalSpace, Detail: "object not found"}

	// ErrObjectTypeMismatch indicates derivation attempted across incompatible types.
	ErrObjectTypeMismatch = &KernelError{Kind: InvalPara, Detail: "object type mismatch"}
)

// Partition / MPU errors.
var (
	// ErrPartitionOverlap indicates two partitions would overlap.
	ErrPartitionOverlap = &KernelError{Kind: InvalSpace, Detail: "partitions overlap"}

	// ErrPartitionAlignment indicates a partition's base/size violates MPU alignment rules.
	ErrPartitionAlignment = &KernelError{Kind: InvalSpace, Detail: "partition misaligned"}

	// ErrPartitionWX indicates a partition is both writable and executable.
	ErrPartitionWX = &KernelError{Kind: InvalSpace, Detail: "partition is writable and executable"}

	// ErrPageFull indicates a Page already holds its maximum partition count.
	ErrPageFull = &KernelError{Kind: InvalSpace, Detail: "page has no free partition slots"}
)
