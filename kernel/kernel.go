// Package kernel aggregates every core component (C1-C8) behind one
// singleton: the Kernel struct owns the thread table, ready/release
// queues, domain dispatcher, refill-backed scheduling contexts, the
// object table, IPC endpoints, notifications, the timer wheel, and
// the partition/MPU mapping, and exposes the numbered syscall surface
// as methods. This replaces the source's global mutable scheduler
// statics with "a single aggregate owned by a Kernel singleton", per
// the Design Notes' own instruction — modeled on the teacher's
// Container as the aggregate root the rest of the container package
// operates on.
package kernel

import (
	"sync"

	"wellkernel/arch"
	"wellkernel/config"
	"wellkernel/dispatch"
	kernelerrors "wellkernel/errors"
	"wellkernel/ipc"
	"wellkernel/logging"
	"wellkernel/mpu"
	"wellkernel/object"
	"wellkernel/refill"
	"wellkernel/rights"
	"wellkernel/sched"
	"wellkernel/thread"
	"wellkernel/timerwheel"
)

// Kernel is the top-level aggregate. mu guards every field: the
// simulation is single-CPU (§5 "kernel critical sections are
// protected by interrupt masking" on a single CPU), so one mutex
// standing in for "interrupts masked" is the correct granularity —
// an SMP build would break this into the per-structure spinlocks §5
// names instead.
type Kernel struct {
	mu sync.Mutex

	Boot *config.Boot

	Threads          map[thread.ID]*thread.TCB
	nextThreadNumber uint32

	Objects  *object.Table
	nextAddr uintptr

	Ready   *sched.ReadyQueue
	Release *sched.ReleaseQueue
	Domain  *sched.DomainDispatcher
	Action  sched.SchedulerActionSlot

	Registers *dispatch.Registers
	Wheel     *timerwheel.Wheel
	Timer     arch.Timer
	MpuBack   mpu.Backend

	// consumed tracks ticks used against the current head refill
	// since the last budget-check reset, per thread.
	consumed map[thread.ID]int64

	Tick    int64
	Current *thread.TCB
	Idle    *thread.TCB
	Health  *thread.TCB

	staticRegions  []mpu.Partition
	bgStart, bgEnd uintptr

	// sleepEndpoint is a dedicated, never-signaled endpoint that
	// ExchangeIpc's to=nil/from=nil case blocks the caller on (§6
	// "arms a sleep"): no thread ever sends to it, so a receiver only
	// leaves it via timeout or explicit cancellation.
	sleepEndpoint uintptr
}

// New creates a Kernel from a boot configuration: the idle thread,
// the Health Monitor privilege thread, the static domain schedule,
// and every configured thread with its own scheduling context.
func New(boot *config.Boot) (*Kernel, error) {
	if err := boot.Validate(); err != nil {
		return nil, err
	}

	k := &Kernel{
		Boot:      boot,
		Threads:   make(map[thread.ID]*thread.TCB),
		Objects:   object.NewTable(),
		nextAddr:  0x1000,
		Ready:     sched.NewReadyQueue(),
		Release:   sched.NewReleaseQueue(),
		Domain:    sched.NewDomainDispatcher(boot.DomainSchedule),
		Registers: dispatch.NewRegisters(),
		Wheel:     timerwheel.New(),
		consumed:  make(map[thread.ID]int64),
	}
	k.Timer = arch.NewMonotonicTimer(func() { k.clockISR() })
	k.MpuBack = arch.NewSimMpuBackend()

	k.Idle = k.newKernelThread(thread.IdleThreadNumber, "idle")
	k.Health = k.newKernelThread(thread.PrivilegeThreadNumber, "health-monitor")
	k.Current = k.Idle

	sleepAddr := k.allocAddr()
	sleepObj := k.Objects.Insert(sleepAddr, object.MessageObject, rights.Read|rights.Write)
	sleepObj.Payload = ipc.NewEndpoint(sleepAddr)
	k.sleepEndpoint = sleepAddr

	for _, ts := range boot.Threads {
		if _, err := k.bootThread(ts); err != nil {
			return nil, err
		}
	}

	logging.Default().Info("kernel booted", "threads", len(k.Threads), "domains", len(boot.DomainSchedule))
	return k, nil
}

// allocAddr hands out the next kernel-object address. The simulation
// never reuses an address within a run, mirroring the real pool
// allocator's forward-only bump behavior closely enough for the
// object table's ordering invariants (addresses only need to be
// distinct and comparable, not reclaimed).
func (k *Kernel) allocAddr() uintptr {
	a := k.nextAddr
	k.nextAddr += 0x40
	return a
}

func (k *Kernel) newKernelThread(number uint32, name string) *thread.TCB {
	id := thread.NewID(number, 0)
	t := thread.New(id, name)
	t.Priority = config.NumPriorities - 1
	t.MCP = config.NumPriorities - 1
	k.Threads[id] = t
	return t
}

// bootThread creates a user thread from a ThreadSpec plus an owned
// scheduling context, and enqueues it ready to run.
func (k *Kernel) bootThread(ts config.ThreadSpec) (*thread.TCB, error) {
	number := thread.FirstUserThread + k.nextThreadNumber
	k.nextThreadNumber++
	id := thread.NewID(number, 0)

	t := thread.New(id, ts.Name)
	t.Priority = ts.Priority
	t.MCP = ts.MCP
	t.Domain = ts.Domain
	t.Level = thread.Soft
	// A booted thread is live: clear the Dummy bit thread.New starts with.
	t.State = 0
	k.Threads[id] = t

	sc, err := k.newSC(ts.Budget, ts.Period, config.NumSchedRefills)
	if err != nil {
		return nil, err
	}
	t.SchedContextAddr = sc.Addr

	k.Ready.EnqueueTail(t)
	return t, nil
}

// newSC allocates a scheduling-context kernel object wrapping a fresh
// refill buffer.
func (k *Kernel) newSC(budget, period int64, max int) (*object.Object, error) {
	rb, err := refill.New(k.Tick, budget, period, max)
	if err != nil {
		return nil, err
	}
	addr := k.allocAddr()
	obj := k.Objects.Insert(addr, object.SCObject, rights.Read|rights.Write)
	obj.Payload = rb
	return obj, nil
}

// scOf returns the refill buffer owned by t, or ErrNoSchedContext.
func (k *Kernel) scOf(t *thread.TCB) (*refill.Buffer, error) {
	if t.SchedContextAddr == 0 {
		return nil, kernelerrors.ErrNoSchedContext
	}
	obj := k.Objects.Lookup(t.SchedContextAddr)
	if obj == nil {
		return nil, kernelerrors.ErrNoSchedContext
	}
	rb, ok := obj.Payload.(*refill.Buffer)
	if !ok {
		return nil, kernelerrors.ErrNoSchedContext
	}
	return rb, nil
}

// Lock/Unlock expose the aggregate's critical section to the CLI
// layer, which needs to read consistent state across several fields
// (Snapshot) without racing the tick driver.
func (k *Kernel) Lock()   { k.mu.Lock() }
func (k *Kernel) Unlock() { k.mu.Unlock() }

// withEnvelope runs handler through the C1 dispatch envelope's gate
// and epilogue (§4.7: update_timestamp -> check_budget_restart ->
// handler -> schedule()), without dictating what schedule() resolves
// to: handler is free to set k.Action itself (ExchangeIpc's and
// SwitchThread's possibly_switch sets a specific candidate thread
// directly), and whatever it leaves in k.Action is what
// resolveActionLocked acts on. This is what makes a syscall's
// possibly-switch epilogue happen synchronously with the call instead
// of waiting for the next clockISR, the same budget gate
// accountBudgetLocked applies once per tick applied here once per
// syscall. Callers must hold k.mu.
//
// caller == nil or the idle thread (kernel-internal bookkeeping calls,
// and any syscall issued before a real thread is current) and a
// caller with no scheduling context (the Health Monitor, freshly
// created threads) both skip the budget gate and run handler
// unconditionally; there is nothing to charge.
func (k *Kernel) withEnvelope(caller *thread.TCB, handler func() error) error {
	rb, scErr := k.gateOf(caller)
	if scErr != nil {
		err := handler()
		k.resolveActionLocked()
		return err
	}

	decision := dispatch.CheckBudgetRestart(caller, rb, k.consumed[caller.ID], k.Domain.CurrentDomainTime)
	switch decision {
	case dispatch.FaultHealthMonitor:
		k.Registers.For(caller.ID).Set(kernelerrors.InvalSched, kernelerrors.NoPhase)
		k.Action.Set(sched.ChoosePriv, nil)
		k.resolveActionLocked()
		return kernelerrors.WrapWithThread(nil, kernelerrors.InvalSched, "check_budget_restart", uint32(caller.ID))
	case dispatch.RequestRetry:
		k.Action.Set(sched.ChooseNew, nil)
		k.resolveActionLocked()
		return nil
	}

	err := handler()
	k.resolveActionLocked()
	return err
}

// withDispatchEnvelope runs handler through dispatch.Envelope exactly:
// the same gate as withEnvelope, but a successful handler always
// resolves to ChooseNew on exit, mirroring the real kernel's schedule()
// call at the end of every syscall that doesn't pick its own
// candidate (ThreadControl, Schedule, ExchangeRegisters all end by
// falling into ordinary next_thread selection, unlike IPC's
// direct-handoff fastpath). Callers must hold k.mu.
func (k *Kernel) withDispatchEnvelope(caller *thread.TCB, handler func() error) error {
	rb, scErr := k.gateOf(caller)
	if scErr != nil {
		err := handler()
		k.resolveActionLocked()
		return err
	}

	decision, err := dispatch.Envelope(caller, rb, k.consumed[caller.ID], k.Domain.CurrentDomainTime, &k.Action, k.Health, handler)
	if decision == dispatch.FaultHealthMonitor {
		k.Registers.For(caller.ID).Set(kernelerrors.InvalSched, kernelerrors.NoPhase)
	}
	k.resolveActionLocked()
	return err
}

// gateOf returns the scheduling context to budget-gate caller against,
// or a non-nil error when caller has none and the gate should be
// skipped (the idle thread, a nil caller, or a thread that hasn't been
// given a scheduling context yet).
func (k *Kernel) gateOf(caller *thread.TCB) (*refill.Buffer, error) {
	if caller == nil || caller == k.Idle {
		return nil, kernelerrors.ErrNoSchedContext
	}
	return k.scOf(caller)
}
