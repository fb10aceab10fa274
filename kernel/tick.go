package kernel

import (
	"wellkernel/dispatch"
	kernelerrors "wellkernel/errors"
	"wellkernel/mpu"
	"wellkernel/sched"
	"wellkernel/thread"
)

// clockISR is the tick-source callback wired into arch.Timer at
// construction: it runs once per simulated tick and drives every
// time-based subsystem, mirroring the source's timer-interrupt
// handler shape (wheel update, domain rotation, release-queue
// replenishment, budget accounting, reschedule).
func (k *Kernel) clockISR() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tickLocked()
}

// tickLocked advances the kernel by one tick. Callers must hold k.mu.
func (k *Kernel) tickLocked() {
	k.Tick++
	k.Wheel.Update(1)

	domainChanged := k.Domain.Tick()
	if domainChanged {
		k.Action.Set(sched.ChooseNew, nil)
	}

	for _, t := range k.Release.PopReady(k.Tick) {
		if t.State&thread.Queued == 0 && !t.IsBlocked() {
			k.Ready.EnqueueTail(t)
		}
	}

	if k.Current != nil && k.Current != k.Idle {
		k.accountBudgetLocked(k.Current)
	}

	k.resolveActionLocked()
}

// accountBudgetLocked charges one tick of consumption against the
// current thread's scheduling context and, when its budget is
// exhausted, runs the C1 dispatch envelope's restart/fault decision
// (§4.7).
func (k *Kernel) accountBudgetLocked(t *thread.TCB) {
	rb, err := k.scOf(t)
	if err != nil {
		return
	}
	k.consumed[t.ID]++
	used := k.consumed[t.ID]

	decision := dispatch.CheckBudgetRestart(t, rb, used, k.Domain.CurrentDomainTime)
	switch decision {
	case dispatch.ProceedWithSyscall:
		return
	case dispatch.FaultHealthMonitor:
		tcr := k.Registers.For(t.ID)
		tcr.Set(kernelerrors.InvalSched, kernelerrors.NoPhase)
		k.Action.Set(sched.ChoosePriv, nil)
	case dispatch.RequestRetry:
		k.Action.Set(sched.ChooseNew, nil)
	}

	rb.BudgetCheck(used)
	k.consumed[t.ID] = 0
	if !k.Release.NeedsReprogram() {
		k.Release.Insert(t, rb.Head().Time)
	}
}

// resolveActionLocked resolves whatever k.Action was set to into a
// concrete next-to-run thread and performs the context switch,
// reprogramming the MPU for the incoming thread's partition set
// (§6's schedule() epilogue, the last step of every syscall).
func (k *Kernel) resolveActionLocked() {
	var next *thread.TCB
	switch k.Action.Action {
	case sched.ResumeCurrent:
		return
	case sched.ChoosePriv:
		next = k.Health
	case sched.ChooseSpecific:
		next = k.Action.Candidate
	case sched.ChooseNew:
		next = sched.NextThread(k.Ready, k.Domain.CurrentDomain, k.Current, k.Idle, true)
	}
	k.Action.Set(sched.ResumeCurrent, nil)
	if next == nil {
		next = k.Idle
	}
	k.switchToLocked(next)
}

// switchToLocked installs next as the running thread and reprograms
// the partition/MPU mapping for its address space (C8).
func (k *Kernel) switchToLocked(next *thread.TCB) {
	if k.Current == next {
		return
	}
	k.Current = next

	guard := mpu.NewStackGuard(false)
	stack := mpu.Partition{Start: next.PageTableAddr, Size: mpu.MinRegionSize, Attr: mpu.AttrRead | mpu.AttrWrite}
	mpu.Reprogram(k.MpuBack, k.staticRegions, k.bgStart, k.bgEnd, nil, stack, guard)
}
