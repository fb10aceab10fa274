// Package dispatch implements the system-call dispatch/entry-exit
// protocol (C1): the budget-accounting envelope every syscall handler
// runs through, the numbered syscall surface's request/response
// types, and the per-thread TCR error-reporting register.
//
// The envelope is always: update_timestamp -> check_budget_restart ->
// handler -> schedule(). The kernel package wires concrete component
// state through this envelope; dispatch itself only knows about
// budgets, domain slices, and TCR bookkeeping.
package dispatch

import (
	"wellkernel/config"
	kernelerrors "wellkernel/errors"
	"wellkernel/refill"
	"wellkernel/sched"
	"wellkernel/thread"
)

// TCR is the per-thread Thread Control Register: the channel a
// syscall handler uses to report a TCR error code back to the caller,
// read by user-space after the syscall returns.
type TCR struct {
	Kind  kernelerrors.Kind
	Phase kernelerrors.Phase
}

// Set installs a TCR error code, overwriting whatever was there.
func (r *TCR) Set(kind kernelerrors.Kind, phase kernelerrors.Phase) {
	r.Kind, r.Phase = kind, phase
}

// Clear resets the register to OK/NoPhase.
func (r *TCR) Clear() {
	r.Kind, r.Phase = kernelerrors.OK, kernelerrors.NoPhase
}

// Registers maps a thread id to its TCR, since the register is a
// per-thread resource the kernel aggregate owns rather than the TCB
// itself (the TCB models architectural/scheduling state; the TCR is
// purely an error-reporting side channel, same split the teacher
// keeps between container state and the error it returns).
type Registers struct {
	byThread map[thread.ID]*TCR
}

// NewRegisters returns an empty TCR table.
func NewRegisters() *Registers {
	return &Registers{byThread: make(map[thread.ID]*TCR)}
}

// For returns the TCR for id, creating one (at OK) if this is the
// first reference.
func (r *Registers) For(id thread.ID) *TCR {
	tcr, ok := r.byThread[id]
	if !ok {
		tcr = &TCR{}
		r.byThread[id] = tcr
	}
	return tcr
}

// Forget drops a thread's TCR entry, called on thread destruction.
func (r *Registers) Forget(id thread.ID) {
	delete(r.byThread, id)
}

// BudgetDecision is the result of CheckBudgetRestart.
type BudgetDecision int

const (
	// ProceedWithSyscall means capacity is sufficient; run the handler.
	ProceedWithSyscall BudgetDecision = iota
	// FaultHealthMonitor means a HARD thread exhausted its budget;
	// the privilege thread must be scheduled to observe the fault.
	FaultHealthMonitor
	// RequestRetry means a SOFT thread exhausted its budget; it is
	// marked Restart (if still runnable) and must retry later.
	RequestRetry
)

// CheckBudgetRestart implements check_budget_restart (§4.7): given
// the calling thread's scheduling context, its current consumption,
// and the active domain's remaining slice, decide whether the
// syscall may proceed, or whether budget exhaustion must be charged
// (with a Health-Monitor fault for HARD threads, a silent restart for
// SOFT ones).
func CheckBudgetRestart(t *thread.TCB, rb *refill.Buffer, consumed, domainTimeRemaining int64) BudgetDecision {
	capacity := rb.Head().Amount - consumed
	queueRoom := rb.RoundRobin() || !rb.Full()
	if capacity >= config.MinBudget && queueRoom && domainTimeRemaining > 0 {
		return ProceedWithSyscall
	}

	if t.Level == thread.Hard {
		if t.State&thread.Dummy == 0 && !t.IsBlocked() {
			_ = t.SetState(thread.Restart)
		}
		return FaultHealthMonitor
	}

	if t.State&thread.Dummy == 0 && !t.IsBlocked() {
		_ = t.SetState(thread.Restart)
	}
	return RequestRetry
}

// Envelope runs the update-timestamp / check-budget / handler /
// schedule sequence described in §4.7. consumed and domainRemaining
// are read fresh by the caller before invoking Envelope, since they
// depend on component state (the release/ready queues, the domain
// dispatcher) that dispatch does not itself own.
//
// handler is invoked only when the budget check passes; its error
// (if any) is still passed through, but budget-exhaustion errors take
// priority and never reach the handler.
func Envelope(t *thread.TCB, rb *refill.Buffer, consumed, domainRemaining int64, action *sched.SchedulerActionSlot, healthMonitor *thread.TCB, handler func() error) (BudgetDecision, error) {
	decision := CheckBudgetRestart(t, rb, consumed, domainRemaining)

	switch decision {
	case FaultHealthMonitor:
		action.Set(sched.ChoosePriv, healthMonitor)
		return decision, kernelerrors.WrapWithThread(nil, kernelerrors.InvalSched, "check_budget_restart",
			uint32(t.ID))
	case RequestRetry:
		action.Set(sched.ChooseNew, nil)
		return decision, nil
	}

	if err := handler(); err != nil {
		return decision, err
	}
	action.Set(sched.ChooseNew, nil)
	return decision, nil
}
