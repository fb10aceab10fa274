package kernel

import (
	"wellkernel/config"
	"wellkernel/dispatch"
	kernelerrors "wellkernel/errors"
	"wellkernel/sched"
	"wellkernel/thread"
)

// applyBudget installs or updates t's scheduling context. Called with
// k.mu held.
func (k *Kernel) applyBudget(t *thread.TCB, req dispatch.ScheduleRequest) error {
	rb, err := k.scOf(t)
	if err != nil {
		obj, serr := k.newSC(req.Budget, req.Period, req.MaxRefills)
		if serr != nil {
			return serr
		}
		t.SchedContextAddr = obj.Addr
		return nil
	}
	rb.Update(req.Period, req.Budget, req.MaxRefills)
	return rb.Validate()
}

// Schedule implements the Schedule syscall (§6): apply priority, mcp,
// level, domain, and budget/period/max-refills to req.Dest. The
// caller is the thread trapping into the syscall, i.e. k.Current.
func (k *Kernel) Schedule(req dispatch.ScheduleRequest) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.withDispatchEnvelope(k.Current, func() error {
		t, ok := k.Threads[req.Dest]
		if !ok {
			return kernelerrors.ErrThreadNotFound
		}
		if req.Priority < 0 || req.Priority >= config.NumPriorities {
			return kernelerrors.ErrInvalidPriority
		}
		if req.Domain < 0 || req.Domain >= config.NumDomains {
			return kernelerrors.ErrInvalidDomain
		}

		if err := sched.SetPriority(k.Ready, &k.Action, t, req.Priority, req.MCP); err != nil {
			return err
		}
		if t.StateObjectKind == thread.MessageEndpoint && t.State.Any(thread.SendBlocked|thread.RecvBlocked) {
			if ep := k.endpoint(t.StateObjectAddr); ep != nil {
				ep.Reorder(t)
			}
		}
		t.Domain = req.Domain
		t.Level = req.Level

		if req.Budget > 0 {
			if err := k.applyBudget(t, req); err != nil {
				return err
			}
		}

		k.Action.Set(sched.ChooseNew, nil)
		return nil
	})
}

// SwitchThread implements the SwitchThread syscall (§6): a voluntary
// yield. dest == thread.Nil means "choose any"; a ready, non-nil dest
// donates the caller's remaining slice to it.
func (k *Kernel) SwitchThread(caller *thread.TCB, dest thread.ID) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.withEnvelope(caller, func() error {
		if dest.IsNil() {
			k.Action.Set(sched.ChooseNew, nil)
			return nil
		}

		target, ok := k.Threads[dest]
		if !ok {
			return kernelerrors.ErrThreadNotFound
		}
		if target.State&thread.Queued == 0 {
			return kernelerrors.ErrThreadNotReady
		}

		if target.SchedContextAddr == 0 {
			target.SchedContextAddr = caller.SchedContextAddr
		}
		k.Action.Set(sched.ChooseSpecific, target)
		return nil
	})
}
