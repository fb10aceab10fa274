package kernel

import (
	"wellkernel/dispatch"
	kernelerrors "wellkernel/errors"
	"wellkernel/object"
	"wellkernel/rights"
	"wellkernel/sched"
	"wellkernel/thread"
)

// ThreadControl implements the ThreadControl syscall (§6): create,
// modify, or delete the thread named by req.Dest, per req.Op. The
// caller is the thread trapping into the syscall, i.e. k.Current.
func (k *Kernel) ThreadControl(req dispatch.ThreadControlRequest) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.withDispatchEnvelope(k.Current, func() error {
		switch req.Op {
		case dispatch.OpCreate:
			return k.threadControlCreate(req)
		case dispatch.OpDelete:
			return k.threadControlDelete(req)
		case dispatch.OpModify:
			return k.threadControlModify(req)
		case dispatch.OpBindNotification:
			return k.threadControlBindNotification(req)
		case dispatch.OpUnbindNotification:
			return k.threadControlUnbindNotification(req)
		}
		return kernelerrors.New(kernelerrors.InvalPara, "thread_control", "unknown operation")
	})
}

func (k *Kernel) threadControlCreate(req dispatch.ThreadControlRequest) error {
	if _, exists := k.Threads[req.Dest]; exists {
		return kernelerrors.ErrThreadExists
	}

	pager, ok := k.Threads[req.Pager]
	if !ok {
		return kernelerrors.ErrThreadNotFound
	}

	t := thread.New(req.Dest, "")
	t.Domain = pager.Domain
	t.Priority = 0
	t.MCP = pager.MCP
	k.Threads[req.Dest] = t

	addr := k.allocAddr()
	k.Objects.Insert(addr, object.ThreadObject, rights.Read|rights.Write)

	if err := t.SetState(thread.Restart); err != nil {
		return err
	}
	return nil
}

func (k *Kernel) threadControlDelete(req dispatch.ThreadControlRequest) error {
	t, ok := k.Threads[req.Dest]
	if !ok {
		return kernelerrors.ErrThreadNotFound
	}
	k.destroyThreadLocked(t)
	return nil
}

func (k *Kernel) threadControlModify(req dispatch.ThreadControlRequest) error {
	if _, ok := k.Threads[req.Dest]; !ok {
		return kernelerrors.ErrThreadNotFound
	}
	return nil
}

// threadControlBindNotification implements TCB_BindNotification:
// attach req.Dest to the notification object at req.Notification for
// bound fast-path delivery (§4.4). Rejects a Dest already bound to
// something, and a target that isn't a Notification object.
func (k *Kernel) threadControlBindNotification(req dispatch.ThreadControlRequest) error {
	t, ok := k.Threads[req.Dest]
	if !ok {
		return kernelerrors.ErrThreadNotFound
	}
	if t.NotificationAddr != 0 {
		return kernelerrors.New(kernelerrors.InvalPara, "thread_control_bind", "thread already bound")
	}
	n := k.notification(req.Notification)
	if n == nil {
		return kernelerrors.ErrObjectNotFound
	}
	if n.BoundThread != nil {
		return kernelerrors.New(kernelerrors.InvalPara, "thread_control_bind", "notification already bound")
	}
	n.Bind(t)
	t.NotificationAddr = req.Notification
	return nil
}

// threadControlUnbindNotification implements TCB_UnbindNotification:
// detach req.Dest from whatever notification it is bound to, if any,
// restoring any scheduling context Bind took stewardship of.
func (k *Kernel) threadControlUnbindNotification(req dispatch.ThreadControlRequest) error {
	t, ok := k.Threads[req.Dest]
	if !ok {
		return kernelerrors.ErrThreadNotFound
	}
	if t.NotificationAddr == 0 {
		return nil
	}
	if n := k.notification(t.NotificationAddr); n != nil {
		n.Unbind()
	}
	t.NotificationAddr = 0
	return nil
}

// destroyThreadLocked implements the TCB destruction side of §3
// "Lifecycle": cancel any in-flight IPC, dequeue from every queue it
// might be on, forget its TCR, and forget the thread itself. Callers
// must hold k.mu.
func (k *Kernel) destroyThreadLocked(t *thread.TCB) {
	if t.State&thread.Queued != 0 {
		k.Ready.Dequeue(t)
	}
	k.Release.Remove(t)

	switch t.StateObjectKind {
	case thread.MessageEndpoint:
		if ep := k.endpoint(t.StateObjectAddr); ep != nil {
			_ = ep.Cancel(t)
		}
	case thread.NotificationEndpoint:
		if n := k.notification(t.StateObjectAddr); n != nil {
			_ = n.Cancel(t)
		}
	}

	if t.NotificationAddr != 0 {
		if n := k.notification(t.NotificationAddr); n != nil {
			n.Unbind()
		}
		t.NotificationAddr = 0
	}

	k.Wheel.Remove(t.ID)
	k.Registers.Forget(t.ID)
	_ = t.SetState(thread.Dead)
	delete(k.Threads, t.ID)

	if k.Current == t {
		k.Action.Set(sched.ChooseNew, nil)
	}
}
