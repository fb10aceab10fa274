package kernel

import (
	"wellkernel/dispatch"
	kernelerrors "wellkernel/errors"
	"wellkernel/ipc"
	"wellkernel/notify"
	"wellkernel/object"
	"wellkernel/sched"
	"wellkernel/thread"
)

// ExchangeIpc implements the combined send-then-receive syscall
// (§6): a send phase against req.To (if non-zero), followed by a
// receive phase against req.From (if non-zero), or against a
// dedicated sleep endpoint when both are zero ("arms a sleep"). Both
// phases dispatch on the target object's type: a Message object runs
// the IPC send/receive primitive, a Notification object runs
// signal()/recv() instead, the way a seL4-family kernel dispatches on
// the invoked capability's type rather than on the syscall number.
func (k *Kernel) ExchangeIpc(caller *thread.TCB, req dispatch.ExchangeIpcRequest) (dispatch.ExchangeIpcResponse, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	var resp dispatch.ExchangeIpcResponse

	err := k.withEnvelope(caller, func() error {
		if req.To != 0 {
			if err := k.exchangeIpcSend(caller, req.To); err != nil {
				return err
			}
		}

		from := req.From
		if from == 0 && req.To == 0 {
			from = k.sleepEndpoint
		}
		if from == 0 {
			return nil
		}

		if caller.NotificationAddr != 0 {
			if n := k.notification(caller.NotificationAddr); n != nil && n.State == notify.Active {
				return n.Recv(caller, false)
			}
		}

		return k.exchangeIpcReceive(caller, from, req.Timeout, &resp)
	})

	return resp, err
}

// exchangeIpcSend runs the send phase against the object at addr:
// Signal() for a Notification, the blocking send primitive for a
// Message endpoint.
func (k *Kernel) exchangeIpcSend(caller *thread.TCB, addr uintptr) error {
	obj := k.Objects.Lookup(addr)
	if obj == nil {
		return kernelerrors.ErrObjectNotFound
	}

	if obj.Type == object.NotificationObject {
		n, ok := obj.Payload.(*notify.Notification)
		if !ok {
			return kernelerrors.ErrObjectNotFound
		}
		woken, err := n.Signal()
		if err != nil {
			return err
		}
		if woken != nil {
			k.Action.Set(sched.ChooseSpecific, woken)
		}
		return nil
	}

	ep, ok := obj.Payload.(*ipc.Endpoint)
	if !ok {
		return kernelerrors.ErrObjectNotFound
	}
	switchTo, err := ep.Send(caller, true, true)
	if err != nil {
		return err
	}
	if switchTo != nil {
		k.Action.Set(sched.ChooseSpecific, switchTo)
	}
	return nil
}

// exchangeIpcReceive runs the receive phase against the object at
// addr: recv() for a Notification, the blocking receive primitive for
// a Message endpoint, arming a timeout timer if the caller blocks and
// requested one.
func (k *Kernel) exchangeIpcReceive(caller *thread.TCB, addr uintptr, rawTimeout uint16, resp *dispatch.ExchangeIpcResponse) error {
	obj := k.Objects.Lookup(addr)
	if obj == nil {
		return kernelerrors.ErrObjectNotFound
	}

	if obj.Type == object.NotificationObject {
		n, ok := obj.Payload.(*notify.Notification)
		if !ok {
			return kernelerrors.ErrObjectNotFound
		}
		wasActive := n.State == notify.Active
		if err := n.Recv(caller, true); err != nil {
			return err
		}
		if !wasActive {
			timeout := ipc.Timeout(rawTimeout)
			if timeout.Blocking() && timeout != ipc.Never {
				k.armNotifyTimeout(caller, timeout, addr)
			}
		}
		return nil
	}

	ep, ok := obj.Payload.(*ipc.Endpoint)
	if !ok {
		return kernelerrors.ErrObjectNotFound
	}
	sender, err := ep.Receive(caller, true)
	if err != nil {
		return err
	}
	if sender != nil {
		resp.FromActual = sender.ID
		k.Action.Set(sched.ChooseSpecific, sender)
		return nil
	}

	timeout := ipc.Timeout(rawTimeout)
	if timeout.Blocking() && timeout != ipc.Never {
		k.armIPCTimeout(caller, timeout, addr)
	}
	return nil
}

// armIPCTimeout schedules a one-shot wheel entry that marks t Restart
// with IPC_TIMEOUT|RECV_PHASE if it is still blocked on epAddr when
// the timer fires (§4.3 "Timeouts").
func (k *Kernel) armIPCTimeout(t *thread.TCB, timeout ipc.Timeout, epAddr uintptr) {
	id := t.ID
	k.Wheel.Add(id, func(any) int64 {
		k.mu.Lock()
		defer k.mu.Unlock()
		tt, ok := k.Threads[id]
		if !ok || !tt.State.Has(thread.RecvBlocked) || tt.StateObjectAddr != epAddr {
			return 0
		}
		tcr := k.Registers.For(id)
		tcr.Set(kernelerrors.IPCTimeout, kernelerrors.RecvPhase)
		if ep := k.endpoint(epAddr); ep != nil {
			_ = ep.Cancel(tt)
		}
		k.Ready.EnqueueTail(tt)
		return 0
	}, nil, int64(timeout.Ticks()))
}

// armNotifyTimeout mirrors armIPCTimeout for a blocking recv() against
// a Notification object: marks t Restart with IPC_TIMEOUT|RECV_PHASE
// if it is still waiting on addr when the timer fires.
func (k *Kernel) armNotifyTimeout(t *thread.TCB, timeout ipc.Timeout, addr uintptr) {
	id := t.ID
	k.Wheel.Add(id, func(any) int64 {
		k.mu.Lock()
		defer k.mu.Unlock()
		tt, ok := k.Threads[id]
		if !ok || !tt.State.Has(thread.NotBlocked) || tt.StateObjectAddr != addr {
			return 0
		}
		tcr := k.Registers.For(id)
		tcr.Set(kernelerrors.IPCTimeout, kernelerrors.RecvPhase)
		if n := k.notification(addr); n != nil {
			_ = n.Cancel(tt)
		}
		k.Ready.EnqueueTail(tt)
		return 0
	}, nil, int64(timeout.Ticks()))
}
