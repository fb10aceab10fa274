package kernel

import (
	"wellkernel/dispatch"
	kernelerrors "wellkernel/errors"
	"wellkernel/thread"
)

// ExchangeRegisters implements the ExchangeRegisters syscall (§6):
// read/overwrite a subset of the target's registers, optionally halt
// or delete it, and cancel an in-flight send/recv phase.
//
// sp/ip/flags live in a per-TCB tcbFrame kept in CalleeSaved; a
// register the request doesn't ask to read comes back as
// dispatch.Undefined, per the pinned ABI sentinel (Design Notes §9
// open question).
func (k *Kernel) ExchangeRegisters(req dispatch.ExchangeRegistersRequest) (dispatch.ExchangeRegistersResponse, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	resp := dispatch.NewExchangeRegistersResponse()

	err := k.withDispatchEnvelope(k.Current, func() error {
		t, ok := k.Threads[req.Dest]
		if !ok {
			return kernelerrors.ErrThreadNotFound
		}

		if req.Control.CancelSend || req.Control.CancelRecv {
			k.cancelPhase(t, req.Control)
		}

		if req.Control.Halt {
			if err := t.SetState(thread.Suspended); err != nil {
				return err
			}
			k.Ready.Dequeue(t)
		}

		frame, _ := t.CalleeSaved.(*tcbFrame)
		if frame == nil {
			frame = &tcbFrame{}
			t.CalleeSaved = frame
		}

		if req.Control.WriteSP {
			frame.SP = req.SP
		}
		if req.Control.WriteIP {
			frame.IP = req.IP
		}
		if req.Control.WriteFlags {
			frame.Flags = req.Flags
		}

		if req.Control.ReadSP {
			resp.SP = frame.SP
		}
		if req.Control.ReadIP {
			resp.IP = frame.IP
		}
		if req.Control.ReadFlags {
			resp.Flags = frame.Flags
		}

		if req.Control.Delete {
			k.destroyThreadLocked(t)
		}

		return nil
	})

	return resp, err
}

// tcbFrame is the minimal sp/ip/flags slot ExchangeRegisters reads
// and writes; the scheduler's real context switch uses
// arch.TrapFrame directly; this is the subset ExchangeRegisters's ABI
// exposes to a debugger thread.
type tcbFrame struct {
	SP, IP, Flags uint32
}

// cancelPhase implements exchange_registers's S/R control bits:
// cancel t's in-flight send or receive phase, delivering IPC_CANCELED
// to it (§5 "Cancellation").
func (k *Kernel) cancelPhase(t *thread.TCB, ctrl dispatch.ExchangeRegistersControl) {
	switch t.StateObjectKind {
	case thread.MessageEndpoint:
		if (ctrl.CancelSend && t.State.Has(thread.SendBlocked)) ||
			(ctrl.CancelRecv && t.State.Has(thread.RecvBlocked)) {
			if ep := k.endpoint(t.StateObjectAddr); ep != nil {
				_ = ep.Cancel(t)
			}
		}
	case thread.NotificationEndpoint:
		if ctrl.CancelRecv {
			if n := k.notification(t.StateObjectAddr); n != nil {
				_ = n.Cancel(t)
			}
		}
	}
}
