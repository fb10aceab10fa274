package ipc

import (
	"wellkernel/config"
	kernelerrors "wellkernel/errors"
	"wellkernel/thread"
)

// EndpointState is the message endpoint's state machine position.
type EndpointState int

const (
	// Idle means the endpoint's queue is empty.
	Idle EndpointState = iota
	// Send means the queue holds senders waiting for a receiver.
	Send
	// Recv means the queue holds receivers waiting for a sender.
	Recv
)

// Endpoint is a synchronous message endpoint: a state tag plus a
// FIFO queue of blocked threads, threaded through the thread
// package's intrusive Msg links.
type Endpoint struct {
	Addr  uintptr
	State EndpointState

	head, tail *thread.TCB
}

// NewEndpoint creates an Idle endpoint at the given object address.
func NewEndpoint(addr uintptr) *Endpoint {
	return &Endpoint{Addr: addr, State: Idle}
}

func (ep *Endpoint) empty() bool { return ep.head == nil }

func (ep *Endpoint) enqueue(t *thread.TCB) {
	if ep.tail == nil {
		ep.head, ep.tail = t, t
		t.LinkMsg(nil, nil)
		return
	}
	t.LinkMsg(ep.tail, nil)
	ep.tail.MsgNext = t
	ep.tail = t
}

func (ep *Endpoint) dequeue() *thread.TCB {
	t := ep.head
	if t == nil {
		return nil
	}
	ep.head = t.MsgNext
	if ep.head != nil {
		ep.head.MsgPrev = nil
	} else {
		ep.tail = nil
	}
	t.Unlink()
	return t
}

func (ep *Endpoint) remove(t *thread.TCB) {
	if t.MsgPrev != nil {
		t.MsgPrev.MsgNext = t.MsgNext
	} else if ep.head == t {
		ep.head = t.MsgNext
	}
	if t.MsgNext != nil {
		t.MsgNext.MsgPrev = t.MsgPrev
	} else if ep.tail == t {
		ep.tail = t.MsgPrev
	}
	t.Unlink()
}

// CopyMessage copies MR[0] plus the untyped words from sender to
// receiver, and reports the typed-item words verbatim for the caller
// to parse and apply (Map/Grant touch the MPU package, String the
// page table, CtrlXfer the trap frame — all outside ipc's purview).
// If the tag's total length exceeds MessageRegisterNum, both parties
// are reported for IPC_MSG_OVERFLOW and no copy happens.
func CopyMessage(sender, receiver *thread.TCB) (typedWords []uint64, err error) {
	tag := UnpackTag(sender.MR[0])
	if tag.Len() > config.MessageRegisterNum {
		return nil, kernelerrors.New(kernelerrors.IPCMsgOverflow, "copy_message", "message exceeds register capacity")
	}

	receiver.MR[0] = sender.MR[0]
	for i := 1; i <= tag.Untyped; i++ {
		receiver.MR[i] = sender.MR[i]
	}

	if tag.Typed == 0 {
		return nil, nil
	}
	typedWords = make([]uint64, tag.Typed)
	copy(typedWords, sender.MR[1+tag.Untyped:1+tag.Untyped+tag.Typed])
	return typedWords, nil
}

// Send implements send_ipc: s is the sender, blocking/canDonate are
// the call-site flags, and switchTo reports the thread that should
// become the candidate for a possible switch (the woken receiver),
// or nil if none.
func (ep *Endpoint) Send(s *thread.TCB, blocking, canDonate bool) (switchTo *thread.TCB, err error) {
	switch ep.State {
	case Idle, Send:
		if !blocking {
			return nil, nil
		}
		if err := s.SetState(thread.SendBlocked); err != nil {
			return nil, err
		}
		s.StateObjectKind = thread.MessageEndpoint
		s.StateObjectAddr = ep.Addr
		ep.enqueue(s)
		ep.State = Send
		return nil, nil

	case Recv:
		r := ep.dequeue()
		if ep.empty() {
			ep.State = Idle
		}
		if _, err := CopyMessage(s, r); err != nil {
			if serr := s.SetState(thread.Restart); serr != nil {
				return nil, serr
			}
			if rerr := r.SetState(thread.Restart); rerr != nil {
				return nil, rerr
			}
			return nil, err
		}
		if canDonate && r.SchedContextAddr == 0 {
			r.SchedContextAddr = s.SchedContextAddr
		}
		r.ClearStateObject()
		if err := r.SetState(thread.Queued); err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, kernelerrors.New(kernelerrors.InvalPara, "send_ipc", "endpoint in unknown state")
}

// Receive implements receive_ipc (the notification-Active fast path
// is handled by the caller before reaching here, since it needs the
// notify package's state).
func (ep *Endpoint) Receive(r *thread.TCB, blocking bool) (switchTo *thread.TCB, err error) {
	switch ep.State {
	case Idle, Recv:
		if !blocking {
			return nil, nil
		}
		if err := r.SetState(thread.RecvBlocked); err != nil {
			return nil, err
		}
		r.StateObjectKind = thread.MessageEndpoint
		r.StateObjectAddr = ep.Addr
		ep.enqueue(r)
		ep.State = Recv
		return nil, nil

	case Send:
		s := ep.dequeue()
		if ep.empty() {
			ep.State = Idle
		}
		if _, err := CopyMessage(s, r); err != nil {
			if serr := s.SetState(thread.Restart); serr != nil {
				return nil, serr
			}
			if rerr := r.SetState(thread.Restart); rerr != nil {
				return nil, rerr
			}
			return nil, err
		}
		s.ClearStateObject()
		if err := s.SetState(thread.Queued); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, kernelerrors.New(kernelerrors.InvalPara, "receive_ipc", "endpoint in unknown state")
}

// Cancel implements cancel_ipc for the message-endpoint case: remove
// t from whichever queue it is on, retire the endpoint to Idle if it
// was the last waiter, and mark t Restart.
func (ep *Endpoint) Cancel(t *thread.TCB) error {
	if !t.State.Any(thread.SendBlocked | thread.RecvBlocked) {
		return kernelerrors.ErrThreadNotBlocked
	}
	ep.remove(t)
	if ep.empty() {
		ep.State = Idle
	}
	t.ClearStateObject()
	return t.SetState(thread.Restart)
}

// PrepareDelete implements object.PrepareDelete: every thread still
// queued on this endpoint is canceled and marked Restart before the
// endpoint's table entry is removed, so revocation never leaves a
// dangling blocked thread (§4.5 "IPC queues drained").
func (ep *Endpoint) PrepareDelete() {
	for cur := ep.head; cur != nil; {
		next := cur.MsgNext
		cur.ClearStateObject()
		_ = cur.SetState(thread.Restart)
		cur = next
	}
	ep.head, ep.tail = nil, nil
	ep.State = Idle
}

// Reorder implements reorder_message_node: remove and re-insert t at
// its new priority-ordered position, called by the kernel's Schedule
// syscall after sched.SetPriority changes a blocked thread's priority.
func (ep *Endpoint) Reorder(t *thread.TCB) {
	ep.remove(t)
	var cur *thread.TCB
	for cur = ep.head; cur != nil; cur = cur.MsgNext {
		if cur.Priority < t.Priority {
			break
		}
	}
	if cur == nil {
		ep.enqueue(t)
		return
	}
	t.LinkMsg(cur.MsgPrev, cur)
	if cur.MsgPrev != nil {
		cur.MsgPrev.MsgNext = t
	} else {
		ep.head = t
	}
	cur.MsgPrev = t
}
