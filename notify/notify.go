// Package notify implements the asynchronous notification (signal)
// protocol (C4): a three-state Idle/Waiting/Active state machine with
// optional bound-thread fast delivery, grounded on the rendezvous
// signal/wait idiom the teacher uses for parent/child synchronization.
package notify

import (
	kernelerrors "wellkernel/errors"
	"wellkernel/thread"
)

// State is the notification endpoint's position in its state
// machine.
type State int

const (
	// Idle means no signal is pending and nothing is waiting.
	Idle State = iota
	// Waiting means one or more threads are blocked in recv().
	Waiting
	// Active means a signal was delivered but not yet consumed.
	Active
)

// Notification is an asynchronous signal endpoint with an optional
// bound thread eligible for fast (donating) delivery.
type Notification struct {
	Addr  uintptr
	State State

	head, tail  *thread.TCB
	BoundThread *thread.TCB

	// BoundSC is BoundThread's own scheduling context, donated to this
	// notification at Bind time and restored to BoundThread the next
	// time Signal() delivers to it (§4.4: "a bound thread whose SC was
	// donated to the notification must not be schedulable on its own;
	// donation on delivery restores schedulability").
	BoundSC uintptr
}

// New creates an Idle notification at the given object address.
func New(addr uintptr) *Notification {
	return &Notification{Addr: addr, State: Idle}
}

func (n *Notification) enqueue(t *thread.TCB) {
	if n.tail == nil {
		n.head, n.tail = t, t
		t.LinkMsg(nil, nil)
		return
	}
	t.LinkMsg(n.tail, nil)
	n.tail.MsgNext = t
	n.tail = t
}

func (n *Notification) dequeue() *thread.TCB {
	t := n.head
	if t == nil {
		return nil
	}
	n.head = t.MsgNext
	if n.head != nil {
		n.head.MsgPrev = nil
	} else {
		n.tail = nil
	}
	t.Unlink()
	return t
}

func (n *Notification) remove(t *thread.TCB) {
	if t.MsgPrev != nil {
		t.MsgPrev.MsgNext = t.MsgNext
	} else if n.head == t {
		n.head = t.MsgNext
	}
	if t.MsgNext != nil {
		t.MsgNext.MsgPrev = t.MsgPrev
	} else if n.tail == t {
		n.tail = t.MsgPrev
	}
	t.Unlink()
}

// Signal implements signal(): if the bound thread is RecvBlocked,
// deliver to it directly and donate its scheduling context back
// (restoring the schedulability donation on delivery took away);
// otherwise wake the oldest queued waiter if any, else go Active.
// Returns the thread to switch to, if delivery woke one.
func (n *Notification) Signal() (woken *thread.TCB, err error) {
	if n.BoundThread != nil && n.BoundThread.State.Has(thread.RecvBlocked) {
		t := n.BoundThread
		if n.BoundSC != 0 && t.SchedContextAddr == 0 {
			t.SchedContextAddr = n.BoundSC
			n.BoundSC = 0
		}
		t.ClearStateObject()
		if err := t.SetState(thread.Queued); err != nil {
			return nil, err
		}
		return t, nil
	}

	if n.head != nil {
		t := n.dequeue()
		if n.head == nil {
			n.State = Idle
		}
		t.ClearStateObject()
		if err := t.SetState(thread.Queued); err != nil {
			return nil, err
		}
		return t, nil
	}

	n.State = Active
	return nil, nil
}

// Recv implements recv(): if Active, consume the pending signal
// immediately. Otherwise, if blocking, enqueue the caller and
// transition to Waiting.
func (n *Notification) Recv(r *thread.TCB, blocking bool) error {
	if n.State == Active {
		n.State = Idle
		return nil
	}
	if !blocking {
		return nil
	}
	if err := r.SetState(thread.NotBlocked); err != nil {
		return err
	}
	r.StateObjectKind = thread.NotificationEndpoint
	r.StateObjectAddr = n.Addr
	n.enqueue(r)
	n.State = Waiting
	return nil
}

// Cancel implements cancel_ipc's notification branch: dequeue t,
// retire to Idle if it was the last waiter, and mark it Restart.
func (n *Notification) Cancel(t *thread.TCB) error {
	if !t.State.Has(thread.NotBlocked) {
		return kernelerrors.ErrThreadNotBlocked
	}
	n.remove(t)
	if n.head == nil && n.State == Waiting {
		n.State = Idle
	}
	t.ClearStateObject()
	return t.SetState(thread.Restart)
}

// PrepareDelete implements object.PrepareDelete: every waiter is
// unblocked (marked Restart) and the bound thread, if any, is
// detached before the notification's table entry is removed (§4.5
// "notification waiters unblocked").
func (n *Notification) PrepareDelete() {
	for cur := n.head; cur != nil; {
		next := cur.MsgNext
		cur.ClearStateObject()
		_ = cur.SetState(thread.Restart)
		cur = next
	}
	n.head, n.tail = nil, nil
	n.State = Idle
	if n.BoundThread != nil {
		if n.BoundSC != 0 && n.BoundThread.SchedContextAddr == 0 {
			n.BoundThread.SchedContextAddr = n.BoundSC
		}
		n.BoundThread.NotificationAddr = 0
	}
	n.BoundThread = nil
	n.BoundSC = 0
}

// Bind attaches a thread for fast-path signal delivery. If t still
// owns a scheduling context, binding takes stewardship of it: t
// becomes a passive thread, not independently schedulable, relying on
// a future Signal() to hand the context back (§4.4).
func (n *Notification) Bind(t *thread.TCB) {
	n.BoundThread = t
	if t.SchedContextAddr != 0 {
		n.BoundSC = t.SchedContextAddr
		t.SchedContextAddr = 0
	}
}

// Unbind detaches the bound thread, if any, handing back any
// scheduling context Bind took stewardship of that Signal() hasn't
// already restored.
func (n *Notification) Unbind() {
	if n.BoundThread != nil && n.BoundSC != 0 && n.BoundThread.SchedContextAddr == 0 {
		n.BoundThread.SchedContextAddr = n.BoundSC
	}
	n.BoundThread = nil
	n.BoundSC = 0
}
