package notify

import (
	"testing"

	"wellkernel/thread"
)

func mkThread(id uint32) *thread.TCB {
	return thread.New(thread.NewID(id, 0), "t")
}

func TestNotification_SignalWithNoWaitersGoesActive(t *testing.T) {
	n := New(0x200)

	woken, err := n.Signal()
	if err != nil {
		t.Fatalf("Signal() failed: %v", err)
	}
	if woken != nil {
		t.Error("Signal with no waiters should not wake anyone")
	}
	if n.State != Active {
		t.Errorf("state = %v, want Active", n.State)
	}
}

func TestNotification_RecvConsumesActiveImmediately(t *testing.T) {
	n := New(0x200)
	n.Signal()

	r := mkThread(1)
	if err := n.Recv(r, true); err != nil {
		t.Fatalf("Recv() failed: %v", err)
	}
	if n.State != Idle {
		t.Errorf("state = %v, want Idle after consuming", n.State)
	}
	if r.State.Has(thread.NotBlocked) {
		t.Error("receiver should not block when signal was already Active")
	}
}

func TestNotification_RecvBlocksWhenIdle(t *testing.T) {
	n := New(0x200)
	r := mkThread(1)

	if err := n.Recv(r, true); err != nil {
		t.Fatalf("Recv() failed: %v", err)
	}
	if !r.State.Has(thread.NotBlocked) {
		t.Error("receiver should be NotBlocked")
	}
	if n.State != Waiting {
		t.Errorf("state = %v, want Waiting", n.State)
	}
}

func TestNotification_RecvNonBlockingNoOpWhenIdle(t *testing.T) {
	n := New(0x200)
	r := mkThread(1)

	if err := n.Recv(r, false); err != nil {
		t.Fatalf("Recv() failed: %v", err)
	}
	if r.State.Has(thread.NotBlocked) {
		t.Error("non-blocking recv should not block the caller")
	}
	if n.State != Idle {
		t.Errorf("state = %v, want Idle", n.State)
	}
}

func TestNotification_SignalWakesQueuedWaiter(t *testing.T) {
	n := New(0x200)
	r := mkThread(1)
	n.Recv(r, true)

	woken, err := n.Signal()
	if err != nil {
		t.Fatalf("Signal() failed: %v", err)
	}
	if woken != r {
		t.Error("Signal should wake the queued waiter")
	}
	if !r.State.Has(thread.Queued) {
		t.Error("woken waiter should be Queued")
	}
	if n.State != Idle {
		t.Errorf("state = %v, want Idle after waking the only waiter", n.State)
	}
}

func TestNotification_SignalPrefersBoundRecvBlockedThread(t *testing.T) {
	n := New(0x200)
	bound := mkThread(1)
	bound.SetState(thread.RecvBlocked)
	n.Bind(bound)

	queued := mkThread(2)
	n.Recv(queued, true)

	woken, err := n.Signal()
	if err != nil {
		t.Fatalf("Signal() failed: %v", err)
	}
	if woken != bound {
		t.Error("Signal should prefer the bound RecvBlocked thread over the queue")
	}
}

func TestNotification_Cancel(t *testing.T) {
	n := New(0x200)
	r := mkThread(1)
	n.Recv(r, true)

	if err := n.Cancel(r); err != nil {
		t.Fatalf("Cancel() failed: %v", err)
	}
	if !r.State.Has(thread.Restart) {
		t.Error("canceled waiter should be Restart")
	}
	if n.State != Idle {
		t.Errorf("state = %v, want Idle after canceling the last waiter", n.State)
	}
}

func TestNotification_CancelRejectsUnblockedThread(t *testing.T) {
	n := New(0x200)
	r := mkThread(1)

	if err := n.Cancel(r); err == nil {
		t.Error("expected error canceling a thread that is not blocked")
	}
}

func TestNotification_UnbindClearsBoundThread(t *testing.T) {
	n := New(0x200)
	bound := mkThread(1)
	n.Bind(bound)
	n.Unbind()

	if n.BoundThread != nil {
		t.Error("Unbind should clear BoundThread")
	}
}

func TestNotification_BindTakesStewardshipOfSchedContext(t *testing.T) {
	n := New(0x200)
	bound := mkThread(1)
	bound.SchedContextAddr = 0x900

	n.Bind(bound)

	if bound.SchedContextAddr != 0 {
		t.Error("Bind should take the bound thread's scheduling context away")
	}
	if n.BoundSC != 0x900 {
		t.Errorf("BoundSC = %#x, want the donated context", n.BoundSC)
	}
}

func TestNotification_SignalRestoresDonatedSchedContext(t *testing.T) {
	n := New(0x200)
	bound := mkThread(1)
	bound.SchedContextAddr = 0x900
	n.Bind(bound)
	bound.SetState(thread.RecvBlocked)

	woken, err := n.Signal()
	if err != nil {
		t.Fatalf("Signal() failed: %v", err)
	}
	if woken != bound {
		t.Fatal("Signal should deliver to the bound RecvBlocked thread")
	}
	if bound.SchedContextAddr != 0x900 {
		t.Errorf("bound.SchedContextAddr = %#x, want the donated context restored", bound.SchedContextAddr)
	}
	if n.BoundSC != 0 {
		t.Error("BoundSC should be cleared once delivered back to the bound thread")
	}
}

func TestNotification_UnbindRestoresUndeliveredSchedContext(t *testing.T) {
	n := New(0x200)
	bound := mkThread(1)
	bound.SchedContextAddr = 0x900
	n.Bind(bound)

	n.Unbind()

	if bound.SchedContextAddr != 0x900 {
		t.Errorf("bound.SchedContextAddr = %#x, want the donated context restored on unbind", bound.SchedContextAddr)
	}
}

func TestNotification_PrepareDeleteRestoresDonatedSchedContext(t *testing.T) {
	n := New(0x200)
	bound := mkThread(1)
	bound.SchedContextAddr = 0x900
	bound.NotificationAddr = n.Addr
	n.Bind(bound)

	n.PrepareDelete()

	if bound.SchedContextAddr != 0x900 {
		t.Errorf("bound.SchedContextAddr = %#x, want the donated context restored on delete", bound.SchedContextAddr)
	}
	if bound.NotificationAddr != 0 {
		t.Error("PrepareDelete should clear the bound thread's NotificationAddr")
	}
}
