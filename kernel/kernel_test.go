package kernel

import (
	"testing"

	"wellkernel/config"
	"wellkernel/dispatch"
	kernelerrors "wellkernel/errors"
	"wellkernel/ipc"
	"wellkernel/notify"
	"wellkernel/sched"
	"wellkernel/thread"
)

// testBoot returns a single-domain boot config with a slice long
// enough that domain rotation never fires within one test's tick
// budget, so scheduler-action assertions aren't muddied by a
// concurrent domain switch. TestDomainRotation_* builds its own Boot
// with short slices instead of sharing this one.
func testBoot() *config.Boot {
	return &config.Boot{
		DomainSchedule: []config.DomainSlice{
			{Domain: 0, LengthTicks: 10_000},
		},
		Threads: []config.ThreadSpec{
			{Name: "worker", Priority: 10, MCP: 10, Domain: 0, Period: 1000, Budget: 100},
		},
	}
}

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	k, err := New(testBoot())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return k
}

func workerThread(k *Kernel) *thread.TCB {
	for id, tcb := range k.Threads {
		if id.Number() == thread.FirstUserThread {
			return tcb
		}
	}
	return nil
}

// Scenario 1 (§8): budget exhaustion on a HARD thread routes the
// scheduler action to the Health Monitor privilege thread and leaves
// the exhausting thread Restart.
func TestBudgetExhaustion_HardThreadFaultsHealthMonitor(t *testing.T) {
	k := newTestKernel(t)
	w := workerThread(k)
	w.Level = thread.Hard

	k.mu.Lock()
	k.Current = w
	k.mu.Unlock()

	// budget is 100 ticks; the fault must land well within 200, and
	// switchToLocked moves Current off w to the Health thread the
	// instant the fault resolves, so check right at that tick rather
	// than after further ticks blur the scheduler-action snapshot.
	faulted := false
	for i := 0; i < 200 && !faulted; i++ {
		k.tickLocked()
		faulted = k.Current == k.Health
	}
	if !faulted {
		t.Fatal("Health Monitor thread never became current within 200 ticks")
	}

	if !w.State.Has(thread.Restart) {
		t.Errorf("exhausted HARD thread should be marked Restart, got state %v", w.State)
	}
	tcr := k.Registers.For(w.ID)
	if tcr.Kind != kernelerrors.InvalSched {
		t.Errorf("TCR kind = %v, want InvalSched", tcr.Kind)
	}
}

// Scenario 2 (§8): a synchronous call from a lower-priority sender to
// an already-RecvBlocked higher-priority receiver copies the message
// and makes the receiver the switch candidate.
func TestExchangeIpc_SynchronousCall(t *testing.T) {
	k := newTestKernel(t)

	epAddr := k.NewEndpoint()

	sender := workerThread(k)
	sender.Priority = 10

	k.mu.Lock()
	receiver := thread.New(thread.NewID(thread.FirstUserThread+50, 0), "receiver")
	receiver.Priority = 20
	receiver.MCP = 20
	k.Threads[receiver.ID] = receiver
	ep := k.endpoint(epAddr)
	if ep == nil {
		t.Fatal("endpoint lookup failed")
	}
	if _, err := ep.Receive(receiver, true); err != nil {
		t.Fatalf("Receive() failed: %v", err)
	}
	k.mu.Unlock()

	sender.MR[0] = packTag(0, 0, 2, 0)
	sender.MR[1] = 0xDEAD
	sender.MR[2] = 0xBEEF

	resp, err := k.ExchangeIpc(sender, dispatch.ExchangeIpcRequest{To: epAddr})
	if err != nil {
		t.Fatalf("ExchangeIpc() failed: %v", err)
	}
	_ = resp

	if ep.State != ipc.Idle {
		t.Errorf("endpoint state = %v, want Idle after the rendezvous drains it", ep.State)
	}
	if receiver.MR[0] != sender.MR[0] || receiver.MR[1] != 0xDEAD || receiver.MR[2] != 0xBEEF {
		t.Errorf("receiver did not observe the sender's message: MR=%v", receiver.MR[:3])
	}
	if !receiver.State.Has(thread.Queued) {
		t.Error("receiver should be Queued after the rendezvous")
	}
	if k.Current != receiver {
		t.Error("ExchangeIpc's possibly_switch should hand off to the woken receiver synchronously, not wait for the next tick")
	}
}

// packTag mirrors ipc.Tag.Pack, kept local so the test documents the
// wire layout it exercises without importing the type it's building.
func packTag(label uint64, flags uint8, untyped, typed int) uint64 {
	return (label << 20) | (uint64(flags&0xf) << 16) | (uint64(untyped&0xff) << 8) | uint64(typed&0xff)
}

// Scenario 6 (§8): the domain dispatcher alternates every slice, and
// next_thread never sees a thread parked in the other domain.
func TestDomainRotation_AlternatesAndHidesOtherDomainThreads(t *testing.T) {
	boot := &config.Boot{
		DomainSchedule: []config.DomainSlice{
			{Domain: 0, LengthTicks: 5},
			{Domain: 1, LengthTicks: 5},
		},
		Threads: []config.ThreadSpec{
			{Name: "worker", Priority: 10, MCP: 10, Domain: 0, Period: 1000, Budget: 100},
		},
	}
	k, err := New(boot)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	k.mu.Lock()
	other := thread.New(thread.NewID(thread.FirstUserThread+99, 0), "domain1-thread")
	other.Domain = 1
	other.Priority = 5
	k.Threads[other.ID] = other
	_ = other.SetState(thread.Queued)
	k.Ready.EnqueueTail(other)
	k.mu.Unlock()

	if k.Domain.CurrentDomain != 0 {
		t.Fatalf("initial domain = %d, want 0", k.Domain.CurrentDomain)
	}

	for i := 0; i < 5; i++ {
		k.tickLocked()
	}
	if k.Domain.CurrentDomain != 1 {
		t.Fatalf("domain after one slice = %d, want 1", k.Domain.CurrentDomain)
	}
	// The rotation tick already ran next_thread for domain 1 and
	// dispatched its result.
	if k.Current != other {
		t.Errorf("current after rotating to domain 1 = %v, want the domain-1 thread", k.Current.Name)
	}
	if next := sched.NextThread(k.Ready, 0, k.Idle, k.Idle, true); next == other {
		t.Error("next_thread must never return a thread from a domain that isn't current")
	}

	for i := 0; i < 5; i++ {
		k.tickLocked()
	}
	if k.Domain.CurrentDomain != 0 {
		t.Fatalf("domain after two slices = %d, want 0 (wrapped)", k.Domain.CurrentDomain)
	}
}

// ThreadControl create/delete round-trip (§6 "ThreadControl").
func TestThreadControl_CreateThenDelete(t *testing.T) {
	k := newTestKernel(t)
	pager := workerThread(k)

	dest := thread.NewID(thread.FirstUserThread+77, 0)
	if err := k.ThreadControl(dispatch.ThreadControlRequest{
		Dest:  dest,
		Op:    dispatch.OpCreate,
		Pager: pager.ID,
	}); err != nil {
		t.Fatalf("ThreadControl(create) failed: %v", err)
	}

	k.mu.Lock()
	created, ok := k.Threads[dest]
	k.mu.Unlock()
	if !ok {
		t.Fatal("created thread missing from table")
	}
	if !created.State.Has(thread.Restart) {
		t.Error("newly created thread should start Restart")
	}

	if err := k.ThreadControl(dispatch.ThreadControlRequest{Dest: dest, Op: dispatch.OpDelete}); err != nil {
		t.Fatalf("ThreadControl(delete) failed: %v", err)
	}
	k.mu.Lock()
	_, stillThere := k.Threads[dest]
	k.mu.Unlock()
	if stillThere {
		t.Error("deleted thread should be gone from the table")
	}
}

// Schedule (§6) rejects an out-of-range priority without mutating state.
func TestSchedule_RejectsOutOfRangePriority(t *testing.T) {
	k := newTestKernel(t)
	w := workerThread(k)
	before := w.Priority

	err := k.Schedule(dispatch.ScheduleRequest{
		Dest:     w.ID,
		Priority: config.NumPriorities,
		MCP:      w.MCP,
		Domain:   w.Domain,
	})
	if err == nil {
		t.Fatal("Schedule() should reject an out-of-range priority")
	}
	if w.Priority != before {
		t.Error("rejected Schedule() must not mutate thread state")
	}
}

// Scenario 4 (§8): signal() on a notification whose bound thread is
// RecvBlocked elsewhere delivers directly, restoring the scheduling
// context Bind() took stewardship of and waking the thread, all
// driven through the real ThreadControl/ExchangeIpc syscall surface
// rather than by poking TCB fields directly.
func TestNotificationBinding_SignalDonatesSCAndWakesBoundThread(t *testing.T) {
	k := newTestKernel(t)
	signaler := workerThread(k)
	signaler.Priority = 10

	notifAddr := k.NewNotification()
	unrelatedEp := k.NewEndpoint()

	k.mu.Lock()
	b := thread.New(thread.NewID(thread.FirstUserThread+60, 0), "b")
	b.Priority = 15
	b.MCP = 15
	k.Threads[b.ID] = b
	sc, err := k.newSC(100, 1000, config.NumSchedRefills)
	if err != nil {
		k.mu.Unlock()
		t.Fatalf("newSC() failed: %v", err)
	}
	b.SchedContextAddr = sc.Addr
	k.mu.Unlock()

	if err := k.ThreadControl(dispatch.ThreadControlRequest{
		Dest:         b.ID,
		Op:           dispatch.OpBindNotification,
		Notification: notifAddr,
	}); err != nil {
		t.Fatalf("ThreadControl(bind) failed: %v", err)
	}

	k.mu.Lock()
	if b.SchedContextAddr != 0 {
		t.Error("Bind() should take stewardship of b's scheduling context")
	}
	n := k.notification(notifAddr)
	if n == nil || n.BoundSC != sc.Addr {
		t.Fatalf("notification should hold b's donated scheduling context, got %+v", n)
	}

	ep := k.endpoint(unrelatedEp)
	if ep == nil {
		t.Fatal("unrelated endpoint lookup failed")
	}
	if _, err := ep.Receive(b, true); err != nil {
		k.mu.Unlock()
		t.Fatalf("Receive() failed: %v", err)
	}
	if !b.State.Has(thread.RecvBlocked) {
		k.mu.Unlock()
		t.Fatal("b should be RecvBlocked on the unrelated endpoint")
	}
	k.mu.Unlock()

	if _, err := k.ExchangeIpc(signaler, dispatch.ExchangeIpcRequest{To: notifAddr}); err != nil {
		t.Fatalf("ExchangeIpc(signal) failed: %v", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if b.SchedContextAddr != sc.Addr {
		t.Errorf("b.SchedContextAddr = %#x, want donated SC %#x restored", b.SchedContextAddr, sc.Addr)
	}
	if !b.State.Has(thread.Queued) {
		t.Error("b should be Queued after signal() delivers and wakes it")
	}
	if n.State != notify.Idle {
		t.Errorf("notification state = %v, want Idle", n.State)
	}
	if k.Current != b {
		t.Error("ExchangeIpc's possibly_switch should hand off to b synchronously")
	}
}

// Unbinding a notification must hand back any scheduling context
// Bind() took stewardship of, even if signal() never fired.
func TestNotificationUnbind_RestoresDonatedSchedContext(t *testing.T) {
	k := newTestKernel(t)
	notifAddr := k.NewNotification()

	k.mu.Lock()
	b := thread.New(thread.NewID(thread.FirstUserThread+61, 0), "b")
	k.Threads[b.ID] = b
	sc, err := k.newSC(100, 1000, config.NumSchedRefills)
	if err != nil {
		k.mu.Unlock()
		t.Fatalf("newSC() failed: %v", err)
	}
	b.SchedContextAddr = sc.Addr
	k.mu.Unlock()

	if err := k.ThreadControl(dispatch.ThreadControlRequest{
		Dest:         b.ID,
		Op:           dispatch.OpBindNotification,
		Notification: notifAddr,
	}); err != nil {
		t.Fatalf("ThreadControl(bind) failed: %v", err)
	}

	if err := k.ThreadControl(dispatch.ThreadControlRequest{
		Dest: b.ID,
		Op:   dispatch.OpUnbindNotification,
	}); err != nil {
		t.Fatalf("ThreadControl(unbind) failed: %v", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if b.SchedContextAddr != sc.Addr {
		t.Errorf("b.SchedContextAddr = %#x, want donated SC %#x restored on unbind", b.SchedContextAddr, sc.Addr)
	}
	if b.NotificationAddr != 0 {
		t.Error("b should no longer be bound after unbind")
	}
}
