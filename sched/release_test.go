package sched

import "testing"

func TestReleaseQueue_OrderedInsert(t *testing.T) {
	rq := NewReleaseQueue()
	a := mkThread(1, 0, 5)
	b := mkThread(2, 0, 5)
	c := mkThread(3, 0, 5)

	rq.Insert(a, 100)
	rq.Insert(b, 50)
	rq.Insert(c, 75)

	head, when, ok := rq.Head()
	if !ok || head != b || when != 50 {
		t.Errorf("Head() = (%v, %d, %v), want (b, 50, true)", head, when, ok)
	}
}

func TestReleaseQueue_Remove(t *testing.T) {
	rq := NewReleaseQueue()
	a := mkThread(1, 0, 5)
	b := mkThread(2, 0, 5)

	rq.Insert(a, 10)
	rq.Insert(b, 20)
	rq.Remove(a)

	head, when, ok := rq.Head()
	if !ok || head != b || when != 20 {
		t.Errorf("Head() = (%v, %d, %v), want (b, 20, true)", head, when, ok)
	}
}

func TestReleaseQueue_PopReady(t *testing.T) {
	rq := NewReleaseQueue()
	a := mkThread(1, 0, 5)
	b := mkThread(2, 0, 5)
	c := mkThread(3, 0, 5)

	rq.Insert(a, 10)
	rq.Insert(b, 20)
	rq.Insert(c, 30)

	ready := rq.PopReady(20)
	if len(ready) != 2 || ready[0] != a || ready[1] != b {
		t.Errorf("PopReady(20) = %v, want [a, b]", ready)
	}

	_, _, ok := rq.Head()
	if !ok {
		t.Fatal("c should remain in the queue")
	}
}

func TestReleaseQueue_ReprogramFlag(t *testing.T) {
	rq := NewReleaseQueue()
	a := mkThread(1, 0, 5)

	if rq.NeedsReprogram() {
		t.Error("empty queue should not need reprogram")
	}

	rq.Insert(a, 10)
	if !rq.NeedsReprogram() {
		t.Error("inserting the new head should set reprogram")
	}
	if rq.NeedsReprogram() {
		t.Error("NeedsReprogram should clear the flag after reading")
	}
}
