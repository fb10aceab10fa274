// Package sched implements the ready queue, release queue, and domain
// time-slice dispatcher (C2): a bitmap-indexed multi-level priority
// queue per scheduling domain, a linear-scan release queue ordered by
// refill-head time, and the next_thread/should_preempt decision
// logic.
package sched

import (
	"math/bits"

	"wellkernel/config"
	"wellkernel/thread"
)

// wordBits is the width of one L2 bitmap word; L1 carries one bit per
// block of wordBits priorities.
const wordBits = 64

const numL1Blocks = (config.NumPriorities + wordBits - 1) / wordBits

// queueHeadTail is a head/tail pair for one (domain, priority) bucket.
type queueHeadTail struct {
	head, tail *thread.TCB
}

// ReadyQueue is the per-CPU two-level bitmap priority queue over
// NumDomains domains and NumPriorities priorities.
type ReadyQueue struct {
	buckets [config.NumDomains][config.NumPriorities]queueHeadTail
	l1      [config.NumDomains]uint64
	l2      [config.NumDomains][numL1Blocks]uint64
}

// NewReadyQueue returns an empty ready queue.
func NewReadyQueue() *ReadyQueue {
	return &ReadyQueue{}
}

func blockOf(priority int) int  { return priority / wordBits }
func bitOf(priority int) uint64 { return uint64(1) << uint(priority%wordBits) }

// EnqueueTail appends t to the tail of its (domain, priority) bucket,
// setting the L1/L2 bits if the bucket was empty.
func (rq *ReadyQueue) EnqueueTail(t *thread.TCB) {
	rq.enqueue(t, false)
}

// EnqueueHead prepends t to the head of its (domain, priority)
// bucket, setting the L1/L2 bits if the bucket was empty.
func (rq *ReadyQueue) EnqueueHead(t *thread.TCB) {
	rq.enqueue(t, true)
}

func (rq *ReadyQueue) enqueue(t *thread.TCB, atHead bool) {
	d, p := t.Domain, t.Priority
	b := &rq.buckets[d][p]

	wasEmpty := b.head == nil
	if wasEmpty {
		b.head, b.tail = t, t
		t.LinkReady(nil, nil)
	} else if atHead {
		t.LinkReady(nil, b.head)
		b.head.ReadyPrev = t
		b.head = t
	} else {
		t.LinkReady(b.tail, nil)
		b.tail.ReadyNext = t
		b.tail = t
	}

	if wasEmpty {
		rq.l1[d] |= uint64(1) << uint(blockOf(p))
		rq.l2[d][blockOf(p)] |= bitOf(p)
	}
	if err := t.SetState(t.State | thread.Queued); err != nil {
		panic(err)
	}
}

// Dequeue removes t from its (domain, priority) bucket, clearing the
// bitmap bits when the bucket becomes empty.
func (rq *ReadyQueue) Dequeue(t *thread.TCB) {
	d, p := t.Domain, t.Priority
	b := &rq.buckets[d][p]

	if t.ReadyPrev != nil {
		t.ReadyPrev.ReadyNext = t.ReadyNext
	} else {
		b.head = t.ReadyNext
	}
	if t.ReadyNext != nil {
		t.ReadyNext.ReadyPrev = t.ReadyPrev
	} else {
		b.tail = t.ReadyPrev
	}
	t.Unlink()

	if b.head == nil {
		rq.l2[d][blockOf(p)] &^= bitOf(p)
		if rq.l2[d][blockOf(p)] == 0 {
			rq.l1[d] &^= uint64(1) << uint(blockOf(p))
		}
	}
	if err := t.SetState(t.State &^ thread.Queued); err != nil {
		panic(err)
	}
}

// HighestPriority returns the highest priority with a non-empty
// bucket in domain d, and false if the domain's ready queue is empty.
// O(wordBits) via leading-zero counts over L1 then L2, mirroring the
// source's count-leading-zeros index walk.
func (rq *ReadyQueue) HighestPriority(d int) (int, bool) {
	l1 := rq.l1[d]
	if l1 == 0 {
		return 0, false
	}
	block := bits.Len64(l1) - 1
	l2 := rq.l2[d][block]
	if l2 == 0 {
		return 0, false
	}
	local := bits.Len64(l2) - 1
	return block*wordBits + local, true
}

// Head returns the head of the (domain, priority) bucket, or nil.
func (rq *ReadyQueue) Head(d, p int) *thread.TCB {
	return rq.buckets[d][p].head
}

// Empty reports whether domain d's ready queue has no runnable
// threads at all.
func (rq *ReadyQueue) Empty(d int) bool {
	return rq.l1[d] == 0
}
