package sched

import "wellkernel/thread"

// releaseNode is one entry of the release queue: a ready-but-not-yet-
// replenished thread, ordered by the time its head refill becomes
// usable.
type releaseNode struct {
	t          *thread.TCB
	readyTime  int64
	prev, next *releaseNode
}

// ReleaseQueue is a singly-linked (here doubly, for O(1) removal),
// priority-less list ordered by refill-head usable time.
type ReleaseQueue struct {
	head, tail *releaseNode
	byThread   map[thread.ID]*releaseNode
	// reprogram is raised whenever the head changes, signaling the
	// caller to re-arm the next timer interrupt.
	reprogram bool
}

// NewReleaseQueue returns an empty release queue.
func NewReleaseQueue() *ReleaseQueue {
	return &ReleaseQueue{byThread: make(map[thread.ID]*releaseNode)}
}

// Insert adds t to the release queue at the position given by
// readyTime, via a linear scan (the source's documented approach: the
// release queue is expected to stay short since HARD threads dominate
// it).
func (rq *ReleaseQueue) Insert(t *thread.TCB, readyTime int64) {
	node := &releaseNode{t: t, readyTime: readyTime}
	rq.byThread[t.ID] = node

	if rq.head == nil {
		rq.head, rq.tail = node, node
		rq.reprogram = true
		return
	}

	cur := rq.head
	for cur != nil && cur.readyTime <= readyTime {
		cur = cur.next
	}
	if cur == nil {
		node.prev = rq.tail
		rq.tail.next = node
		rq.tail = node
		return
	}
	node.next = cur
	node.prev = cur.prev
	if cur.prev != nil {
		cur.prev.next = node
	} else {
		rq.head = node
		rq.reprogram = true
	}
	cur.prev = node
}

// Remove takes t off the release queue, if present.
func (rq *ReleaseQueue) Remove(t *thread.TCB) {
	node, ok := rq.byThread[t.ID]
	if !ok {
		return
	}
	delete(rq.byThread, t.ID)

	if node.prev != nil {
		node.prev.next = node.next
	} else {
		rq.head = node.next
		rq.reprogram = true
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		rq.tail = node.prev
	}
}

// Head returns the earliest-ready thread and its ready time, or
// (nil, 0, false) if the queue is empty.
func (rq *ReleaseQueue) Head() (*thread.TCB, int64, bool) {
	if rq.head == nil {
		return nil, 0, false
	}
	return rq.head.t, rq.head.readyTime, true
}

// PopReady removes and returns every node whose readyTime has arrived
// by now, in order.
func (rq *ReleaseQueue) PopReady(now int64) []*thread.TCB {
	var ready []*thread.TCB
	for rq.head != nil && rq.head.readyTime <= now {
		t := rq.head.t
		rq.Remove(t)
		ready = append(ready, t)
	}
	return ready
}

// NeedsReprogram reports and clears the reprogram flag.
func (rq *ReleaseQueue) NeedsReprogram() bool {
	v := rq.reprogram
	rq.reprogram = false
	return v
}
