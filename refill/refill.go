// Package refill implements the sporadic replenishment engine (C5): a
// circular buffer of (earliest_usable_time, amount) refills backing
// each scheduling context, with the budget_check / split_check /
// noblock_check maintenance operations that keep it time-ordered and
// conservation-true.
package refill

import (
	"wellkernel/config"
	kernelerrors "wellkernel/errors"
)

// Entry is one refill: amount ticks of CPU usable no earlier than
// time.
type Entry struct {
	Time   int64
	Amount int64
}

// Buffer is a scheduling context's circular refill buffer, modeled
// the way a ring buffer tracks head/tail indices over a fixed-size
// backing array rather than shifting elements.
type Buffer struct {
	slots      [config.NumSchedRefills]Entry
	head, size int
	max        int

	Period int64
}

// New creates a buffer with one head refill (now, budget). A
// round-robin context (period == 0) additionally gets an empty tail
// refill (now, 0), so RoundRobin() holds immediately.
func New(now, budget, period int64, max int) (*Buffer, error) {
	if max < 1 || max > config.NumSchedRefills {
		return nil, kernelerrors.New(kernelerrors.InvalSched, "refill_new", "max refills out of range")
	}
	b := &Buffer{max: max, Period: period}
	b.slots[0] = Entry{Time: now, Amount: budget}
	b.size = 1
	if period == 0 {
		b.slots[1] = Entry{Time: now, Amount: 0}
		b.size = 2
	}
	return b, nil
}

func (b *Buffer) idx(offset int) int { return (b.head + offset) % b.max }

// Size returns the number of live refills.
func (b *Buffer) Size() int { return b.size }

// Full reports whether the buffer holds as many refills as this
// scheduling context's own configured max, as opposed to the global
// array-capacity constant every SC's buffer is backed by.
func (b *Buffer) Full() bool { return b.size >= b.max }

// RoundRobin reports whether this is a round-robin (period == 0)
// context, which must always carry exactly two refills.
func (b *Buffer) RoundRobin() bool { return b.Period == 0 }

// Head returns the earliest refill.
func (b *Buffer) Head() Entry { return b.slots[b.head] }

// Tail returns the latest refill.
func (b *Buffer) Tail() Entry { return b.slots[b.idx(b.size-1)] }

// At returns the i-th refill in time order (0 = head).
func (b *Buffer) At(i int) Entry { return b.slots[b.idx(i)] }

// setHead overwrites the head refill in place.
func (b *Buffer) setHead(e Entry) { b.slots[b.head] = e }

// popHead removes and returns the head refill.
func (b *Buffer) popHead() Entry {
	e := b.slots[b.head]
	b.head = b.idx(1)
	b.size--
	return e
}

// pushTail appends a refill after the current tail. Caller must have
// verified size < max.
func (b *Buffer) pushTail(e Entry) {
	b.slots[b.idx(b.size)] = e
	b.size++
}

// Budget sums every live refill's amount (I2: this value is constant
// across update/split/budget operations, modulo the explicit
// new/update calls).
func (b *Buffer) Budget() int64 {
	var total int64
	for i := 0; i < b.size; i++ {
		total += b.At(i).Amount
	}
	return total
}

// entries returns every live refill in time order, for operations
// that rewrite the buffer's contents wholesale rather than push/pop
// at an end.
func (b *Buffer) entries() []Entry {
	es := make([]Entry, b.size)
	for i := 0; i < b.size; i++ {
		es[i] = b.At(i)
	}
	return es
}

// setEntries replaces the buffer's contents with es, which must
// already be time-ordered and no longer than max.
func (b *Buffer) setEntries(es []Entry) {
	b.head = 0
	b.size = len(es)
	for i, e := range es {
		b.slots[i] = e
	}
}

// Validate checks the invariants the engine must maintain:
// non-decreasing time order, conservation already captured by construction, and
// the round-robin refill-count invariant.
func (b *Buffer) Validate() error {
	if b.RoundRobin() && b.size != 2 {
		return kernelerrors.New(kernelerrors.InvalSched, "refill_validate",
			"round-robin scheduling context must have exactly two refills")
	}
	for i := 1; i < b.size; i++ {
		if b.At(i).Time < b.At(i-1).Time {
			return kernelerrors.New(kernelerrors.InvalSched, "refill_validate", "refills not time-ordered")
		}
	}
	return nil
}
