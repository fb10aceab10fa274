package refill

import "wellkernel/config"

// Update collapses the buffer to a single refill at the current
// earliest-usable time, reporting new_budget as its amount. If
// new_budget exceeds the ticks already promised by the (pre-update)
// head, the remainder is scheduled one new_period later, matching
// the source's two-refill overflow handling. Round-robin contexts
// (new_period == 0) always end with exactly two refills.
func (b *Buffer) Update(newPeriod, newBudget int64, newMax int) {
	headTime := b.Head().Time
	headAmount := b.Head().Amount

	b.Period = newPeriod
	if newMax >= 1 && newMax <= config.NumSchedRefills {
		b.max = newMax
	}

	var es []Entry
	if newBudget <= headAmount {
		es = []Entry{{Time: headTime, Amount: newBudget}}
	} else {
		remainder := newBudget - headAmount
		es = []Entry{
			{Time: headTime, Amount: headAmount},
			{Time: headTime + newPeriod, Amount: remainder},
		}
	}
	if newPeriod == 0 && len(es) == 1 {
		es = append(es, Entry{Time: headTime, Amount: 0})
	}
	b.setEntries(es)
}

// mergeAdjacentFull collapses the last two refills into one when the
// buffer is at capacity, so a pending push always has room.
func (b *Buffer) mergeAdjacentFull() {
	if b.size < b.max {
		return
	}
	es := b.entries()
	n := len(es)
	merged := Entry{Time: es[n-2].Time, Amount: es[n-2].Amount + es[n-1].Amount}
	es = append(es[:n-2], merged)
	b.setEntries(es)
}

// mergeSmallHead folds the head into the next refill whenever the
// head would otherwise carry less than MinBudget, keeping I5's
// "refill_head.amount ≥ MIN_BUDGET" invariant.
func (b *Buffer) mergeSmallHead() {
	for b.size > 1 && b.Head().Amount < config.MinBudget {
		es := b.entries()
		merged := Entry{Time: es[0].Time, Amount: es[0].Amount + es[1].Amount}
		es = append([]Entry{merged}, es[2:]...)
		b.setEntries(es)
	}
}

// BudgetCheck is called when used >= capacity: whole refills that
// have been entirely consumed are shifted forward by one period
// (rescheduled as future availability) rather than discarded. Any
// leftover overrun delays the head's earliest-usable time rather than
// shrinking its amount, so Σ refill_amount stays constant (I2); if
// that delay pushes the head past the next refill's time the two are
// merged. On exit the head carries at least MinBudget and the buffer
// is below capacity, merging as needed either condition would
// otherwise be violated.
func (b *Buffer) BudgetCheck(used int64) {
	for b.size > 0 && used >= b.Head().Amount {
		head := b.popHead()
		used -= head.Amount
		rescheduled := Entry{Time: head.Time + b.Period, Amount: head.Amount}
		if b.size >= b.max {
			b.mergeAdjacentFull()
		}
		b.pushTail(rescheduled)
	}
	if used > 0 && b.size > 0 {
		h := b.Head()
		h.Time += used
		b.setHead(h)

		if b.size > 1 {
			next := b.At(1)
			if h.Time+h.Amount >= next.Time {
				old := b.popHead()
				merged := Entry{Time: old.Time, Amount: b.Head().Amount + old.Amount}
				b.setHead(merged)
			}
		}
	}
	b.mergeSmallHead()
	b.mergeAdjacentFull()
}

// SplitCheck is called with 0 < used < head.Amount: the head splits
// into a remnant (still usable now) and a used-portion rescheduled
// one period into the future. If the remnant would fall below
// MinBudget, or there is no room for another refill, the whole head
// is shifted forward unsplit instead (same as the full-consumption
// path in BudgetCheck).
func (b *Buffer) SplitCheck(used int64) {
	head := b.Head()
	remnant := head.Amount - used
	if remnant < config.MinBudget || b.size >= b.max {
		b.popHead()
		rescheduled := Entry{Time: head.Time + b.Period, Amount: head.Amount}
		if b.size >= b.max {
			b.mergeAdjacentFull()
		}
		b.pushTail(rescheduled)
		b.mergeSmallHead()
		return
	}
	b.setHead(Entry{Time: head.Time, Amount: remnant})
	b.pushTail(Entry{Time: head.Time + b.Period, Amount: used})
}

// NoblockCheck is called on activation: if the head is already usable
// relative to now, pull it forward to now and merge in any later
// refill whose window has already started relative to how far the
// current (possibly already-merged) head amount extends, not merely
// whose own time has arrived, so a thread that was idle doesn't pay
// for unused budget windows that have since passed.
func (b *Buffer) NoblockCheck(now int64) {
	if b.Head().Time > now {
		return
	}
	h := b.Head()
	h.Time = now
	b.setHead(h)

	for b.size > 1 {
		amount := b.Head().Amount
		if b.At(1).Time > now+amount {
			break
		}
		es := b.entries()
		merged := Entry{Time: now, Amount: es[0].Amount + es[1].Amount}
		es = append([]Entry{merged}, es[2:]...)
		b.setEntries(es)
	}
}
