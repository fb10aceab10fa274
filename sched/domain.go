package sched

import "wellkernel/config"

// DomainDispatcher advances current_domain round-robin through the
// static domain_schedule table as current_domain_time runs down.
type DomainDispatcher struct {
	schedule []config.DomainSlice
	index    int

	CurrentDomain     int
	CurrentDomainTime int64
}

// NewDomainDispatcher builds a dispatcher over the given schedule,
// starting at entry 0.
func NewDomainDispatcher(schedule []config.DomainSlice) *DomainDispatcher {
	d := &DomainDispatcher{schedule: schedule}
	if len(schedule) > 0 {
		d.CurrentDomain = schedule[0].Domain
		d.CurrentDomainTime = schedule[0].LengthTicks
	}
	return d
}

// Tick advances the domain clock by one tick, rotating to the next
// domain_schedule entry when the current slice is exhausted. Returns
// true if the domain changed, which always forces a reschedule.
func (d *DomainDispatcher) Tick() bool {
	if len(d.schedule) == 0 {
		return false
	}
	d.CurrentDomainTime--
	if d.CurrentDomainTime > 0 {
		return false
	}
	d.index = (d.index + 1) % len(d.schedule)
	entry := d.schedule[d.index]
	d.CurrentDomain = entry.Domain
	d.CurrentDomainTime = entry.LengthTicks
	return true
}
