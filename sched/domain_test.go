package sched

import (
	"testing"

	"wellkernel/config"
)

func TestDomainDispatcher_Rotation(t *testing.T) {
	schedule := []config.DomainSlice{
		{Domain: 0, LengthTicks: 2},
		{Domain: 1, LengthTicks: 3},
	}
	d := NewDomainDispatcher(schedule)

	if d.CurrentDomain != 0 || d.CurrentDomainTime != 2 {
		t.Fatalf("initial state = (%d, %d), want (0, 2)", d.CurrentDomain, d.CurrentDomainTime)
	}

	if changed := d.Tick(); changed {
		t.Error("first tick should not change domain")
	}
	if d.CurrentDomainTime != 1 {
		t.Errorf("CurrentDomainTime = %d, want 1", d.CurrentDomainTime)
	}

	if changed := d.Tick(); !changed {
		t.Error("tick exhausting the slice should change domain")
	}
	if d.CurrentDomain != 1 || d.CurrentDomainTime != 3 {
		t.Errorf("after rotation = (%d, %d), want (1, 3)", d.CurrentDomain, d.CurrentDomainTime)
	}
}

func TestDomainDispatcher_WrapsAround(t *testing.T) {
	schedule := []config.DomainSlice{
		{Domain: 0, LengthTicks: 1},
		{Domain: 1, LengthTicks: 1},
	}
	d := NewDomainDispatcher(schedule)

	d.Tick() // -> domain 1
	d.Tick() // -> domain 0 again
	if d.CurrentDomain != 0 {
		t.Errorf("CurrentDomain = %d, want 0 after wraparound", d.CurrentDomain)
	}
}
