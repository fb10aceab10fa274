package kernel

import (
	"time"

	"wellkernel/arch"
	"wellkernel/config"
	kernelerrors "wellkernel/errors"
	"wellkernel/thread"
)

// SystemClock implements the SystemClock syscall (§6): return
// sys_clock_hw_cycles_per_sec(), here the simulated tick rate.
func (k *Kernel) SystemClock() int64 {
	return arch.TicksPerSecond
}

// SpaceControl implements the SpaceControl syscall (§6): a privileged
// no-op stub in this core, address-space partition management being
// out of scope beyond what ThreadControl and UnmapPage already cover.
func (k *Kernel) SpaceControl() error {
	return nil
}

// ProcessorControl implements the ProcessorControl syscall (§6): a
// privileged no-op stub, standing in for the real clock-gating/power
// management surface this core doesn't model.
func (k *Kernel) ProcessorControl() error {
	return nil
}

// UnmapPage implements the UnmapPage syscall (§6): release the
// caller's partitions, detaching it from its Page without destroying
// the Page itself (other threads may still reference it).
func (k *Kernel) UnmapPage(caller *thread.TCB) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if caller.PageTableAddr == 0 {
		return kernelerrors.New(kernelerrors.InvalSpace, "unmap_page", "thread owns no partition set")
	}
	caller.PageTableAddr = 0
	return nil
}

// Snapshot captures a point-in-time debug dump of the kernel's
// thread-visible state, consumed by the CLI's state command. It never
// feeds back into kernel state (§6 "Persisted state: None").
func (k *Kernel) Snapshot() *config.Snapshot {
	k.mu.Lock()
	defer k.mu.Unlock()

	ts := make([]config.ThreadSnapshot, 0, len(k.Threads))
	for id, t := range k.Threads {
		ts = append(ts, config.ThreadSnapshot{
			ID:       uint32(id),
			Name:     t.Name,
			State:    t.State.String(),
			Priority: t.Priority,
			Domain:   t.Domain,
		})
	}
	return &config.Snapshot{
		Taken:             time.Now(),
		Tick:              k.Tick,
		CurrentDomain:     k.Domain.CurrentDomain,
		CurrentDomainTime: k.Domain.CurrentDomainTime,
		Threads:           ts,
	}
}
