// Package arch provides the simulated architecture backends behind
// the kernel's externalized Timer, Mpu, and TrapFrame interfaces —
// the same "interface at the hardware boundary, concrete
// implementation behind it" shape the teacher uses for namespace and
// console syscalls, applied to a Cortex-M trap/timer/MPU surface.
package arch

import (
	"time"

	"golang.org/x/sys/unix"
)

// Timer is the trap-layer clock interface the scheduler and timer
// wheel drive through: Init, Elapsed, SetTimeout, CycleGet32,
// ClockISR.
type Timer interface {
	Init()
	Elapsed() int64
	SetTimeout(ticks int64, idle bool)
	CycleGet32() uint32
	ClockISR()
}

// TicksPerSecond is the simulated tick rate.
const TicksPerSecond = 1000

// MonotonicTimer drives ticks off the host's monotonic clock via
// golang.org/x/sys/unix, standing in for a Cortex-M SysTick/RTC
// peripheral.
type MonotonicTimer struct {
	programmedAt time.Time
	timeout      int64
	onISR        func()
}

// NewMonotonicTimer creates a Timer whose ClockISR invokes onISR
// (typically the timer wheel's Update plus the scheduler's domain
// tick) each time it fires.
func NewMonotonicTimer(onISR func()) *MonotonicTimer {
	return &MonotonicTimer{onISR: onISR}
}

// Init resets the programming epoch to now.
func (t *MonotonicTimer) Init() {
	t.programmedAt = now()
}

// Elapsed returns ticks since the timer was last programmed.
func (t *MonotonicTimer) Elapsed() int64 {
	return ticksSince(t.programmedAt)
}

// SetTimeout arms the timer to request a callback in ticks ticks.
// idle indicates the caller has no other work and the timer may
// sleep indefinitely if ticks represents "never".
func (t *MonotonicTimer) SetTimeout(ticks int64, idle bool) {
	t.programmedAt = now()
	t.timeout = ticks
}

// CycleGet32 returns the low 32 bits of a free-running cycle counter
// derived from the monotonic clock.
func (t *MonotonicTimer) CycleGet32() uint32 {
	return uint32(nowNanos())
}

// ClockISR is invoked from the simulated ISR prologue; it runs the
// installed handler, which in turn drives the timer wheel's Update
// and the domain dispatcher's Tick.
func (t *MonotonicTimer) ClockISR() {
	if t.onISR != nil {
		t.onISR()
	}
}

func now() time.Time {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Now()
	}
	return time.Unix(ts.Sec, int64(ts.Nsec))
}

func nowNanos() int64 {
	return now().UnixNano()
}

func ticksSince(t time.Time) int64 {
	d := now().Sub(t)
	return d.Nanoseconds() * TicksPerSecond / int64(time.Second)
}
