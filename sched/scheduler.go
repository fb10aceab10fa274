package sched

import "wellkernel/thread"

// Action is the scheduler_action slot: the dispatcher sets it once
// per syscall exit, and schedule() resolves it exactly once before
// returning to user mode.
type Action int

const (
	// ResumeCurrent means no candidate was chosen; keep running the
	// current thread.
	ResumeCurrent Action = iota
	// ChooseNew means run next_thread's own selection.
	ChooseNew
	// ChoosePriv means run the kernel's privileged thread (Health
	// Monitor fault delivery, idle).
	ChoosePriv
	// ChooseSpecific means run the TCB recorded alongside this
	// action (a to-be-woken receiver, for example).
	ChooseSpecific
)

// SchedulerActionSlot holds a pending scheduling decision.
type SchedulerActionSlot struct {
	Action    Action
	Candidate *thread.TCB
}

// Set installs a new action, replacing whatever was pending.
func (s *SchedulerActionSlot) Set(a Action, candidate *thread.TCB) {
	s.Action = a
	s.Candidate = candidate
}

// dominates reports whether a strictly dominates b for scheduling
// purposes: strictly higher priority, or equal priority with an
// earlier (optional) deadline.
func dominates(a, b *thread.TCB) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.Deadline != 0 && b.Deadline != 0 {
		return a.Deadline < b.Deadline
	}
	return false
}

// ShouldPreempt decides whether candidate may preempt current.
// preemptionAllowed models "preemption is explicitly permitted"
// (e.g. not inside a non-preemptible syscall section); smp and
// sameRunSet model the optional multiprocessor dimension; idleBuild
// models a preempt-disabled build where only an idle current thread
// yields.
func ShouldPreempt(current, candidate *thread.TCB, preemptionAllowed, smp, sameRunSet, idleBuild bool) bool {
	if preemptionAllowed {
		return true
	}
	if current == nil || current.State.Any(thread.Dummy) || current.IsBlocked() {
		return true
	}
	if smp && sameRunSet {
		return true
	}
	if idleBuild && current.State&thread.Dummy != 0 {
		return true
	}
	return false
}

// NextThread implements next_thread: choose the thread to run next in
// domain, given the currently running thread (nil if none) and the
// ready queue. It dequeues the chosen candidate and, if current
// remains runnable, re-enqueues it at the tail.
func NextThread(rq *ReadyQueue, domain int, current *thread.TCB, idle *thread.TCB, preemptionAllowed bool) *thread.TCB {
	if rq.Empty(domain) {
		return idle
	}

	prio, ok := rq.HighestPriority(domain)
	if !ok {
		return idle
	}
	candidate := rq.Head(domain, prio)
	if candidate == nil {
		return idle
	}
	if candidate == current {
		return current
	}

	currentRunnable := current != nil && !current.IsBlocked() && current.State&thread.Dummy == 0
	currentQueued := current != nil && current.State&thread.Queued != 0

	if currentRunnable && !currentQueued {
		if !dominates(candidate, current) || !preemptionAllowed {
			return current
		}
	}

	rq.Dequeue(candidate)
	if currentRunnable {
		rq.EnqueueTail(current)
	}
	return candidate
}
