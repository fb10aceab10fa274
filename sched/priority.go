package sched

import "wellkernel/thread"

// SetPriority implements set_priority: if t is ready, dequeue it,
// update priority/mcp, and re-enqueue, then request a reschedule by
// setting ChooseNew in action. If t is on an IPC queue instead, the caller is
// responsible for reordering its message node ((*ipc.Endpoint).Reorder);
// this function only handles the ready-queue case.
func SetPriority(rq *ReadyQueue, action *SchedulerActionSlot, t *thread.TCB, prio, mcp int) error {
	wasQueued := t.State&thread.Queued != 0
	if wasQueued {
		rq.Dequeue(t)
	}

	t.MCP = mcp
	if err := t.SetPriority(prio); err != nil {
		if wasQueued {
			rq.EnqueueTail(t)
		}
		return err
	}

	if wasQueued {
		rq.EnqueueTail(t)
	}
	action.Set(ChooseNew, nil)
	return nil
}
