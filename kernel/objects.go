package kernel

import (
	"wellkernel/ipc"
	"wellkernel/notify"
	"wellkernel/object"
	"wellkernel/rights"
)

// NewEndpoint allocates a Message kernel object backed by a fresh
// ipc.Endpoint and returns its address (the capability callers pass
// to Send/Receive/ExchangeIpc).
func (k *Kernel) NewEndpoint() uintptr {
	k.mu.Lock()
	defer k.mu.Unlock()

	addr := k.allocAddr()
	obj := k.Objects.Insert(addr, object.MessageObject, rights.Read|rights.Write|rights.Grant)
	obj.Payload = ipc.NewEndpoint(addr)
	return addr
}

// NewNotification allocates a Notification kernel object.
func (k *Kernel) NewNotification() uintptr {
	k.mu.Lock()
	defer k.mu.Unlock()

	addr := k.allocAddr()
	obj := k.Objects.Insert(addr, object.NotificationObject, rights.Read|rights.Write)
	obj.Payload = notify.New(addr)
	return addr
}

func (k *Kernel) endpoint(addr uintptr) *ipc.Endpoint {
	obj := k.Objects.Lookup(addr)
	if obj == nil {
		return nil
	}
	ep, _ := obj.Payload.(*ipc.Endpoint)
	return ep
}

func (k *Kernel) notification(addr uintptr) *notify.Notification {
	obj := k.Objects.Lookup(addr)
	if obj == nil {
		return nil
	}
	n, _ := obj.Payload.(*notify.Notification)
	return n
}

// Revoke implements §4.5 revoke(d): cascading destruction over every
// descendant of the object at addr, with a preemption point between
// deletions (here, a no-op hook: this simulation has no concurrent
// CPU to yield to mid-revoke, but the call site is kept so a future
// SMP build has somewhere to put one).
func (k *Kernel) Revoke(addr uintptr) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	obj := k.Objects.Lookup(addr)
	if obj == nil {
		return 0, nil
	}
	return k.Objects.Revoke(obj, nil)
}
