// Package object implements the kernel object table (C6): typed
// allocation, an address-keyed red-black tree for O(log n) lookup,
// a derivation-ordered doubly-linked list, and cascading revocation.
package object

import (
	kernelerrors "wellkernel/errors"
	"wellkernel/rights"
)

// Type identifies a kernel object's payload kind.
type Type int

const (
	NullObject Type = iota
	UntypedObject
	ThreadObject
	SCObject
	MessageObject
	NotificationObject
	IrqControlObject
	IrqHandlerObject
	DomainObject
	TimeObject
	DeviceObject
	PagerObject
	FrameObject
)

func (t Type) String() string {
	names := [...]string{
		"Null", "Untyped", "Thread", "SC", "Message", "Notification",
		"IrqControl", "IrqHandler", "Domain", "Time", "Device", "Pager", "Frame",
	}
	if int(t) < 0 || int(t) >= len(names) {
		return "Unknown"
	}
	return names[t]
}

// Object is a kernel object table entry: a typed header plus
// derivation bookkeeping. Payload is the type-specific backing value
// (e.g. *ipc.Endpoint, *notify.Notification, *thread.TCB) stored as
// an address-stable handle; the object table never inspects it
// beyond calling PrepareDelete on payloads that implement it.
type Object struct {
	Addr    uintptr
	Type    Type
	SubType Type
	Rights  rights.Mask
	Badge   rights.Data
	Payload any

	left, right, parent *Object // rb-tree, keyed by Addr
	color                color

	derivedFrom          *Object
	derivPrev, derivNext *Object
}

type color bool

const (
	red   color = false
	black color = true
)

// PrepareDelete is implemented by object payloads that must cancel
// in-flight operations before their table entry is removed: IPC
// queues drained, notification waiters unblocked, SC unbound.
type PrepareDelete interface {
	PrepareDelete()
}

// Table owns the rb-tree and the derivation list for every live
// kernel object.
type Table struct {
	root *Object
	head *Object // derivation list head (roots of the forest, list-ordered)
}

// NewTable creates an empty object table.
func NewTable() *Table {
	return &Table{}
}

// Insert creates a root object (no parent) at addr, of the given
// type, and links it into both the rb-tree and the front of the
// derivation list.
func (tb *Table) Insert(addr uintptr, typ Type, rightsMask rights.Mask) *Object {
	obj := &Object{Addr: addr, Type: typ, Rights: rightsMask, color: red}
	tb.rbInsert(obj)
	tb.listInsertHead(obj)
	return obj
}

// Derive creates object b immediately after object a in the
// derivation list, of the same type (with optional subtype
// narrowing, e.g. IrqControl -> IrqHandler), with rights restricted
// to the intersection of the parent's rights and requested, and
// indexes it in the rb-tree.
func (tb *Table) Derive(parent *Object, addr uintptr, subType Type, requested rights.Mask) *Object {
	typ := parent.Type
	if subType != NullObject {
		typ = subType
	}
	granted := parent.Rights.Restrict(requested)
	child := &Object{Addr: addr, Type: typ, SubType: subType, Rights: granted, derivedFrom: parent, color: red}
	tb.rbInsert(child)
	tb.listInsertAfter(parent, child)
	return child
}

// Lookup finds the object whose header sits at addr, or nil.
func (tb *Table) Lookup(addr uintptr) *Object {
	n := tb.root
	for n != nil {
		switch {
		case addr == n.Addr:
			return n
		case addr < n.Addr:
			n = n.left
		default:
			n = n.right
		}
	}
	return nil
}

// isDescendant reports whether b is d or a descendant of d, walking
// the derivedFrom chain.
func isDescendant(d, b *Object) bool {
	for cur := b; cur != nil; cur = cur.derivedFrom {
		if cur == d {
			return true
		}
	}
	return false
}

// Revoke walks the derivation list from d forward while entries are
// descendants of d and deletes each, invoking PrepareDelete on any
// payload that implements it before unlinking. Returns the number of
// objects deleted. A no-op (returns 0, nil) if d has no descendants.
func (tb *Table) Revoke(d *Object, preempt func()) (int, error) {
	cur := d.derivNext
	deleted := 0
	for cur != nil && isDescendant(d, cur) {
		next := cur.derivNext
		if err := tb.delete(cur); err != nil {
			return deleted, err
		}
		deleted++
		cur = next
		if preempt != nil && cur != nil {
			preempt()
		}
	}
	return deleted, nil
}

// delete removes a single object (with no surviving descendants
// expected) from both structures, invoking PrepareDelete first.
func (tb *Table) delete(obj *Object) error {
	if pd, ok := obj.Payload.(PrepareDelete); ok {
		pd.PrepareDelete()
	}
	tb.listRemove(obj)
	tb.rbRemove(obj)
	return nil
}

// Delete removes a leaf object explicitly (exported for callers that
// delete a single capability slot rather than revoking a subtree).
func (tb *Table) Delete(obj *Object) error {
	if obj.derivNext != nil && isDescendant(obj, obj.derivNext) {
		return kernelerrors.New(kernelerrors.InvalPara, "object_delete", "object has live descendants, use Revoke")
	}
	return tb.delete(obj)
}

// UpdateData sets the object's badge idempotently: setting it once
// flips Granted on; clearing it once flips Granted off.
func (obj *Object) UpdateData(value uint32) {
	obj.Badge.Update(value)
}
