package object

// The derivation list orders objects so that a parent always appears
// ahead of its descendants, which follow it contiguously (I6); revoke walks
// forward from a node while the same-object-or-descendant predicate
// holds, so insertion position is the only invariant this file has
// to maintain.

func (tb *Table) listInsertHead(obj *Object) {
	obj.derivPrev = nil
	obj.derivNext = tb.head
	if tb.head != nil {
		tb.head.derivPrev = obj
	}
	tb.head = obj
}

// listInsertAfter inserts child immediately after parent's position,
// ahead of whatever already followed parent (including parent's
// other descendants), which preserves I6 since the new child has no
// descendants of its own yet.
func (tb *Table) listInsertAfter(parent, child *Object) {
	child.derivPrev = parent
	child.derivNext = parent.derivNext
	if parent.derivNext != nil {
		parent.derivNext.derivPrev = child
	}
	parent.derivNext = child
}

func (tb *Table) listRemove(obj *Object) {
	if obj.derivPrev != nil {
		obj.derivPrev.derivNext = obj.derivNext
	} else if tb.head == obj {
		tb.head = obj.derivNext
	}
	if obj.derivNext != nil {
		obj.derivNext.derivPrev = obj.derivPrev
	}
	obj.derivPrev, obj.derivNext = nil, nil
}

// Walk invokes fn for every object in derivation order, head first.
func (tb *Table) Walk(fn func(*Object)) {
	for cur := tb.head; cur != nil; cur = cur.derivNext {
		fn(cur)
	}
}
