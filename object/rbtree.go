package object

// rb-tree keyed by Object.Addr. The original buddy-pool object table
// avoids a parent pointer and rebuilds the ancestor chain into a
// stack on each descent; this port keeps an explicit parent pointer
// instead; it costs one extra pointer per node but makes the delete
// fix-up a direct transcription of the textbook algorithm rather than
// a hand-threaded stack, and nothing in this package is on a latency-
// critical path the way the scheduler's bitmap lookup is.

type side int

const (
	leftSide side = iota
	rightSide
)

func (n *Object) child(s side) *Object {
	if s == leftSide {
		return n.left
	}
	return n.right
}

func (n *Object) setChild(s side, c *Object) {
	if s == leftSide {
		n.left = c
	} else {
		n.right = c
	}
	if c != nil {
		c.parent = n
	}
}

func sideOf(n *Object) side {
	if n.parent != nil && n.parent.left == n {
		return leftSide
	}
	return rightSide
}

func opposite(s side) side {
	if s == leftSide {
		return rightSide
	}
	return leftSide
}

func isRed(n *Object) bool {
	return n != nil && n.color == red
}

func isBlack(n *Object) bool {
	return n == nil || n.color == black
}

// rbInsert inserts obj into the tree keyed by obj.Addr.
func (tb *Table) rbInsert(obj *Object) {
	obj.left, obj.right, obj.parent = nil, nil, nil
	obj.color = red

	var parent *Object
	cur := tb.root
	for cur != nil {
		parent = cur
		if obj.Addr < cur.Addr {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}

	obj.parent = parent
	if parent == nil {
		tb.root = obj
	} else if obj.Addr < parent.Addr {
		parent.left = obj
	} else {
		parent.right = obj
	}

	tb.rbFixInsert(obj)
}

func (tb *Table) rotate(n *Object, dir side) {
	child := n.child(opposite(dir))
	n.setChild(opposite(dir), child.child(dir))

	child.parent = n.parent
	if n.parent == nil {
		tb.root = child
	} else {
		n.parent.setChild(sideOf(n), child)
	}
	child.setChild(dir, n)
}

func (tb *Table) rbFixInsert(n *Object) {
	for n.parent != nil && isRed(n.parent) {
		parent := n.parent
		grand := parent.parent
		if grand == nil {
			break
		}
		parentSide := sideOf(parent)
		uncle := grand.child(opposite(parentSide))

		if isRed(uncle) {
			parent.color = black
			uncle.color = black
			grand.color = red
			n = grand
			continue
		}

		if sideOf(n) != parentSide {
			n = parent
			tb.rotate(n, parentSide)
			parent = n.parent
		}
		parent.color = black
		grand.color = red
		tb.rotate(grand, opposite(parentSide))
		break
	}
	tb.root.color = black
}

// rbRemove deletes obj from the tree.
func (tb *Table) rbRemove(obj *Object) {
	target := obj
	if target.left != nil && target.right != nil {
		succ := target.right
		for succ.left != nil {
			succ = succ.left
		}
		// Swap tree positions (links and color), not contents, so every
		// *Object keeps its identity; target then has at most one child.
		tParent, tSide, tLeft, tRight, sParent, sRight := target.parent, sideOf(target), target.left, target.right, succ.parent, succ.right
		target.color, succ.color = succ.color, target.color
		if succ.parent = tParent; tParent == nil {
			tb.root = succ
		} else {
			tParent.setChild(tSide, succ)
		}
		succ.setChild(leftSide, tLeft)
		if sParent == target {
			succ.setChild(rightSide, target)
		} else {
			succ.setChild(rightSide, tRight)
			sParent.setChild(leftSide, target)
		}
		target.left = nil
		target.setChild(rightSide, sRight)
	}

	child := target.left
	if child == nil {
		child = target.right
	}

	parent := target.parent
	if child != nil {
		child.parent = parent
	}
	if parent == nil {
		tb.root = child
	} else {
		parent.setChild(sideOf(target), child)
	}

	if target.color == black {
		if isRed(child) {
			child.color = black
		} else {
			tb.rbFixDelete(child, parent)
		}
	}
	target.left, target.right, target.parent = nil, nil, nil
}

// rbFixDelete restores invariants after removing a black node whose
// replacement (n, possibly nil) now sits under parent.
func (tb *Table) rbFixDelete(n, parent *Object) {
	for parent != nil && isBlack(n) {
		s := sideOf2(parent, n)
		sibling := parent.child(opposite(s))

		if isRed(sibling) {
			sibling.color = black
			parent.color = red
			tb.rotate(parent, s)
			sibling = parent.child(opposite(s))
		}

		if isBlack(sibling.child(leftSide)) && isBlack(sibling.child(rightSide)) {
			sibling.color = red
			if parent.color == red {
				parent.color = black
				return
			}
			n = parent
			parent = n.parent
			continue
		}

		if isBlack(sibling.child(opposite(s))) {
			if c := sibling.child(s); c != nil {
				c.color = black
			}
			sibling.color = red
			tb.rotate(sibling, s)
			sibling = parent.child(opposite(s))
		}

		sibling.color = parent.color
		parent.color = black
		if c := sibling.child(opposite(s)); c != nil {
			c.color = black
		}
		tb.rotate(parent, s)
		return
	}
	if n != nil {
		n.color = black
	}
}

// sideOf2 determines which side of parent n sits on even when n is
// nil, by elimination (n's absence still identifies the freed slot
// via the caller's bookkeeping in rbRemove/rbFixDelete's recursion).
func sideOf2(parent, n *Object) side {
	if parent.left == n {
		return leftSide
	}
	return rightSide
}
