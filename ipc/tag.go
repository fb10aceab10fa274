// Package ipc implements the synchronous message-passing protocol
// (C3): endpoint state machine, message register copy with typed
// item parsing, timeout arming, and cancellation/reorder on top of
// the thread package's intrusive message-queue links.
package ipc

// Tag is the message tag carried in MR[0]: a label chosen by the
// sender, protocol flags, and the untyped/typed word counts that
// drive the message copy.
type Tag struct {
	Label    uint64
	Flags    uint8
	Untyped  int
	Typed    int
}

// Pack encodes the tag into MR[0]'s layout: label in the high bits,
// flags and counts in the low bits.
func (t Tag) Pack() uint64 {
	return (t.Label << 20) | (uint64(t.Flags) << 16) | (uint64(t.Untyped&0xff) << 8) | uint64(t.Typed&0xff)
}

// UnpackTag decodes MR[0] back into a Tag.
func UnpackTag(mr0 uint64) Tag {
	return Tag{
		Label:   mr0 >> 20,
		Flags:   uint8((mr0 >> 16) & 0xf),
		Untyped: int((mr0 >> 8) & 0xff),
		Typed:   int(mr0 & 0xff),
	}
}

// Len returns the total message register count this tag implies
// (MR[0] plus untyped plus typed words).
func (t Tag) Len() int {
	return 1 + t.Untyped + t.Typed
}
