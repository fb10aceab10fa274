package ipc

import kernelerrors "wellkernel/errors"

// ItemKind tags which 2-word typed item a word pair decodes to.
type ItemKind int

const (
	// MapItem installs an MPU region on the receiver for the
	// lifetime of the resource holder (revocable).
	MapItem ItemKind = iota
	// GrantItem removes the region from the sender and installs it
	// permanently on the receiver.
	GrantItem
	// StringItem maps (addr, len) into the receiver's page table.
	StringItem
	// CtrlXferItem deposits architectural register values into the
	// receiver's trap frame.
	CtrlXferItem
)

// Item is one decoded typed-message item.
type Item struct {
	Kind ItemKind

	// Map / Grant fields.
	Base     uintptr
	PageSize uintptr
	Rights   uint8

	// String fields.
	Addr uintptr
	Len  uintptr

	// CtrlXfer fields.
	RegisterID   int
	RegisterMask uint64
	RegisterVal  uint64
}

// itemTagBits identifies which kind a typed item's first word
// encodes, in its low 2 bits.
const itemTagBits = 0x3

// ParseTyped decodes count 2-word typed items starting at words[0].
// words must hold at least 2*count entries; any beyond are ignored.
func ParseTyped(words []uint64, count int) ([]Item, error) {
	if len(words) < count*2 {
		return nil, kernelerrors.New(kernelerrors.IPCMsgOverflow, "parse_typed", "truncated typed item words")
	}
	items := make([]Item, 0, count)
	for i := 0; i < count; i++ {
		w0, w1 := words[i*2], words[i*2+1]
		kind := ItemKind(w0 & itemTagBits)
		switch kind {
		case MapItem, GrantItem:
			items = append(items, Item{
				Kind:     kind,
				Base:     uintptr(w0 &^ itemTagBits),
				PageSize: uintptr(w1 >> 8),
				Rights:   uint8(w1 & 0xff),
			})
		case StringItem:
			items = append(items, Item{
				Kind: kind,
				Addr: uintptr(w0 &^ itemTagBits),
				Len:  uintptr(w1),
			})
		case CtrlXferItem:
			items = append(items, Item{
				Kind:         kind,
				RegisterID:   int(w0 >> 32),
				RegisterMask: w1,
			})
		default:
			return nil, kernelerrors.New(kernelerrors.InvalPara, "parse_typed", "unknown typed item tag")
		}
	}
	return items, nil
}
