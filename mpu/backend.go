package mpu

// Backend is the hardware-facing MPU interface C8 externalizes;
// arch provides the concrete (simulated) implementation.
type Backend interface {
	ConfigureStaticRegions(regions []Partition, bgStart, bgEnd uintptr)
	ConfigureDynamicRegions(regions []Partition)
	MarkAreasForDynamicRegions(areas []Partition)
	MemPartitionConfigUpdate(part Partition, newAttr Attr)
	BufferValidate(addr, size uintptr, write bool) bool
}

// StackGuard describes the guard region placed below a thread's
// stack buffer, sized up when the thread carries the FP option.
type StackGuard struct {
	Size uintptr
}

const (
	defaultGuardSize = MinRegionSize
	fpGuardSize      = MinRegionSize * 2
)

// NewStackGuard sizes a guard region for a thread, doubling it when
// the thread has the floating-point extension enabled.
func NewStackGuard(hasFP bool) StackGuard {
	if hasFP {
		return StackGuard{Size: fpGuardSize}
	}
	return StackGuard{Size: defaultGuardSize}
}

// Reprogram installs the incoming thread's protection domain: the
// static background regions, one dynamic region per partition of its
// Page, the stack buffer itself, and the stack guard below it.
func Reprogram(backend Backend, staticRegions []Partition, bgStart, bgEnd uintptr, page *Page, stack Partition, guard StackGuard) {
	backend.ConfigureStaticRegions(staticRegions, bgStart, bgEnd)

	var dynamic []Partition
	if page != nil {
		dynamic = append(dynamic, page.Partitions...)
	}
	dynamic = append(dynamic, stack)
	dynamic = append(dynamic, Partition{
		Start: stack.Start - guard.Size,
		Size:  guard.Size,
		Attr:  0,
	})
	backend.ConfigureDynamicRegions(dynamic)
}
