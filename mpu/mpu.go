// Package mpu implements the partition/MPU mapping model (C8):
// partitions, pages (bounded partition sets), insertion-time
// validation, and context-switch-time region reprogramming. The
// actual region hardware is externalized behind the Backend
// interface, implemented by the arch package's simulated MPU.
package mpu

import kernelerrors "wellkernel/errors"

// Attr is the access-permission attribute of a partition region.
type Attr uint8

const (
	AttrRead Attr = 1 << iota
	AttrWrite
	AttrExec
)

// Family distinguishes the two alignment/sizing rule sets C8 names.
type Family int

const (
	ARMv7M Family = iota
	ARMv8M
)

// Partition is one MPU region: a base/size/attr triple.
type Partition struct {
	Start uintptr
	Size  uintptr
	Attr  Attr
}

// MaxPartitions bounds how many regions a single Page may aggregate,
// matching the dynamic-region budget a Cortex-M MPU actually exposes.
const MaxPartitions = 8

// Page aggregates up to MaxPartitions partitions. One Page may be
// shared by multiple threads; Threads is the table-list of threads
// currently referencing it.
type Page struct {
	Partitions []Partition
	Threads    []uintptr // thread IDs, by packed uint32 value
}

// MinRegionSize is the MPU's minimum region granularity.
const MinRegionSize = 32

// Add validates and appends a partition to the page.
//
//   - No partition may be simultaneously writable and executable.
//   - Partitions must not overlap when nonOverlapping is true.
//   - Size must be a power of two and >= MinRegionSize for ARMv7-M,
//     or a multiple of MinRegionSize for ARMv8-M; start must align to
//     size (ARMv7-M) or to MinRegionSize (ARMv8-M).
func (p *Page) Add(part Partition, family Family, nonOverlapping bool) error {
	if len(p.Partitions) >= MaxPartitions {
		return kernelerrors.New(kernelerrors.NoMem, "mpu_add_partition", "page has no free partition slots")
	}
	if part.Attr&AttrWrite != 0 && part.Attr&AttrExec != 0 {
		return kernelerrors.New(kernelerrors.InvalPara, "mpu_add_partition", "partition cannot be both writable and executable")
	}
	if err := validateSize(part, family); err != nil {
		return err
	}
	if nonOverlapping {
		for _, existing := range p.Partitions {
			if overlaps(existing, part) {
				return kernelerrors.New(kernelerrors.InvalPara, "mpu_add_partition", "partition overlaps an existing region")
			}
		}
	}
	p.Partitions = append(p.Partitions, part)
	return nil
}

func validateSize(part Partition, family Family) error {
	switch family {
	case ARMv7M:
		if !isPowerOfTwo(part.Size) || part.Size < MinRegionSize {
			return kernelerrors.New(kernelerrors.InvalPara, "mpu_add_partition", "ARMv7-M region size must be a power of two >= minimum region size")
		}
		if part.Start%part.Size != 0 {
			return kernelerrors.New(kernelerrors.InvalPara, "mpu_add_partition", "ARMv7-M region start must align to its size")
		}
	case ARMv8M:
		if part.Size == 0 || part.Size%MinRegionSize != 0 {
			return kernelerrors.New(kernelerrors.InvalPara, "mpu_add_partition", "ARMv8-M region size must be a multiple of the minimum region size")
		}
		if part.Start%MinRegionSize != 0 {
			return kernelerrors.New(kernelerrors.InvalPara, "mpu_add_partition", "ARMv8-M region start must align to the minimum region size")
		}
	}
	return nil
}

func isPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

func overlaps(a, b Partition) bool {
	aEnd := a.Start + a.Size
	bEnd := b.Start + b.Size
	return a.Start < bEnd && b.Start < aEnd
}

// Remove drops the partition at index i.
func (p *Page) Remove(i int) {
	p.Partitions = append(p.Partitions[:i], p.Partitions[i+1:]...)
}
