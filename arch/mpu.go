package arch

import (
	"wellkernel/mpu"
)

// SimMpuBackend simulates a Cortex-M MPU region table: it records
// the regions the kernel asked to install and checks buffer accesses
// against them, in place of programming real MPU_RBARn/MPU_RASRn
// registers.
type SimMpuBackend struct {
	static        []mpu.Partition
	bgStart       uintptr
	bgEnd         uintptr
	dynamic       []mpu.Partition
	dynamicAreas  []mpu.Partition
}

// NewSimMpuBackend creates an empty simulated MPU.
func NewSimMpuBackend() *SimMpuBackend {
	return &SimMpuBackend{}
}

func (m *SimMpuBackend) ConfigureStaticRegions(regions []mpu.Partition, bgStart, bgEnd uintptr) {
	m.static = append([]mpu.Partition(nil), regions...)
	m.bgStart, m.bgEnd = bgStart, bgEnd
}

func (m *SimMpuBackend) ConfigureDynamicRegions(regions []mpu.Partition) {
	m.dynamic = append([]mpu.Partition(nil), regions...)
}

func (m *SimMpuBackend) MarkAreasForDynamicRegions(areas []mpu.Partition) {
	m.dynamicAreas = append([]mpu.Partition(nil), areas...)
}

func (m *SimMpuBackend) MemPartitionConfigUpdate(part mpu.Partition, newAttr mpu.Attr) {
	for i := range m.dynamic {
		if m.dynamic[i].Start == part.Start && m.dynamic[i].Size == part.Size {
			m.dynamic[i].Attr = newAttr
			return
		}
	}
}

// BufferValidate reports whether [addr, addr+size) is covered by a
// currently-installed region with sufficient permission.
func (m *SimMpuBackend) BufferValidate(addr, size uintptr, write bool) bool {
	end := addr + size
	for _, regions := range [][]mpu.Partition{m.static, m.dynamic} {
		for _, r := range regions {
			if addr >= r.Start && end <= r.Start+r.Size {
				if write && r.Attr&mpu.AttrWrite == 0 {
					continue
				}
				if !write && r.Attr&mpu.AttrRead == 0 {
					continue
				}
				return true
			}
		}
	}
	return false
}

var _ mpu.Backend = (*SimMpuBackend)(nil)
