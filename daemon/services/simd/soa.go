package simd

// The *SoA types store one metric family's per-lane samples as parallel
// slices (structure-of-arrays) instead of a slice-of-structs, so the
// kernels above can run a single tight loop per field instead of striding
// through an interleaved struct. Lanes is padded to a multiple of 8 so the
// SWAR/unrolled paths never need a ragged tail check on the last lane.

func padLanes(n int) int {
	if n%8 == 0 {
		return n
	}
	return n + (8 - n%8)
}

// CPUMetricsSoA holds one sample per logical CPU core, plus the aggregate
// "all cores" lane at index 0 the way /proc/stat lists it.
type CPUMetricsSoA struct {
	Lanes   int
	User    []uint64
	Nice    []uint64
	System  []uint64
	Idle    []uint64
	IOWait  []uint64
	IRQ     []uint64
	SoftIRQ []uint64
	Steal   []uint64
}

// NewCPUMetricsSoA allocates a CPUMetricsSoA sized for coreCount logical
// cores, padded to a multiple of 8 lanes.
func NewCPUMetricsSoA(coreCount int) *CPUMetricsSoA {
	lanes := padLanes(coreCount)
	return &CPUMetricsSoA{
		Lanes:   lanes,
		User:    make([]uint64, lanes),
		Nice:    make([]uint64, lanes),
		System:  make([]uint64, lanes),
		Idle:    make([]uint64, lanes),
		IOWait:  make([]uint64, lanes),
		IRQ:     make([]uint64, lanes),
		SoftIRQ: make([]uint64, lanes),
		Steal:   make([]uint64, lanes),
	}
}

// Total returns the sum of all jiffie counters for lane i, the denominator
// percent-usage is computed against.
func (s *CPUMetricsSoA) Total(lane int) uint64 {
	return s.User[lane] + s.Nice[lane] + s.System[lane] + s.Idle[lane] +
		s.IOWait[lane] + s.IRQ[lane] + s.SoftIRQ[lane] + s.Steal[lane]
}

// MemoryMetricsSoA holds one sample of /proc/meminfo's headline fields, in
// kilobytes as the kernel reports them.
type MemoryMetricsSoA struct {
	Total     uint64
	Free      uint64
	Available uint64
	Buffers   uint64
	Cached    uint64
	SwapTotal uint64
	SwapFree  uint64
}

// UsedBytes returns Total-Available in bytes, matching how most tools
// report "used" memory (excluding reclaimable cache).
func (m *MemoryMetricsSoA) UsedBytes() uint64 {
	if m.Available > m.Total {
		return 0
	}
	return (m.Total - m.Available) * 1024
}

// NetworkMetricsSoA holds one sample per network interface.
type NetworkMetricsSoA struct {
	Lanes       int
	Names       []string
	RxBytes     []uint64
	TxBytes     []uint64
	RxPackets   []uint64
	TxPackets   []uint64
	RxErrors    []uint64
	TxErrors    []uint64
	RxDropped   []uint64
	TxDropped   []uint64
}

// NewNetworkMetricsSoA allocates a NetworkMetricsSoA sized for ifaceCount
// interfaces, padded to a multiple of 8 lanes.
func NewNetworkMetricsSoA(ifaceCount int) *NetworkMetricsSoA {
	lanes := padLanes(ifaceCount)
	return &NetworkMetricsSoA{
		Lanes:     lanes,
		Names:     make([]string, lanes),
		RxBytes:   make([]uint64, lanes),
		TxBytes:   make([]uint64, lanes),
		RxPackets: make([]uint64, lanes),
		TxPackets: make([]uint64, lanes),
		RxErrors:  make([]uint64, lanes),
		TxErrors:  make([]uint64, lanes),
		RxDropped: make([]uint64, lanes),
		TxDropped: make([]uint64, lanes),
	}
}

// DiskMetricsSoA holds one sample per block device.
type DiskMetricsSoA struct {
	Lanes        int
	Names        []string
	ReadBytes    []uint64
	WriteBytes   []uint64
	ReadOps      []uint64
	WriteOps     []uint64
	UsedBytes    []uint64
	TotalBytes   []uint64
}

// NewDiskMetricsSoA allocates a DiskMetricsSoA sized for diskCount block
// devices, padded to a multiple of 8 lanes.
func NewDiskMetricsSoA(diskCount int) *DiskMetricsSoA {
	lanes := padLanes(diskCount)
	return &DiskMetricsSoA{
		Lanes:      lanes,
		Names:      make([]string, lanes),
		ReadBytes:  make([]uint64, lanes),
		WriteBytes: make([]uint64, lanes),
		ReadOps:    make([]uint64, lanes),
		WriteOps:   make([]uint64, lanes),
		UsedBytes:  make([]uint64, lanes),
		TotalBytes: make([]uint64, lanes),
	}
}

// BatteryMetricsSoA holds one sample per power supply device (normally a
// single lane, but laptops with a secondary battery report two).
type BatteryMetricsSoA struct {
	Lanes         int
	Names         []string
	CapacityPct   []float64
	VoltageMicroV []int64
	Charging      []bool
}

// NewBatteryMetricsSoA allocates a BatteryMetricsSoA sized for batteryCount
// devices, padded to a multiple of 8 lanes.
func NewBatteryMetricsSoA(batteryCount int) *BatteryMetricsSoA {
	lanes := padLanes(batteryCount)
	return &BatteryMetricsSoA{
		Lanes:         lanes,
		Names:         make([]string, lanes),
		CapacityPct:   make([]float64, lanes),
		VoltageMicroV: make([]int64, lanes),
		Charging:      make([]bool, lanes),
	}
}

// SensorMetricsSoA holds one sample per hwmon sensor input.
type SensorMetricsSoA struct {
	Lanes       int
	Labels      []string
	TempMilliC  []int64
	FanRPM      []uint64
}

// NewSensorMetricsSoA allocates a SensorMetricsSoA sized for sensorCount
// inputs, padded to a multiple of 8 lanes.
func NewSensorMetricsSoA(sensorCount int) *SensorMetricsSoA {
	lanes := padLanes(sensorCount)
	return &SensorMetricsSoA{
		Lanes:      lanes,
		Labels:     make([]string, lanes),
		TempMilliC: make([]int64, lanes),
		FanRPM:     make([]uint64, lanes),
	}
}

// GPUMetricsSoA holds one sample per detected GPU.
type GPUMetricsSoA struct {
	Lanes        int
	Names        []string
	UtilPct      []float64
	MemUsedBytes []uint64
	MemTotalBytes []uint64
	TempMilliC   []int64
}

// NewGPUMetricsSoA allocates a GPUMetricsSoA sized for gpuCount devices,
// padded to a multiple of 8 lanes.
func NewGPUMetricsSoA(gpuCount int) *GPUMetricsSoA {
	lanes := padLanes(gpuCount)
	return &GPUMetricsSoA{
		Lanes:         lanes,
		Names:         make([]string, lanes),
		UtilPct:       make([]float64, lanes),
		MemUsedBytes:  make([]uint64, lanes),
		MemTotalBytes: make([]uint64, lanes),
		TempMilliC:    make([]int64, lanes),
	}
}
