package source

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/hostpulse/vitals-agent/internal/stats"
)

// MemorySource performs the virtual-memory counter query.
type MemorySource struct {
	virtualMemory func() (*mem.VirtualMemoryStat, error)
}

// NewMemorySource creates a MemorySource backed by the host kernel.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		virtualMemory: mem.VirtualMemory,
	}
}

// Read returns the current memory counters in bytes.
func (s *MemorySource) Read() (*stats.MemoryStat, error) {
	vm, err := s.virtualMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to get virtual memory: %w", err)
	}
	st := memoryStatFromVM(vm)
	return &st, nil
}

// memoryStatFromVM derives the memory stat from raw counters. When the
// platform reports no total, total is reconstructed as used+free so an
// all-idle machine reads total=free, used=0 rather than failing.
func memoryStatFromVM(vm *mem.VirtualMemoryStat) stats.MemoryStat {
	total := vm.Total
	if total == 0 {
		total = vm.Used + vm.Free
	}
	// Wired and compressed counters only exist on some platforms; the
	// query leaves them zero elsewhere.
	return stats.MemoryStat{
		UsedBytes:       vm.Used,
		TotalBytes:      total,
		WiredBytes:      vm.Wired,
		CompressedBytes: 0,
	}
}
