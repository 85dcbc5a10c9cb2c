package source

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
)

// CPUSource queries the kernel's cumulative CPU tick counters and load
// averages. Query functions are overridable for testing.
type CPUSource struct {
	times   func(percpu bool) ([]cpu.TimesStat, error)
	loadAvg func() (*load.AvgStat, error)
	counts  func(logical bool) (int, error)
}

// NewCPUSource creates a CPUSource backed by the host kernel.
func NewCPUSource() *CPUSource {
	return &CPUSource{
		times:   cpu.Times,
		loadAvg: load.Avg,
		counts:  cpu.Counts,
	}
}

// AggregateTicks returns the host-wide 4-bucket tick counter.
func (s *CPUSource) AggregateTicks() (CPUTicks, error) {
	times, err := s.times(false)
	if err != nil {
		return CPUTicks{}, fmt.Errorf("failed to query cpu times: %w", err)
	}
	if len(times) == 0 {
		return CPUTicks{}, fmt.Errorf("cpu times query returned no entries")
	}
	return ticksFromTimes(times[0]), nil
}

// PerCoreTicks returns one tick counter per logical core, ordered by core
// index. A failed query yields an empty list, never an error, so per-core
// trouble cannot block the aggregate computation.
func (s *CPUSource) PerCoreTicks() []CPUTicks {
	times, err := s.times(true)
	if err != nil {
		return nil
	}
	ticks := make([]CPUTicks, len(times))
	for i, t := range times {
		ticks[i] = ticksFromTimes(t)
	}
	return ticks
}

// LoadAverages returns the 1/5/15-minute load averages, or an empty list
// when the platform does not support them.
func (s *CPUSource) LoadAverages() []float64 {
	avg, err := s.loadAvg()
	if err != nil || avg == nil {
		return nil
	}
	return []float64{avg.Load1, avg.Load5, avg.Load15}
}

// LogicalCores returns the logical core count, always >= 1.
func (s *CPUSource) LogicalCores() int {
	n, err := s.counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// ticksFromTimes folds the kernel's extended buckets into the 4-bucket
// model: interrupt time counts as system, iowait counts as idle.
func ticksFromTimes(t cpu.TimesStat) CPUTicks {
	return CPUTicks{
		User:   t.User,
		System: t.System + t.Irq + t.Softirq,
		Idle:   t.Idle + t.Iowait,
		Nice:   t.Nice,
	}
}
