package source

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/hostpulse/vitals-agent/internal/cache"
)

// HardwareSource queries static hardware identity facts: physical core
// count, brand string, base frequency, architecture identifier. Each query
// is individually optional. Results go through the hardware cache because
// they are process-lifetime invariants, but callers must not assume a
// query runs only once.
type HardwareSource struct {
	info     func() ([]cpu.InfoStat, error)
	counts   func(logical bool) (int, error)
	hostInfo func() (*host.InfoStat, error)
	cache    *cache.HardwareCache
}

// NewHardwareSource creates a HardwareSource backed by the host kernel.
func NewHardwareSource() *HardwareSource {
	return &HardwareSource{
		info:     cpu.Info,
		counts:   cpu.Counts,
		hostInfo: host.Info,
		cache:    cache.NewHardwareCache(),
	}
}

// PhysicalCores returns the physical core count, or nil when unknown.
func (s *HardwareSource) PhysicalCores() *int {
	v, err := s.cache.GetOrSet(cache.KeyPhysicalCores, func() (interface{}, error) {
		n, err := s.counts(false)
		if err != nil {
			return nil, fmt.Errorf("failed to get physical core count: %w", err)
		}
		if n < 1 {
			return nil, fmt.Errorf("physical core count reported %d", n)
		}
		return n, nil
	})
	if err != nil {
		return nil
	}
	n := v.(int)
	return &n
}

// Brand returns the CPU brand string, or "" when unknown.
func (s *HardwareSource) Brand() string {
	v, err := s.cache.GetOrSet(cache.KeyBrand, func() (interface{}, error) {
		infos, err := s.info()
		if err != nil {
			return nil, fmt.Errorf("failed to get cpu info: %w", err)
		}
		if len(infos) == 0 || infos[0].ModelName == "" {
			return nil, fmt.Errorf("cpu info reported no model name")
		}
		return infos[0].ModelName, nil
	})
	if err != nil {
		return ""
	}
	return v.(string)
}

// FrequencyGHz returns the advertised base frequency, or nil when unknown.
func (s *HardwareSource) FrequencyGHz() *float64 {
	v, err := s.cache.GetOrSet(cache.KeyFrequency, func() (interface{}, error) {
		infos, err := s.info()
		if err != nil {
			return nil, fmt.Errorf("failed to get cpu info: %w", err)
		}
		if len(infos) == 0 || infos[0].Mhz <= 0 {
			return nil, fmt.Errorf("cpu info reported no frequency")
		}
		return infos[0].Mhz / 1000.0, nil
	})
	if err != nil {
		return nil
	}
	ghz := v.(float64)
	return &ghz
}

// Architecture returns the kernel architecture identifier, or "" when
// unknown.
func (s *HardwareSource) Architecture() string {
	v, err := s.cache.GetOrSet(cache.KeyArchitecture, func() (interface{}, error) {
		info, err := s.hostInfo()
		if err != nil {
			return nil, fmt.Errorf("failed to get host info: %w", err)
		}
		if info.KernelArch == "" {
			return nil, fmt.Errorf("host info reported no architecture")
		}
		return info.KernelArch, nil
	})
	if err != nil {
		return ""
	}
	return v.(string)
}
