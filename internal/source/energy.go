package source

import (
	"path/filepath"

	"github.com/hostpulse/vitals-agent/internal/stats"
)

const (
	defaultACPIRoot    = "/sys/firmware/acpi"
	defaultCPUFreqRoot = "/sys/devices/system/cpu/cpu0/cpufreq"
)

// EnergySource detects the active power-management mode through a tiered
// fallback: the firmware platform profile, then the cpufreq energy
// preference, then the scaling governor interpreted against the current
// power source. Every tier is best-effort; total failure yields nil.
type EnergySource struct {
	acpiRoot    string
	cpufreqRoot string
}

// NewEnergySource creates an EnergySource. Empty roots select the platform
// defaults.
func NewEnergySource(acpiRoot, cpufreqRoot string) *EnergySource {
	if acpiRoot == "" {
		acpiRoot = defaultACPIRoot
	}
	if cpufreqRoot == "" {
		cpufreqRoot = defaultCPUFreqRoot
	}
	return &EnergySource{acpiRoot: acpiRoot, cpufreqRoot: cpufreqRoot}
}

// Mode returns the detected energy mode, or nil when no tier produced one.
func (s *EnergySource) Mode(powerSource stats.PowerSource) *stats.EnergyMode {
	if mode := s.platformProfile(); mode != nil {
		return mode
	}
	if mode := s.energyPreference(); mode != nil {
		return mode
	}
	return s.governorMode(powerSource)
}

// platformProfile reads the firmware-level profile selector.
func (s *EnergySource) platformProfile() *stats.EnergyMode {
	profile, ok := readSysString(filepath.Join(s.acpiRoot, "platform_profile"))
	if !ok {
		return nil
	}
	switch profile {
	case "low-power", "quiet":
		return energyMode(stats.EnergyModeLowPower)
	case "balanced", "balanced-performance":
		return energyMode(stats.EnergyModeAutomatic)
	case "performance":
		return energyMode(stats.EnergyModeHighPower)
	default:
		return energyMode(stats.EnergyMode(profile))
	}
}

// energyPreference reads the cpufreq energy/performance preference label.
func (s *EnergySource) energyPreference() *stats.EnergyMode {
	pref, ok := readSysString(filepath.Join(s.cpufreqRoot, "energy_performance_preference"))
	if !ok {
		return nil
	}
	switch pref {
	case "power":
		return energyMode(stats.EnergyModeLowPower)
	case "default", "balance_power", "balance_performance":
		return energyMode(stats.EnergyModeAutomatic)
	case "performance":
		return energyMode(stats.EnergyModeHighPower)
	default:
		return energyMode(stats.EnergyMode(pref))
	}
}

// governorMode maps the scaling governor to a mode, keyed by the current
// power source: the powersave governor is the idle default on AC with
// modern frequency drivers, but a deliberate low-power choice on battery.
func (s *EnergySource) governorMode(powerSource stats.PowerSource) *stats.EnergyMode {
	governor, ok := readSysString(filepath.Join(s.cpufreqRoot, "scaling_governor"))
	if !ok {
		return nil
	}
	switch governor {
	case "powersave":
		if powerSource == stats.PowerSourceBattery {
			return energyMode(stats.EnergyModeLowPower)
		}
		return energyMode(stats.EnergyModeAutomatic)
	case "ondemand", "conservative", "schedutil":
		return energyMode(stats.EnergyModeAutomatic)
	case "performance":
		return energyMode(stats.EnergyModeHighPower)
	default:
		return energyMode(stats.EnergyMode(governor))
	}
}

func energyMode(m stats.EnergyMode) *stats.EnergyMode {
	return &m
}
