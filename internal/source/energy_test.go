package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostpulse/vitals-agent/internal/stats"
)

func newTestEnergySource(t *testing.T) (*EnergySource, string, string) {
	acpi := t.TempDir()
	cpufreq := t.TempDir()
	return NewEnergySource(acpi, cpufreq), acpi, cpufreq
}

func TestEnergyMode_PlatformProfile(t *testing.T) {
	cases := map[string]stats.EnergyMode{
		"low-power":            stats.EnergyModeLowPower,
		"quiet":                stats.EnergyModeLowPower,
		"balanced":             stats.EnergyModeAutomatic,
		"balanced-performance": stats.EnergyModeAutomatic,
		"performance":          stats.EnergyModeHighPower,
		"cool":                 stats.EnergyMode("cool"),
	}

	for profile, want := range cases {
		s, acpi, _ := newTestEnergySource(t)
		writeAttr(t, acpi, "platform_profile", profile)

		mode := s.Mode(stats.PowerSourceAC)
		require.NotNil(t, mode, "profile %q", profile)
		assert.Equal(t, want, *mode, "profile %q", profile)
	}
}

func TestEnergyMode_ProfileBeatsPreference(t *testing.T) {
	s, acpi, cpufreq := newTestEnergySource(t)
	writeAttr(t, acpi, "platform_profile", "performance")
	writeAttr(t, cpufreq, "energy_performance_preference", "power")

	mode := s.Mode(stats.PowerSourceAC)
	require.NotNil(t, mode)
	assert.Equal(t, stats.EnergyModeHighPower, *mode)
}

func TestEnergyMode_EnergyPreferenceFallback(t *testing.T) {
	cases := map[string]stats.EnergyMode{
		"power":               stats.EnergyModeLowPower,
		"default":             stats.EnergyModeAutomatic,
		"balance_power":       stats.EnergyModeAutomatic,
		"balance_performance": stats.EnergyModeAutomatic,
		"performance":         stats.EnergyModeHighPower,
	}

	for pref, want := range cases {
		s, _, cpufreq := newTestEnergySource(t)
		writeAttr(t, cpufreq, "energy_performance_preference", pref)

		mode := s.Mode(stats.PowerSourceAC)
		require.NotNil(t, mode, "preference %q", pref)
		assert.Equal(t, want, *mode, "preference %q", pref)
	}
}

func TestEnergyMode_GovernorKeyedByPowerSource(t *testing.T) {
	s, _, cpufreq := newTestEnergySource(t)
	writeAttr(t, cpufreq, "scaling_governor", "powersave")

	// powersave is the idle default on AC but a deliberate choice on battery
	mode := s.Mode(stats.PowerSourceAC)
	require.NotNil(t, mode)
	assert.Equal(t, stats.EnergyModeAutomatic, *mode)

	mode = s.Mode(stats.PowerSourceBattery)
	require.NotNil(t, mode)
	assert.Equal(t, stats.EnergyModeLowPower, *mode)
}

func TestEnergyMode_GovernorLabels(t *testing.T) {
	cases := map[string]stats.EnergyMode{
		"schedutil":   stats.EnergyModeAutomatic,
		"ondemand":    stats.EnergyModeAutomatic,
		"performance": stats.EnergyModeHighPower,
	}

	for governor, want := range cases {
		s, _, cpufreq := newTestEnergySource(t)
		writeAttr(t, cpufreq, "scaling_governor", governor)

		mode := s.Mode(stats.PowerSourceAC)
		require.NotNil(t, mode, "governor %q", governor)
		assert.Equal(t, want, *mode, "governor %q", governor)
	}
}

func TestEnergyMode_NoTierAvailable(t *testing.T) {
	s, _, _ := newTestEnergySource(t)
	assert.Nil(t, s.Mode(stats.PowerSourceAC))
}
