package source

import (
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostpulse/vitals-agent/internal/cache"
)

func newTestHardwareSource() *HardwareSource {
	return &HardwareSource{
		info: func() ([]cpu.InfoStat, error) {
			return []cpu.InfoStat{{ModelName: "Example CPU @ 3.50GHz", Mhz: 3500}}, nil
		},
		counts: func(logical bool) (int, error) {
			return 4, nil
		},
		hostInfo: func() (*host.InfoStat, error) {
			return &host.InfoStat{KernelArch: "x86_64"}, nil
		},
		cache: cache.NewHardwareCache(),
	}
}

func TestHardwareIdentity(t *testing.T) {
	s := newTestHardwareSource()

	cores := s.PhysicalCores()
	require.NotNil(t, cores)
	assert.Equal(t, 4, *cores)

	assert.Equal(t, "Example CPU @ 3.50GHz", s.Brand())

	ghz := s.FrequencyGHz()
	require.NotNil(t, ghz)
	assert.InDelta(t, 3.5, *ghz, 1e-9)

	assert.Equal(t, "x86_64", s.Architecture())
}

func TestHardwareIdentity_CachedAcrossQueries(t *testing.T) {
	s := newTestHardwareSource()

	infoCalls := 0
	s.info = func() ([]cpu.InfoStat, error) {
		infoCalls++
		return []cpu.InfoStat{{ModelName: "Example CPU", Mhz: 3500}}, nil
	}

	_ = s.Brand()
	_ = s.Brand()
	assert.Equal(t, 1, infoCalls)
}

func TestHardwareIdentity_FailuresDegrade(t *testing.T) {
	s := newTestHardwareSource()
	s.info = func() ([]cpu.InfoStat, error) { return nil, errors.New("no cpuinfo") }
	s.counts = func(logical bool) (int, error) { return 0, errors.New("no cpuinfo") }
	s.hostInfo = func() (*host.InfoStat, error) { return nil, errors.New("no uname") }

	assert.Nil(t, s.PhysicalCores())
	assert.Empty(t, s.Brand())
	assert.Nil(t, s.FrequencyGHz())
	assert.Empty(t, s.Architecture())
}
