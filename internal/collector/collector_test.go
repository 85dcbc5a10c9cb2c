package collector

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostpulse/vitals-agent/internal/rate"
	"github.com/hostpulse/vitals-agent/internal/source"
	"github.com/hostpulse/vitals-agent/internal/stats"
)

type fakeCPU struct {
	ticks   source.CPUTicks
	err     error
	perCore []source.CPUTicks
	loads   []float64
	cores   int
}

func (f *fakeCPU) AggregateTicks() (source.CPUTicks, error) { return f.ticks, f.err }
func (f *fakeCPU) PerCoreTicks() []source.CPUTicks          { return f.perCore }
func (f *fakeCPU) LoadAverages() []float64                  { return f.loads }
func (f *fakeCPU) LogicalCores() int                        { return f.cores }

type fakeHardware struct{}

func (fakeHardware) PhysicalCores() *int {
	n := 4
	return &n
}
func (fakeHardware) Brand() string { return "Example CPU" }
func (fakeHardware) FrequencyGHz() *float64 {
	v := 3.5
	return &v
}
func (fakeHardware) Architecture() string { return "x86_64" }

type fakeMemory struct {
	stat *stats.MemoryStat
	err  error
}

func (f *fakeMemory) Read() (*stats.MemoryStat, error) { return f.stat, f.err }

type fakeStorage struct {
	reading source.StorageReading
	err     error
}

func (f *fakeStorage) Read() (source.StorageReading, error) { return f.reading, f.err }

type fakeBattery struct {
	reading source.BatteryReading
}

func (f *fakeBattery) Read() source.BatteryReading { return f.reading }

type fakeEnergy struct {
	mode *stats.EnergyMode
}

func (f *fakeEnergy) Mode(powerSource stats.PowerSource) *stats.EnergyMode { return f.mode }

type fakeGPU struct {
	reading *source.GPUReading
	err     error
}

func (f *fakeGPU) Read() (*source.GPUReading, error) { return f.reading, f.err }

func newTestCollector(cpu *fakeCPU, memory *fakeMemory, storage *fakeStorage) *Collector {
	return &Collector{
		cpu:      cpu,
		hardware: fakeHardware{},
		memory:   memory,
		storage:  storage,
		engine:   rate.NewEngine(),
		now:      func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) },
	}
}

func defaultMemory() *fakeMemory {
	return &fakeMemory{stat: &stats.MemoryStat{UsedBytes: 6 << 30, TotalBytes: 16 << 30}}
}

func defaultStorage() *fakeStorage {
	total := uint64(500 << 30)
	return &fakeStorage{reading: source.StorageReading{TotalBytes: &total, AvailableBytes: 120 << 30}}
}

func TestCollect_FirstPassSeedsBaselines(t *testing.T) {
	cpu := &fakeCPU{
		ticks:   source.CPUTicks{User: 100, System: 50, Idle: 800, Nice: 50},
		perCore: []source.CPUTicks{{User: 50, Idle: 450}, {User: 50, Idle: 450}},
		cores:   2,
	}
	c := newTestCollector(cpu, defaultMemory(), defaultStorage())

	snapshot := c.Collect()
	require.NotNil(t, snapshot.CPU)
	assert.Nil(t, snapshot.CPU.Usage)
	assert.Nil(t, snapshot.CPU.Breakdown)
	assert.Empty(t, snapshot.CPU.PerCore)
	assert.Equal(t, 2, snapshot.CPU.LogicalCores)
	assert.Equal(t, "Example CPU", snapshot.CPU.Brand)

	cpu.ticks = source.CPUTicks{User: 150, System: 70, Idle: 830, Nice: 60}
	cpu.perCore = []source.CPUTicks{{User: 80, Idle: 470}, {User: 60, Idle: 490}}

	snapshot = c.Collect()
	require.NotNil(t, snapshot.CPU)
	require.NotNil(t, snapshot.CPU.Usage)
	assert.InDelta(t, 1.0-30.0/110.0, *snapshot.CPU.Usage, 1e-9)
	require.NotNil(t, snapshot.CPU.Breakdown)
	assert.InDelta(t, 50.0/110.0, snapshot.CPU.Breakdown.User, 1e-9)

	require.Len(t, snapshot.CPU.PerCore, 2)
	assert.InDelta(t, 0.6, snapshot.CPU.PerCore[0].Usage, 1e-9)
	assert.InDelta(t, 0.2, snapshot.CPU.PerCore[1].Usage, 1e-9)
}

func TestCollect_Timestamp(t *testing.T) {
	c := newTestCollector(&fakeCPU{cores: 1}, defaultMemory(), defaultStorage())

	snapshot := c.Collect()
	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), snapshot.Timestamp)
}

func TestCollect_SubsystemsDegradeIndependently(t *testing.T) {
	cpu := &fakeCPU{err: errors.New("no counters"), cores: 1}
	memory := &fakeMemory{err: errors.New("no counters")}
	c := newTestCollector(cpu, memory, defaultStorage())

	snapshot := c.Collect()
	assert.Nil(t, snapshot.CPU)
	assert.Nil(t, snapshot.Memory)
	require.NotNil(t, snapshot.Storage)
	assert.Equal(t, uint64(120<<30), snapshot.Storage.AvailableBytes)
}

func TestCollect_StorageUsedDerived(t *testing.T) {
	c := newTestCollector(&fakeCPU{cores: 1}, defaultMemory(), defaultStorage())

	snapshot := c.Collect()
	require.NotNil(t, snapshot.Storage)
	assert.Equal(t, uint64(380<<30), snapshot.Storage.UsedBytes)
}

func TestCollect_StorageFailure(t *testing.T) {
	storage := &fakeStorage{err: errors.New("mount gone")}
	c := newTestCollector(&fakeCPU{cores: 1}, defaultMemory(), storage)

	snapshot := c.Collect()
	assert.Nil(t, snapshot.Storage)
}

func TestCollect_OptionalSubsystemsDisabled(t *testing.T) {
	c := newTestCollector(&fakeCPU{cores: 1}, defaultMemory(), defaultStorage())

	snapshot := c.Collect()
	assert.Nil(t, snapshot.Battery)
	assert.Nil(t, snapshot.BatteryDetails)
	assert.Nil(t, snapshot.GPU)
}

func TestCollect_BatteryTimeRemaining(t *testing.T) {
	charging := false
	toEmpty := 3 * time.Hour
	c := newTestCollector(&fakeCPU{cores: 1}, defaultMemory(), defaultStorage())
	c.battery = &fakeBattery{reading: source.BatteryReading{
		Stat: stats.BatteryStat{
			IsCharging:  &charging,
			Status:      "Discharging",
			PowerSource: stats.PowerSourceBattery,
		},
		TimeToEmpty: &toEmpty,
	}}

	snapshot := c.Collect()
	require.NotNil(t, snapshot.Battery)
	require.NotNil(t, snapshot.Battery.TimeRemaining)
	assert.Equal(t, 3*time.Hour, *snapshot.Battery.TimeRemaining)
}

func TestCollect_EnergyModeInjectedIntoDetails(t *testing.T) {
	mode := stats.EnergyModeLowPower
	c := newTestCollector(&fakeCPU{cores: 1}, defaultMemory(), defaultStorage())
	c.battery = &fakeBattery{reading: source.BatteryReading{
		Stat: stats.BatteryStat{Status: "Discharging", PowerSource: stats.PowerSourceBattery},
	}}
	c.energy = &fakeEnergy{mode: &mode}

	snapshot := c.Collect()

	// Details get created just to carry the mode
	require.NotNil(t, snapshot.BatteryDetails)
	require.NotNil(t, snapshot.BatteryDetails.EnergyMode)
	assert.Equal(t, stats.EnergyModeLowPower, *snapshot.BatteryDetails.EnergyMode)
}

func TestCollect_EmptyDetailsCollapse(t *testing.T) {
	c := newTestCollector(&fakeCPU{cores: 1}, defaultMemory(), defaultStorage())
	c.battery = &fakeBattery{reading: source.BatteryReading{
		Stat: stats.BatteryStat{Status: "No battery detected", PowerSource: stats.PowerSourceAC},
	}}
	c.energy = &fakeEnergy{}

	snapshot := c.Collect()
	require.NotNil(t, snapshot.Battery)
	assert.Equal(t, "No battery detected", snapshot.Battery.Status)
	assert.Nil(t, snapshot.BatteryDetails)
}

func TestCollect_GPUSmoothing(t *testing.T) {
	device := 0.40
	gpu := &fakeGPU{reading: &source.GPUReading{Device: &device, DeviceCount: 1}}
	c := newTestCollector(&fakeCPU{cores: 1}, defaultMemory(), defaultStorage())
	c.gpu = gpu

	snapshot := c.Collect()
	require.NotNil(t, snapshot.GPU)
	require.NotNil(t, snapshot.GPU.DeviceUtilization)
	assert.InDelta(t, 0.40, *snapshot.GPU.DeviceUtilization, 1e-9)
	assert.Nil(t, snapshot.GPU.RendererUtilization)

	// A registry miss drops the stat but keeps the accumulator
	gpu.reading, gpu.err = nil, errors.New("registry miss")
	snapshot = c.Collect()
	assert.Nil(t, snapshot.GPU)

	device = 0.90
	gpu.reading, gpu.err = &source.GPUReading{Device: &device, DeviceCount: 1}, nil
	snapshot = c.Collect()
	require.NotNil(t, snapshot.GPU)
	assert.InDelta(t, 0.575, *snapshot.GPU.DeviceUtilization, 1e-9)
}

func TestCollect_GPURendererChannelSmoothedIndependently(t *testing.T) {
	device, renderer := 0.40, 0.80
	gpu := &fakeGPU{reading: &source.GPUReading{Device: &device, Renderer: &renderer, DeviceCount: 1}}
	c := newTestCollector(&fakeCPU{cores: 1}, defaultMemory(), defaultStorage())
	c.gpu = gpu

	snapshot := c.Collect()
	require.NotNil(t, snapshot.GPU)
	require.NotNil(t, snapshot.GPU.RendererUtilization)
	assert.InDelta(t, 0.80, *snapshot.GPU.RendererUtilization, 1e-9)
	assert.Nil(t, snapshot.GPU.TilerUtilization)

	device, renderer = 0.90, 0.20
	snapshot = c.Collect()
	require.NotNil(t, snapshot.GPU)
	assert.InDelta(t, 0.575, *snapshot.GPU.DeviceUtilization, 1e-9)
	assert.InDelta(t, 0.80*0.65+0.20*0.35, *snapshot.GPU.RendererUtilization, 1e-9)
}

func TestNew_OptionalSubsystemWiring(t *testing.T) {
	c := New(Options{EnableBattery: false, EnableGPU: false})
	assert.Nil(t, c.battery)
	assert.Nil(t, c.energy)
	assert.Nil(t, c.gpu)

	c = New(Options{EnableBattery: true, EnableGPU: true})
	assert.NotNil(t, c.battery)
	assert.NotNil(t, c.energy)
	assert.NotNil(t, c.gpu)
}
