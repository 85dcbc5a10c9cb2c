package collector

import (
	"time"

	"github.com/hostpulse/vitals-agent/internal/rate"
	"github.com/hostpulse/vitals-agent/internal/source"
	"github.com/hostpulse/vitals-agent/internal/stats"
)

// cpuTicker is the counter-source surface the collector needs for CPU data.
type cpuTicker interface {
	AggregateTicks() (source.CPUTicks, error)
	PerCoreTicks() []source.CPUTicks
	LoadAverages() []float64
	LogicalCores() int
}

// hardwareReader exposes the static hardware identity queries.
type hardwareReader interface {
	PhysicalCores() *int
	Brand() string
	FrequencyGHz() *float64
	Architecture() string
}

type memoryReader interface {
	Read() (*stats.MemoryStat, error)
}

type storageReader interface {
	Read() (source.StorageReading, error)
}

type batteryReader interface {
	Read() source.BatteryReading
}

type energyReader interface {
	Mode(powerSource stats.PowerSource) *stats.EnergyMode
}

type gpuReader interface {
	Read() (*source.GPUReading, error)
}

// Options selects the monitored paths and optional subsystems.
type Options struct {
	StoragePath     string
	PowerSupplyRoot string
	DRMRoot         string
	ACPIRoot        string
	CPUFreqRoot     string
	EnableBattery   bool
	EnableGPU       bool
}

// Collector orchestrates one full sampling pass. It owns the rate engine
// and its previous-sample state; Collect is the only mutator of that
// state, so callers must not run two passes concurrently.
type Collector struct {
	cpu      cpuTicker
	hardware hardwareReader
	memory   memoryReader
	storage  storageReader
	battery  batteryReader
	energy   energyReader
	gpu      gpuReader

	engine *rate.Engine
	now    func() time.Time
}

// New creates a Collector with kernel-backed sources.
func New(opts Options) *Collector {
	c := &Collector{
		cpu:      source.NewCPUSource(),
		hardware: source.NewHardwareSource(),
		memory:   source.NewMemorySource(),
		storage:  source.NewStorageSource(opts.StoragePath),
		engine:   rate.NewEngine(),
		now:      time.Now,
	}
	if opts.EnableBattery {
		c.battery = source.NewBatterySource(opts.PowerSupplyRoot)
		c.energy = source.NewEnergySource(opts.ACPIRoot, opts.CPUFreqRoot)
	}
	if opts.EnableGPU {
		c.gpu = source.NewGPUSource(opts.DRMRoot)
	}
	return c
}

// Collect performs one sampling pass and assembles a snapshot. It never
// fails: every sub-collection degrades independently to an absent field,
// and a failure in one counter source cannot block the others.
func (c *Collector) Collect() *stats.Snapshot {
	snapshot := &stats.Snapshot{Timestamp: c.now()}

	snapshot.CPU = c.collectCPU()
	snapshot.Memory = c.collectMemory()
	snapshot.Storage = c.collectStorage()
	if c.battery != nil {
		snapshot.Battery, snapshot.BatteryDetails = c.collectBattery()
	}
	if c.gpu != nil {
		snapshot.GPU = c.collectGPU()
	}

	return snapshot
}

func (c *Collector) collectCPU() *stats.CPUStat {
	// Per-core collection runs before the aggregate so both tick-delta
	// baselines are primed in the same pass.
	perCore := c.engine.PerCoreUsage(c.cpu.PerCoreTicks())

	ticks, err := c.cpu.AggregateTicks()
	if err != nil {
		return nil
	}
	usage, breakdown := c.engine.CPUUsage(ticks)

	return &stats.CPUStat{
		Usage:         usage,
		Breakdown:     breakdown,
		LogicalCores:  c.cpu.LogicalCores(),
		PhysicalCores: c.hardware.PhysicalCores(),
		LoadAverages:  c.cpu.LoadAverages(),
		PerCore:       perCore,
		Brand:         c.hardware.Brand(),
		FrequencyGHz:  c.hardware.FrequencyGHz(),
		Architecture:  c.hardware.Architecture(),
	}
}

func (c *Collector) collectMemory() *stats.MemoryStat {
	memory, err := c.memory.Read()
	if err != nil {
		return nil
	}
	return memory
}

func (c *Collector) collectStorage() *stats.StorageStat {
	reading, err := c.storage.Read()
	if err != nil {
		return nil
	}
	return &stats.StorageStat{
		TotalBytes:     reading.TotalBytes,
		AvailableBytes: reading.AvailableBytes,
		UsedBytes:      rate.UsedBytes(reading.TotalBytes, reading.AvailableBytes),
	}
}

func (c *Collector) collectBattery() (*stats.BatteryStat, *stats.BatteryDetails) {
	reading := c.battery.Read()

	battery := reading.Stat
	battery.TimeRemaining = rate.TimeRemaining(battery.IsCharging, reading.TimeToFull, reading.TimeToEmpty)

	details := reading.Details
	if c.energy != nil {
		if mode := c.energy.Mode(battery.PowerSource); mode != nil {
			if details == nil {
				details = &stats.BatteryDetails{}
			}
			details.EnergyMode = mode
		}
	}
	if details.Empty() {
		details = nil
	}
	return &battery, details
}

func (c *Collector) collectGPU() *stats.GPUStat {
	reading, err := c.gpu.Read()
	if err != nil {
		// Registry miss: smoothing state stays untouched so the next
		// successful pass continues the same moving average.
		return nil
	}

	return &stats.GPUStat{
		DeviceUtilization:   c.engine.Smooth(rate.ChannelDevice, reading.Device),
		RendererUtilization: c.engine.Smooth(rate.ChannelRenderer, reading.Renderer),
		TilerUtilization:    c.engine.Smooth(rate.ChannelTiler, reading.Tiler),
		InUseBytes:          reading.InUseBytes,
		DriverBytes:         reading.DriverBytes,
		AllocatedBytes:      reading.AllocatedBytes,
		DeviceCount:         reading.DeviceCount,
		Model:               reading.Model,
		Architecture:        reading.Architecture,
		PowerState:          reading.PowerState,
	}
}
