package source

import (
	"time"

	"github.com/hostpulse/vitals-agent/internal/stats"
)

// CPUTicks is one raw reading of the 4-bucket monotonic tick counter.
// Values are cumulative scheduler time since boot; rate conversion happens
// in the rate engine, never here.
type CPUTicks struct {
	User   float64
	System float64
	Idle   float64
	Nice   float64
}

// Total returns the sum of all four buckets.
func (t CPUTicks) Total() float64 {
	return t.User + t.System + t.Idle + t.Nice
}

// BatteryReading is the raw power-source description. Stat is always
// populated with a status string; Details collapses to nil when every
// extended field is absent. Time estimates are passed through raw so the
// rate engine can select between them.
type BatteryReading struct {
	Stat        stats.BatteryStat
	Details     *stats.BatteryDetails
	TimeToFull  *time.Duration
	TimeToEmpty *time.Duration
}

// StorageReading is the raw volume capacity query result.
type StorageReading struct {
	TotalBytes     *uint64
	AvailableBytes uint64
}

// GPUReading aggregates raw accelerator registry values across devices.
// Utilization channels are fractions in [0,1], already divided down from
// the registry's percentage encoding but not yet smoothed.
type GPUReading struct {
	Device   *float64
	Renderer *float64
	Tiler    *float64

	InUseBytes     *uint64
	DriverBytes    *uint64
	AllocatedBytes *uint64

	DeviceCount  int
	Model        string
	Architecture string
	PowerState   string
}
