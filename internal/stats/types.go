package stats

import "time"

// PowerSource identifies the current energy-supply mode.
type PowerSource string

const (
	PowerSourceAC      PowerSource = "ac"
	PowerSourceBattery PowerSource = "battery"
	PowerSourceUnknown PowerSource = "unknown"
)

// EnergyMode is the active power-management preference. Values other than
// the listed constants carry the raw platform label through unchanged.
type EnergyMode string

const (
	EnergyModeLowPower  EnergyMode = "low_power"
	EnergyModeAutomatic EnergyMode = "automatic"
	EnergyModeHighPower EnergyMode = "high_power"
)

// Snapshot is one fully-assembled set of subsystem readings. A nil subsystem
// pointer means that data source was unavailable on this pass; values are
// never silently defaulted to zero. Snapshots are built once per sampling
// pass and never mutated afterwards.
type Snapshot struct {
	CPU            *CPUStat        `json:"cpu"`
	Memory         *MemoryStat     `json:"memory"`
	Battery        *BatteryStat    `json:"battery"`
	BatteryDetails *BatteryDetails `json:"battery_details"`
	Storage        *StorageStat    `json:"storage"`
	GPU            *GPUStat        `json:"gpu"`
	Timestamp      time.Time       `json:"timestamp"`
}

// CoreUsage is the busy fraction of a single logical core over the last
// sampling interval.
type CoreUsage struct {
	Core  int     `json:"core"`
	Usage float64 `json:"usage"`
}

// CPUBreakdown splits the last interval into scheduler-state fractions.
// Each field is clamped to [0,1] independently, so the sum is expected but
// not guaranteed to be 1.
type CPUBreakdown struct {
	User   float64 `json:"user"`
	System float64 `json:"system"`
	Idle   float64 `json:"idle"`
	Nice   float64 `json:"nice"`
}

// CPUStat contains CPU utilization and hardware identity. Usage and
// Breakdown are nil until a second sample establishes a tick delta.
type CPUStat struct {
	Usage         *float64      `json:"usage"`
	LogicalCores  int           `json:"logical_cores"`
	PhysicalCores *int          `json:"physical_cores,omitempty"`
	LoadAverages  []float64     `json:"load_averages,omitempty"`
	PerCore       []CoreUsage   `json:"per_core,omitempty"`
	Brand         string        `json:"brand,omitempty"`
	FrequencyGHz  *float64      `json:"frequency_ghz,omitempty"`
	Architecture  string        `json:"architecture,omitempty"`
	Breakdown     *CPUBreakdown `json:"breakdown,omitempty"`
}

// MemoryStat contains virtual-memory usage in bytes. Wired and Compressed
// stay zero on platforms whose counters do not distinguish them.
type MemoryStat struct {
	UsedBytes       uint64 `json:"used_bytes"`
	TotalBytes      uint64 `json:"total_bytes"`
	WiredBytes      uint64 `json:"wired_bytes"`
	CompressedBytes uint64 `json:"compressed_bytes"`
}

// BatteryStat is always produced with a Status string, even when no battery
// is installed or every numeric reading failed.
type BatteryStat struct {
	Level         *float64       `json:"level"`
	IsCharging    *bool          `json:"is_charging"`
	Status        string         `json:"status"`
	TimeRemaining *time.Duration `json:"time_remaining,omitempty"`
	PowerSource   PowerSource    `json:"power_source"`
}

// BatteryDetails carries extended diagnostic readings. Every field is
// independently optional; a details object with no populated field is
// represented as a nil *BatteryDetails, never as an all-null struct.
type BatteryDetails struct {
	CurrentCapacityMAh *float64    `json:"current_capacity_mah,omitempty"`
	MaxCapacityMAh     *float64    `json:"max_capacity_mah,omitempty"`
	DesignCapacityMAh  *float64    `json:"design_capacity_mah,omitempty"`
	HealthPct          *float64    `json:"health_pct,omitempty"`
	TemperatureC       *float64    `json:"temperature_c,omitempty"`
	VoltageV           *float64    `json:"voltage_v,omitempty"`
	AmperageA          *float64    `json:"amperage_a,omitempty"`
	WattageW           *float64    `json:"wattage_w,omitempty"`
	CycleCount         *int        `json:"cycle_count,omitempty"`
	Technology         *string     `json:"technology,omitempty"`
	Manufacturer       *string     `json:"manufacturer,omitempty"`
	ModelName          *string     `json:"model_name,omitempty"`
	SerialNumber       *string     `json:"serial_number,omitempty"`
	AdapterOnline      *bool       `json:"adapter_online,omitempty"`
	AdapterVoltageV    *float64    `json:"adapter_voltage_v,omitempty"`
	AdapterAmperageA   *float64    `json:"adapter_amperage_a,omitempty"`
	AdapterWattageW    *float64    `json:"adapter_wattage_w,omitempty"`
	EnergyMode         *EnergyMode `json:"energy_mode,omitempty"`
}

// Empty reports whether no field of the details object is populated.
func (d *BatteryDetails) Empty() bool {
	if d == nil {
		return true
	}
	return d.CurrentCapacityMAh == nil &&
		d.MaxCapacityMAh == nil &&
		d.DesignCapacityMAh == nil &&
		d.HealthPct == nil &&
		d.TemperatureC == nil &&
		d.VoltageV == nil &&
		d.AmperageA == nil &&
		d.WattageW == nil &&
		d.CycleCount == nil &&
		d.Technology == nil &&
		d.Manufacturer == nil &&
		d.ModelName == nil &&
		d.SerialNumber == nil &&
		d.AdapterOnline == nil &&
		d.AdapterVoltageV == nil &&
		d.AdapterAmperageA == nil &&
		d.AdapterWattageW == nil &&
		d.EnergyMode == nil
}

// StorageStat contains filesystem capacity for the monitored volume.
// TotalBytes is optional because some queries only yield free space.
type StorageStat struct {
	TotalBytes     *uint64 `json:"total_bytes,omitempty"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
}

// GPUStat aggregates the accelerator registry readings. Utilization
// channels are EMA-smoothed fractions in [0,1]; memory byte fields are
// summed across devices. A registry with no usable device yields a nil
// *GPUStat on the snapshot.
type GPUStat struct {
	DeviceUtilization   *float64 `json:"device_utilization"`
	RendererUtilization *float64 `json:"renderer_utilization"`
	TilerUtilization    *float64 `json:"tiler_utilization"`
	InUseBytes          *uint64  `json:"in_use_bytes,omitempty"`
	DriverBytes         *uint64  `json:"driver_bytes,omitempty"`
	AllocatedBytes      *uint64  `json:"allocated_bytes,omitempty"`
	DeviceCount         int      `json:"device_count"`
	Model               string   `json:"model,omitempty"`
	Architecture        string   `json:"architecture,omitempty"`
	PowerState          string   `json:"power_state,omitempty"`
}
