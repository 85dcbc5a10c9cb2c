package source

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hostpulse/vitals-agent/internal/stats"
)

const defaultPowerSupplyRoot = "/sys/class/power_supply"

// BatterySource queries the power-supply description tables. It never
// fails: absence of a battery, a missing "present" flag, or a total query
// failure all map to a present-but-empty BatteryStat with an explanatory
// status string, so callers always get a status to display.
type BatterySource struct {
	root string
}

// NewBatterySource creates a BatterySource. An empty root selects the
// platform default power-supply registry.
func NewBatterySource(root string) *BatterySource {
	if root == "" {
		root = defaultPowerSupplyRoot
	}
	return &BatterySource{root: root}
}

// Read returns the current power-source description.
func (s *BatterySource) Read() BatteryReading {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return BatteryReading{
			Stat: stats.BatteryStat{
				Status:      "Battery data unavailable",
				PowerSource: stats.PowerSourceUnknown,
			},
		}
	}

	var batteryDir, mainsDir string
	for _, entry := range entries {
		dir := filepath.Join(s.root, entry.Name())
		kind, ok := readSysString(filepath.Join(dir, "type"))
		if !ok {
			continue
		}
		switch kind {
		case "Battery":
			if batteryDir == "" {
				batteryDir = dir
			}
		case "Mains":
			if mainsDir == "" {
				mainsDir = dir
			}
		}
	}

	details := &stats.BatteryDetails{}
	readAdapter(mainsDir, details)

	powerSource := stats.PowerSourceUnknown
	if online, ok := readSysInt(filepath.Join(mainsDir, "online")); mainsDir != "" && ok {
		if online > 0 {
			powerSource = stats.PowerSourceAC
		} else if batteryDir != "" {
			powerSource = stats.PowerSourceBattery
		}
	} else if batteryDir != "" {
		powerSource = stats.PowerSourceBattery
	}

	reading := BatteryReading{
		Stat: stats.BatteryStat{
			Status:      "No battery detected",
			PowerSource: powerSource,
		},
	}

	if batteryDir == "" {
		reading.Details = collapseDetails(details)
		return reading
	}
	if present, ok := readSysInt(filepath.Join(batteryDir, "present")); ok && present == 0 {
		reading.Details = collapseDetails(details)
		return reading
	}

	readBatteryStat(batteryDir, &reading)
	readBatteryDetails(batteryDir, details)
	reading.Details = collapseDetails(details)
	return reading
}

// readBatteryStat fills the always-present stat fields from the battery's
// attribute table.
func readBatteryStat(dir string, reading *BatteryReading) {
	reading.Stat.Status = "Unknown status"
	if status, ok := readSysString(filepath.Join(dir, "status")); ok {
		reading.Stat.Status = status
		switch status {
		case "Charging":
			charging := true
			reading.Stat.IsCharging = &charging
		case "Discharging", "Not charging", "Full":
			charging := false
			reading.Stat.IsCharging = &charging
		}
	}

	// A negative capacity is the "no data" sentinel, not a real level.
	if capacity, ok := readSysInt(filepath.Join(dir, "capacity")); ok && capacity >= 0 {
		level := float64(capacity) / 100.0
		if level > 1 {
			level = 1
		}
		reading.Stat.Level = &level
	}

	if sec, ok := readSysInt(filepath.Join(dir, "time_to_full_now")); ok && sec > 0 {
		d := time.Duration(sec) * time.Second
		reading.TimeToFull = &d
	}
	if sec, ok := readSysInt(filepath.Join(dir, "time_to_empty_now")); ok && sec > 0 {
		d := time.Duration(sec) * time.Second
		reading.TimeToEmpty = &d
	}
}

// readBatteryDetails pulls the extended attributes. Charge-based keys are
// tried before their legacy energy-based aliases; raw encodings are
// unit-converted (deci-degrees to Celsius, microvolts to volts).
func readBatteryDetails(dir string, details *stats.BatteryDetails) {
	voltage, hasVoltage := readMicro(dir, "voltage_now")
	if hasVoltage {
		details.VoltageV = &voltage
	}

	details.CurrentCapacityMAh = capacityMAh(dir, "charge_now", "energy_now", voltage, hasVoltage)
	details.MaxCapacityMAh = capacityMAh(dir, "charge_full", "energy_full", voltage, hasVoltage)
	details.DesignCapacityMAh = capacityMAh(dir, "charge_full_design", "energy_full_design", voltage, hasVoltage)

	if details.MaxCapacityMAh != nil && details.DesignCapacityMAh != nil && *details.DesignCapacityMAh > 0 {
		health := *details.MaxCapacityMAh / *details.DesignCapacityMAh * 100.0
		details.HealthPct = &health
	}

	if deciDeg, ok := readSysInt(filepath.Join(dir, "temp")); ok {
		celsius := float64(deciDeg) / 10.0
		details.TemperatureC = &celsius
	}

	amps, hasAmps := readMicro(dir, "current_now")
	if hasAmps {
		details.AmperageA = &amps
	}

	if watts, ok := readMicro(dir, "power_now"); ok {
		details.WattageW = &watts
	} else if hasVoltage && hasAmps {
		watts := voltage * amps
		details.WattageW = &watts
	}

	if cycles, ok := readSysInt(filepath.Join(dir, "cycle_count")); ok && cycles > 0 {
		n := int(cycles)
		details.CycleCount = &n
	}

	if v, ok := readSysString(filepath.Join(dir, "technology")); ok {
		details.Technology = &v
	}
	if v, ok := readSysString(filepath.Join(dir, "manufacturer")); ok {
		details.Manufacturer = &v
	}
	if v, ok := readSysString(filepath.Join(dir, "model_name")); ok {
		details.ModelName = &v
	}
	if v, ok := readSysString(filepath.Join(dir, "serial_number")); ok {
		details.SerialNumber = &v
	}
}

// readAdapter fills adapter telemetry from the mains supply when exposed.
func readAdapter(dir string, details *stats.BatteryDetails) {
	if dir == "" {
		return
	}
	if online, ok := readSysInt(filepath.Join(dir, "online")); ok {
		connected := online > 0
		details.AdapterOnline = &connected
	}
	voltage, hasVoltage := readMicro(dir, "voltage_now")
	if hasVoltage {
		details.AdapterVoltageV = &voltage
	}
	amps, hasAmps := readMicro(dir, "current_now")
	if hasAmps {
		details.AdapterAmperageA = &amps
	}
	if hasVoltage && hasAmps {
		watts := voltage * amps
		details.AdapterWattageW = &watts
	}
}

// capacityMAh reads a charge attribute in mAh, converting the legacy
// energy encoding through the pack voltage when only that alias exists.
func capacityMAh(dir, chargeKey, energyKey string, voltageV float64, hasVoltage bool) *float64 {
	if microAmpHours, ok := readSysInt(filepath.Join(dir, chargeKey)); ok && microAmpHours > 0 {
		mah := float64(microAmpHours) / 1000.0
		return &mah
	}
	if microWattHours, ok := readSysInt(filepath.Join(dir, energyKey)); ok && microWattHours > 0 && hasVoltage && voltageV > 0 {
		mah := float64(microWattHours) / voltageV / 1000.0
		return &mah
	}
	return nil
}

// readMicro reads a micro-unit attribute (microvolts, microamps,
// microwatts) as its base unit.
func readMicro(dir, key string) (float64, bool) {
	n, ok := readSysInt(filepath.Join(dir, key))
	if !ok {
		return 0, false
	}
	return float64(n) / 1e6, true
}

// collapseDetails returns nil when no field is populated.
func collapseDetails(details *stats.BatteryDetails) *stats.BatteryDetails {
	if details.Empty() {
		return nil
	}
	return details
}
