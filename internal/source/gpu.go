package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jaypipes/pcidb"
)

const defaultDRMRoot = "/sys/class/drm"

// GPUSource enumerates accelerator devices in the DRM registry and reads
// each device's performance counters and identity properties. Percentage
// counters are divided by 100 and clamped to [0,1] at the source; byte
// counters are summed across devices. Smoothing happens in the rate
// engine, not here.
type GPUSource struct {
	root string

	pciOnce sync.Once
	pciDB   *pcidb.PCIDB
}

// NewGPUSource creates a GPUSource. An empty root selects the platform
// default DRM registry.
func NewGPUSource(root string) *GPUSource {
	if root == "" {
		root = defaultDRMRoot
	}
	return &GPUSource{root: root}
}

// Read returns the aggregated raw GPU reading. An error means the registry
// could not be opened or no device produced a single usable counter; the
// whole GPU stat is absent on that pass.
func (s *GPUSource) Read() (*GPUReading, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate gpu registry: %w", err)
	}

	reading := &GPUReading{}
	var inUse, driver, allocated uint64
	var haveInUse, haveDriver, haveAllocated bool

	for _, entry := range entries {
		name := entry.Name()
		if !isCardEntry(name) {
			continue
		}
		device := filepath.Join(s.root, name, "device")
		if _, err := os.Stat(device); err != nil {
			continue
		}
		reading.DeviceCount++

		// Busy counters only come from the first device exposing them;
		// a utilization fraction does not sum across accelerators.
		if reading.Device == nil {
			reading.Device = readBusyFraction(filepath.Join(device, "gpu_busy_percent"))
		}
		// The memory-controller busy counter is the only other utilization
		// stream the registry exposes; it rides the renderer channel.
		if reading.Renderer == nil {
			reading.Renderer = readBusyFraction(filepath.Join(device, "mem_busy_percent"))
		}

		if v, ok := readSysUint(filepath.Join(device, "mem_info_vram_used")); ok {
			inUse += v
			haveInUse = true
		}
		if v, ok := readSysUint(filepath.Join(device, "mem_info_gtt_used")); ok {
			driver += v
			haveDriver = true
		}
		if v, ok := readSysUint(filepath.Join(device, "mem_info_vram_total")); ok {
			allocated += v
			haveAllocated = true
		}

		if reading.Model == "" {
			reading.Model, reading.Architecture = s.identify(device)
		}
		if reading.PowerState == "" {
			if state, ok := readSysString(filepath.Join(device, "power_dpm_state")); ok {
				reading.PowerState = state
			}
		}
	}

	if haveInUse {
		reading.InUseBytes = &inUse
	}
	if haveDriver {
		reading.DriverBytes = &driver
	}
	if haveAllocated {
		reading.AllocatedBytes = &allocated
	}

	if reading.DeviceCount == 0 {
		return nil, fmt.Errorf("no gpu devices in registry")
	}
	if reading.Device == nil && reading.Renderer == nil && !haveInUse && !haveDriver && !haveAllocated {
		return nil, fmt.Errorf("gpu registry exposed no usable counters")
	}
	return reading, nil
}

// identify resolves the device's model and vendor names through the PCI
// database. Best-effort: a missing database leaves both empty.
func (s *GPUSource) identify(deviceDir string) (model, architecture string) {
	vendorID, okV := readSysString(filepath.Join(deviceDir, "vendor"))
	deviceID, okD := readSysString(filepath.Join(deviceDir, "device"))
	if !okV || !okD {
		return "", ""
	}

	s.pciOnce.Do(func() {
		db, err := pcidb.New()
		if err == nil {
			s.pciDB = db
		}
	})
	if s.pciDB == nil {
		return "", ""
	}

	vendorKey := normalizePCIID(vendorID)
	productKey := vendorKey + normalizePCIID(deviceID)
	if product, ok := s.pciDB.Products[productKey]; ok && product != nil {
		model = product.Name
	}
	if vendor, ok := s.pciDB.Vendors[vendorKey]; ok && vendor != nil {
		architecture = vendor.Name
	}
	return model, architecture
}

// readBusyFraction reads a percentage counter as a clamped fraction.
func readBusyFraction(path string) *float64 {
	n, ok := readSysInt(path)
	if !ok || n < 0 {
		return nil
	}
	fraction := float64(n) / 100.0
	if fraction > 1 {
		fraction = 1
	}
	return &fraction
}

// isCardEntry matches top-level cardN entries, skipping connector nodes
// like card0-DP-1.
func isCardEntry(name string) bool {
	if !strings.HasPrefix(name, "card") || strings.ContainsRune(name, '-') {
		return false
	}
	suffix := name[len("card"):]
	if suffix == "" {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normalizePCIID(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.TrimPrefix(value, "0x")
	if len(value) < 4 {
		value = strings.Repeat("0", 4-len(value)) + value
	}
	return value
}
