package source

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPURead_SingleDevice(t *testing.T) {
	root := t.TempDir()
	device := filepath.Join(root, "card0", "device")
	writeAttr(t, device, "gpu_busy_percent", "42")
	writeAttr(t, device, "mem_info_vram_used", "1073741824")
	writeAttr(t, device, "mem_info_gtt_used", "268435456")
	writeAttr(t, device, "mem_info_vram_total", "8589934592")
	writeAttr(t, device, "power_dpm_state", "performance")

	reading, err := NewGPUSource(root).Read()
	require.NoError(t, err)

	assert.Equal(t, 1, reading.DeviceCount)
	require.NotNil(t, reading.Device)
	assert.InDelta(t, 0.42, *reading.Device, 1e-9)
	assert.Equal(t, uint64(1073741824), *reading.InUseBytes)
	assert.Equal(t, uint64(268435456), *reading.DriverBytes)
	assert.Equal(t, uint64(8589934592), *reading.AllocatedBytes)
	assert.Equal(t, "performance", reading.PowerState)
}

func TestGPURead_MultipleDevicesSumBytes(t *testing.T) {
	root := t.TempDir()
	for _, card := range []string{"card0", "card1"} {
		device := filepath.Join(root, card, "device")
		writeAttr(t, device, "gpu_busy_percent", "50")
		writeAttr(t, device, "mem_info_vram_used", "1000")
	}

	reading, err := NewGPUSource(root).Read()
	require.NoError(t, err)

	assert.Equal(t, 2, reading.DeviceCount)
	assert.Equal(t, uint64(2000), *reading.InUseBytes)

	// The busy fraction comes from the first device only
	require.NotNil(t, reading.Device)
	assert.InDelta(t, 0.50, *reading.Device, 1e-9)
}

func TestGPURead_SkipsConnectorNodes(t *testing.T) {
	root := t.TempDir()
	device := filepath.Join(root, "card0", "device")
	writeAttr(t, device, "gpu_busy_percent", "10")

	connector := filepath.Join(root, "card0-DP-1", "device")
	writeAttr(t, connector, "gpu_busy_percent", "99")

	render := filepath.Join(root, "renderD128", "device")
	writeAttr(t, render, "gpu_busy_percent", "99")

	reading, err := NewGPUSource(root).Read()
	require.NoError(t, err)

	assert.Equal(t, 1, reading.DeviceCount)
	assert.InDelta(t, 0.10, *reading.Device, 1e-9)
}

func TestGPURead_MemoryBusyRidesRendererChannel(t *testing.T) {
	root := t.TempDir()
	device := filepath.Join(root, "card0", "device")
	writeAttr(t, device, "gpu_busy_percent", "42")
	writeAttr(t, device, "mem_busy_percent", "17")

	reading, err := NewGPUSource(root).Read()
	require.NoError(t, err)

	require.NotNil(t, reading.Renderer)
	assert.InDelta(t, 0.17, *reading.Renderer, 1e-9)
	assert.Nil(t, reading.Tiler)
}

func TestGPURead_MemoryBusyOnlyIsUsable(t *testing.T) {
	root := t.TempDir()
	device := filepath.Join(root, "card0", "device")
	writeAttr(t, device, "mem_busy_percent", "55")

	reading, err := NewGPUSource(root).Read()
	require.NoError(t, err)

	assert.Nil(t, reading.Device)
	require.NotNil(t, reading.Renderer)
	assert.InDelta(t, 0.55, *reading.Renderer, 1e-9)
}

func TestGPURead_BusyPercentClamped(t *testing.T) {
	root := t.TempDir()
	device := filepath.Join(root, "card0", "device")
	writeAttr(t, device, "gpu_busy_percent", "130")

	reading, err := NewGPUSource(root).Read()
	require.NoError(t, err)

	require.NotNil(t, reading.Device)
	assert.Equal(t, 1.0, *reading.Device)
}

func TestGPURead_EmptyRegistry(t *testing.T) {
	_, err := NewGPUSource(t.TempDir()).Read()
	assert.Error(t, err)
}

func TestGPURead_NoUsableCounters(t *testing.T) {
	root := t.TempDir()
	device := filepath.Join(root, "card0", "device")
	writeAttr(t, device, "power_dpm_state", "performance")

	_, err := NewGPUSource(root).Read()
	assert.Error(t, err)
}

func TestGPURead_MissingRegistry(t *testing.T) {
	_, err := NewGPUSource(filepath.Join(t.TempDir(), "nope")).Read()
	assert.Error(t, err)
}

func TestIsCardEntry(t *testing.T) {
	assert.True(t, isCardEntry("card0"))
	assert.True(t, isCardEntry("card12"))
	assert.False(t, isCardEntry("card0-DP-1"))
	assert.False(t, isCardEntry("card"))
	assert.False(t, isCardEntry("renderD128"))
	assert.False(t, isCardEntry("version"))
}

func TestNormalizePCIID(t *testing.T) {
	assert.Equal(t, "1002", normalizePCIID("0x1002"))
	assert.Equal(t, "10de", normalizePCIID("0x10DE"))
	assert.Equal(t, "0042", normalizePCIID("42"))
}
