package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hostpulse/vitals-agent/internal/format"
	"github.com/hostpulse/vitals-agent/internal/stats"
	"github.com/hostpulse/vitals-agent/internal/store"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	store *store.Store
}

// NewHandlers creates a new handlers instance
func NewHandlers(st *store.Store) *Handlers {
	return &Handlers{store: st}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

// GetSnapshot handles GET /api/snapshot
func (h *Handlers) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Latest())
}

// GetCPU handles GET /api/snapshot/cpu. A null body means the CPU source
// was unavailable on the last pass.
func (h *Handlers) GetCPU(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Latest().CPU)
}

// GetMemory handles GET /api/snapshot/memory
func (h *Handlers) GetMemory(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Latest().Memory)
}

// GetBattery handles GET /api/snapshot/battery
func (h *Handlers) GetBattery(c *gin.Context) {
	snapshot := h.store.Latest()
	c.JSON(http.StatusOK, gin.H{
		"battery": snapshot.Battery,
		"details": snapshot.BatteryDetails,
	})
}

// GetStorage handles GET /api/snapshot/storage
func (h *Handlers) GetStorage(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Latest().Storage)
}

// GetGPU handles GET /api/snapshot/gpu
func (h *Handlers) GetGPU(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Latest().GPU)
}

// GetSummary handles GET /api/summary, rendering the snapshot as one
// compact status line
func (h *Handlers) GetSummary(c *gin.Context) {
	c.String(http.StatusOK, Summary(h.store.Latest()))
}

// Refresh handles POST /api/refresh, triggering an out-of-band sampling
// pass and returning the fresh snapshot
func (h *Handlers) Refresh(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Refresh())
}

// StreamEvents handles GET /api/events with Server-Sent Events, pushing
// every newly published snapshot
func (h *Handlers) StreamEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch, cancel := h.store.Subscribe()
	defer cancel()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot, ok := <-ch:
			if !ok {
				return false
			}
			data, _ := json.Marshal(snapshot)
			c.SSEvent("snapshot", string(data))
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// Summary renders a snapshot as a single status line. Absent subsystems
// render as placeholders, never as zeros.
func Summary(snapshot *stats.Snapshot) string {
	if snapshot == nil {
		return "Collecting..."
	}

	parts := make([]string, 0, 5)

	cpuLabel := format.Placeholder
	if snapshot.CPU != nil {
		cpuLabel = format.Percent(snapshot.CPU.Usage)
	}
	parts = append(parts, "CPU "+cpuLabel)

	memLabel := format.Placeholder
	if snapshot.Memory != nil {
		memLabel = fmt.Sprintf("%s / %s",
			format.Bytes(snapshot.Memory.UsedBytes),
			format.Bytes(snapshot.Memory.TotalBytes))
	}
	parts = append(parts, "MEM "+memLabel)

	diskLabel := format.Placeholder
	if snapshot.Storage != nil {
		diskLabel = format.Bytes(snapshot.Storage.AvailableBytes) + " free"
	}
	parts = append(parts, "DISK "+diskLabel)

	if snapshot.Battery != nil {
		label := format.Percent(snapshot.Battery.Level)
		if snapshot.Battery.TimeRemaining != nil {
			label += " (" + format.Duration(snapshot.Battery.TimeRemaining) + ")"
		}
		parts = append(parts, "BAT "+label)
	}

	if snapshot.GPU != nil {
		parts = append(parts, "GPU "+format.Percent(snapshot.GPU.DeviceUtilization))
	}

	return strings.Join(parts, " | ")
}
