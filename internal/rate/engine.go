package rate

import (
	"time"

	"github.com/hostpulse/vitals-agent/internal/source"
	"github.com/hostpulse/vitals-agent/internal/stats"
)

// SmoothingFactor is the EMA damping weight applied to the previous
// smoothed value of each GPU utilization channel.
const SmoothingFactor = 0.65

// Channel identifies one smoothed GPU utilization stream.
type Channel string

const (
	ChannelDevice   Channel = "device"
	ChannelRenderer Channel = "renderer"
	ChannelTiler    Channel = "tiler"
)

// Engine converts consecutive raw counter readings into normalized
// utilization values. It owns the previous-sample state: aggregate ticks,
// per-core ticks keyed by core index, and one EMA accumulator per GPU
// channel. Not safe for concurrent use; the caller serializes passes.
type Engine struct {
	prevAggregate *source.CPUTicks
	prevCores     map[int]source.CPUTicks
	smoothed      map[Channel]float64
}

// NewEngine creates an Engine with no history. The first reading fed
// through any rate computation seeds state and yields an absent result.
func NewEngine() *Engine {
	return &Engine{
		prevCores: make(map[int]source.CPUTicks),
		smoothed:  make(map[Channel]float64),
	}
}

// CPUUsage derives the busy fraction and per-state breakdown from the
// aggregate tick counter. The previous reading is always replaced; nil
// results mean no usable delta exists yet (first call, or a zero/negative
// total delta after a counter reset).
func (e *Engine) CPUUsage(cur source.CPUTicks) (*float64, *stats.CPUBreakdown) {
	prev := e.prevAggregate
	e.prevAggregate = &cur
	if prev == nil {
		return nil, nil
	}

	dUser := cur.User - prev.User
	dSystem := cur.System - prev.System
	dIdle := cur.Idle - prev.Idle
	dNice := cur.Nice - prev.Nice
	total := dUser + dSystem + dIdle + dNice
	if total <= 0 {
		return nil, nil
	}

	usage := clamp01(1 - dIdle/total)
	breakdown := &stats.CPUBreakdown{
		User:   clamp01(dUser / total),
		System: clamp01(dSystem / total),
		Idle:   clamp01(dIdle / total),
		Nice:   clamp01(dNice / total),
	}
	return &usage, breakdown
}

// PerCoreUsage applies the delta formula independently per core index.
// Cores with no usable delta this interval are omitted from the result,
// but the previous-tick map is updated for every observed core.
func (e *Engine) PerCoreUsage(cur []source.CPUTicks) []stats.CoreUsage {
	var usages []stats.CoreUsage
	for i, ticks := range cur {
		prev, seen := e.prevCores[i]
		e.prevCores[i] = ticks
		if !seen {
			continue
		}
		total := ticks.Total() - prev.Total()
		if total <= 0 {
			continue
		}
		usages = append(usages, stats.CoreUsage{
			Core:  i,
			Usage: clamp01(1 - (ticks.Idle-prev.Idle)/total),
		})
	}
	return usages
}

// Smooth folds a raw utilization reading into the channel's moving
// average. An absent reading leaves the accumulator untouched and returns
// the previous smoothed value, avoiding flicker from intermittent registry
// misses. The first reading seeds the accumulator directly.
func (e *Engine) Smooth(channel Channel, raw *float64) *float64 {
	prev, seeded := e.smoothed[channel]
	if raw == nil {
		if !seeded {
			return nil
		}
		value := prev
		return &value
	}

	current := clamp01(*raw)
	if !seeded {
		e.smoothed[channel] = current
		return &current
	}

	value := prev*SmoothingFactor + current*(1-SmoothingFactor)
	e.smoothed[channel] = value
	return &value
}

// TimeRemaining selects the battery estimate: time-to-full while charging,
// time-to-empty while discharging, otherwise none. Zero and negative
// estimates are never reported.
func TimeRemaining(isCharging *bool, toFull, toEmpty *time.Duration) *time.Duration {
	if isCharging == nil {
		return nil
	}
	var candidate *time.Duration
	if *isCharging {
		candidate = toFull
	} else {
		candidate = toEmpty
	}
	if candidate == nil || *candidate <= 0 {
		return nil
	}
	remaining := *candidate
	return &remaining
}

// UsedBytes derives used capacity as max(0, total-available). Noisy
// readings where available exceeds total report zero used, not an error.
func UsedBytes(total *uint64, available uint64) uint64 {
	if total == nil || available >= *total {
		return 0
	}
	return *total - available
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
