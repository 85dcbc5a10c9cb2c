// Package format renders snapshot values for compact text display. Absent
// values always render as the "--" placeholder, never as zero.
package format

import (
	"fmt"
	"time"
)

// Placeholder marks a value whose data source was unavailable.
const Placeholder = "--"

// Percent renders a fraction in [0,1] as a whole percentage.
func Percent(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.0f%%", *v*100)
}

// Bytes renders a byte count with IEC units.
func Bytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	value := float64(n)
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB"}
	suffix := ""
	for _, s := range suffixes {
		value /= unit
		suffix = s
		if value < unit {
			break
		}
	}
	return fmt.Sprintf("%.1f %s", value, suffix)
}

// BytesOpt renders an optional byte count.
func BytesOpt(n *uint64) string {
	if n == nil {
		return Placeholder
	}
	return Bytes(*n)
}

// Duration renders a time estimate as hours and minutes.
func Duration(d *time.Duration) string {
	if d == nil {
		return Placeholder
	}
	minutes := int(d.Minutes())
	if minutes < 1 {
		return "<1m"
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// Frequency renders a GHz value.
func Frequency(ghz *float64) string {
	if ghz == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.2f GHz", *ghz)
}
