package source

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
)

// StorageSource performs the volume capacity query for one mount point.
// The available figure comes from the non-privileged block count, which
// reserves headroom for system housekeeping and is the more honest
// free-space number.
type StorageSource struct {
	path  string
	usage func(path string) (*disk.UsageStat, error)
}

// NewStorageSource creates a StorageSource for the given mount point.
func NewStorageSource(path string) *StorageSource {
	if path == "" {
		path = "/"
	}
	return &StorageSource{
		path:  path,
		usage: disk.Usage,
	}
}

// Read returns the raw capacity reading. Total is nil when the query only
// yields available space.
func (s *StorageSource) Read() (StorageReading, error) {
	u, err := s.usage(s.path)
	if err != nil {
		return StorageReading{}, fmt.Errorf("failed to get disk usage for %s: %w", s.path, err)
	}

	reading := StorageReading{AvailableBytes: u.Free}
	if u.Total > 0 {
		total := u.Total
		reading.TotalBytes = &total
	}
	return reading, nil
}
