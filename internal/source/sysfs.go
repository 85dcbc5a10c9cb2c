package source

import (
	"os"
	"strconv"
	"strings"
)

// readSysString reads a sysfs attribute file and returns its trimmed
// content. The boolean is false when the file is missing or empty.
func readSysString(path string) (string, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(string(raw))
	if value == "" {
		return "", false
	}
	return value, true
}

// readSysInt reads a sysfs attribute file as a signed integer.
func readSysInt(path string) (int64, bool) {
	value, ok := readSysString(path)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// readSysUint reads a sysfs attribute file as an unsigned integer,
// accepting an optional 0x prefix.
func readSysUint(path string) (uint64, bool) {
	value, ok := readSysString(path)
	if !ok {
		return 0, false
	}
	base := 10
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		value = value[2:]
		base = 16
	}
	n, err := strconv.ParseUint(value, base, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
