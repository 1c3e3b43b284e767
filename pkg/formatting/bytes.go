// Package formatting converts between byte counts and human-readable sizes.
package formatting

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders a byte count using base-1024 units with the given precision.
func FormatBytes(n int64, precision int) string {
	if n < 1024 {
		return strconv.FormatInt(n, 10) + " B"
	}

	precision = max(precision, 0)

	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}

	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses sizes such as "50MB", "1.5 GiB", or "4096" into a byte count.
// Units are base-1024 and case-insensitive; the IEC "iB" spelling is accepted.
// A bare number is a byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})

	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.TrimSpace(s[split:])
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	unit = strings.ToUpper(unit)
	if len(unit) == 3 && strings.HasSuffix(unit, "IB") {
		unit = unit[:1] + "B"
	}
	if unit == "" {
		unit = "B"
	}

	idx := slices.Index(units, unit)
	if idx == -1 {
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}

	return int64(value * math.Pow(1024, float64(idx))), nil
}
