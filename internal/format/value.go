package format

import (
	"fmt"
	"math"
	"strconv"
)

// FormatValue renders a result in the shortest form that round-trips,
// switching to exponent notation for very large or small magnitudes.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatCall renders a function application such as "f2(4)".
func FormatCall(fn fmt.Stringer, arg int) string {
	return fmt.Sprintf("%s(%d)", fn, arg)
}

// FormatBytes renders a byte count with binary units.
func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
