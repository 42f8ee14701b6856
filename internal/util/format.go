package util

import (
	"strconv"

	"github.com/dustin/go-humanize"
)

// Placeholder is shown for metrics that cannot be computed yet. It is distinct
// from a computed zero.
const Placeholder = "—"

// FormatMoney renders v with thousands separators and two decimals, e.g. "12,345.60".
func FormatMoney(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// FormatCount renders an integer count with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatBytes renders a byte size for CLI output, e.g. "1.2 MB".
func FormatBytes(n int64) string {
	if n < 0 {
		return strconv.FormatInt(n, 10)
	}
	return humanize.Bytes(uint64(n))
}
