package chartui

import (
	"fmt"
	"strings"
)

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatVolume formats a traded-volume value with B/M/K suffixes.
func FormatVolume(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// FormatPrice formats a price with precision adapted to its magnitude, so
// axis labels stay narrow for large prices and meaningful for penny ones.
func FormatPrice(p float64) string {
	switch {
	case p >= 1000:
		return fmt.Sprintf("%.0f", p)
	case p >= 100:
		return fmt.Sprintf("%.1f", p)
	case p >= 1:
		return fmt.Sprintf("%.2f", p)
	default:
		return fmt.Sprintf("%.4f", p)
	}
}

// shortDate trims a YYYY-MM-DD date to MM-DD for the X axis. Anything else
// passes through unchanged.
func shortDate(d string) string {
	if len(d) == 10 && d[4] == '-' && d[7] == '-' {
		return d[5:]
	}
	return d
}
