package timer

import (
	"strconv"
)

// FormatComponent renders a single clock component. Negative values render as
// "00", values above 9 are printed as-is without padding.
func FormatComponent(v int) string {
	switch {
	case v < 0:
		return "00"
	case v > 9:
		return strconv.Itoa(v)
	default:
		return "0" + strconv.Itoa(v)
	}
}

// ComposeDisplay joins the components required by mode into a display string.
func ComposeDisplay(mode DisplayMode, h, m, s int) string {
	switch mode {
	case DisplayHours:
		return FormatComponent(h) + ":" + FormatComponent(m) + ":" + FormatComponent(s)
	case DisplayMinutes:
		return FormatComponent(m) + ":" + FormatComponent(s)
	default:
		return FormatComponent(s)
	}
}

// SplitSeconds decomposes a whole number of seconds into hours, minutes and
// seconds. Hours are not wrapped into days.
func SplitSeconds(total int) (h, m, s int) {
	return total / 3600, total % 3600 / 60, total % 60
}
