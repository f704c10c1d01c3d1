package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Display preference values, consumed by presentation code only; the
// extraction pipeline never reads them.
const (
	DateFormatISO = "iso" // 2025-03-01
	DateFormatUS  = "us"  // 03/01/2025
	DateFormatEU  = "eu"  // 01/03/2025

	TimeFormat12 = "12"
	TimeFormat24 = "24"
)

// FormatDateDisplay renders an ISO date per the user's display preference.
// A non-ISO date (an unparsable literal preserved by the pipeline) is shown
// as-is.
func FormatDateDisplay(date, format string) string {
	if date == "" {
		return ""
	}

	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}

	switch format {
	case DateFormatUS:
		return parsed.Format("01/02/2006")
	case DateFormatEU:
		return parsed.Format("02/01/2006")
	default:
		return parsed.Format("2006-01-02")
	}
}

// FormatTimeDisplay renders a 24-hour pipeline time per the user's display
// preference. Unparsable values are shown as-is.
func FormatTimeDisplay(clock, format string) string {
	if clock == "" {
		return ""
	}

	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return clock
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return clock
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return clock
	}

	if format == TimeFormat24 {
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}

	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}

	return fmt.Sprintf("%d:%02d %s", hour12, minute, period)
}
