// Package calendar converts finalized event records into calendar-system
// artifacts: ICS file text and provider deep links. Both operations are
// pure functions of the record and a default-time constant; they never
// fail, degrading to best-effort strings for malformed fields.
package calendar

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"calclik-event-scanner/internal/models"
)

// DefaultEventTime is the start time used when an event carries no time.
const DefaultEventTime = "09:00"

// Supported encode formats / providers.
const (
	FormatICS       = "ics"
	ProviderGoogle  = "google"
	ProviderOutlook = "outlook"
)

// Event duration is always one hour; the extraction pipeline has no end
// times to offer.
const eventDuration = time.Hour

// ICS timestamp layouts ("basic" format, RFC 5545).
const (
	icsLocalLayout = "20060102T150405"
	icsUTCLayout   = "20060102T150405Z"
)

// Encode renders an event in the requested format: "ics" produces an ICS
// text block, "google" and "outlook" produce deep-link URLs. Unknown
// formats are the only error condition.
func Encode(event models.EventCandidate, format string) (string, error) {
	switch format {
	case FormatICS:
		return ToICS(event, DefaultEventTime), nil
	case ProviderGoogle, ProviderOutlook:
		return ToProviderLink(event, format), nil
	default:
		return "", fmt.Errorf("unknown encode format: %q", format)
	}
}

// ToICS produces an RFC5545-shaped VCALENDAR block for the event. DTSTART
// comes from the event's date and time (defaultTime substitutes for a
// missing time), DTEND is start plus one hour, DTSTAMP is the current UTC
// time in basic format. An unparsable date degrades to a digits-only
// best-effort DTSTART rather than an error.
func ToICS(event models.EventCandidate, defaultTime string) string {
	start, parsed := parseStart(event, defaultTime)

	var dtStart, dtEnd string
	if parsed {
		dtStart = start.Format(icsLocalLayout)
		dtEnd = start.Add(eventDuration).Format(icsLocalLayout)
	} else {
		dtStart = bestEffortStamp(event.Date, event.Time, defaultTime)
		dtEnd = dtStart
	}

	dtStamp := time.Now().UTC().Format(icsUTCLayout)

	description := event.Description
	if event.SourceURL != "" {
		if description != "" {
			description += "\n\n"
		}
		description += "Link: " + event.SourceURL
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//CalClik//Event Scanner//EN",
		"BEGIN:VEVENT",
		"UID:" + event.ID,
		"DTSTART:" + dtStart,
		"DTEND:" + dtEnd,
		"DTSTAMP:" + dtStamp,
		"SUMMARY:" + event.Title,
		"DESCRIPTION:" + strings.ReplaceAll(description, "\n", `\n`),
		"LOCATION:" + event.Location,
		"END:VEVENT",
		"END:VCALENDAR",
	}

	return strings.Join(lines, "\r\n") + "\r\n"
}

// ToProviderLink builds a calendar deep link for google or outlook with
// percent-encoded query parameters. A missing time defaults to
// DefaultEventTime; the end time is always start plus one hour.
func ToProviderLink(event models.EventCandidate, provider string) string {
	start, parsed := parseStart(event, DefaultEventTime)
	if !parsed {
		// Best effort: anchor the link on today at the default time so the
		// provider still opens a prefilled compose view.
		now := time.Now()
		hour, minute, _ := parseClock(DefaultEventTime)
		start = time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.Local)
	}
	end := start.Add(eventDuration)

	description := event.Description
	if event.SourceURL != "" {
		if description != "" {
			description += "\n\n"
		}
		description += "Link: " + event.SourceURL
	}

	switch provider {
	case ProviderOutlook:
		params := url.Values{}
		params.Set("subject", event.Title)
		params.Set("startdt", start.Format("2006-01-02T15:04:05"))
		params.Set("enddt", end.Format("2006-01-02T15:04:05"))
		params.Set("location", event.Location)
		params.Set("body", description)
		return "https://outlook.live.com/calendar/0/action/compose?" + params.Encode()
	default: // google
		params := url.Values{}
		params.Set("action", "TEMPLATE")
		params.Set("text", event.Title)
		params.Set("dates", start.Format(icsLocalLayout)+"/"+end.Format(icsLocalLayout))
		params.Set("location", event.Location)
		params.Set("details", description)
		return "https://calendar.google.com/calendar/event?" + params.Encode()
	}
}

// parseStart combines the event's date and time into a local start time.
// The boolean is false when the date cannot be interpreted as ISO.
func parseStart(event models.EventCandidate, defaultTime string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", event.Date)
	if err != nil {
		return time.Time{}, false
	}

	clock := event.Time
	if clock == "" {
		clock = defaultTime
	}

	hour, minute, ok := parseClock(clock)
	if !ok {
		hour, minute, _ = parseClock(defaultTime)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.Local), true
}

// parseClock splits a 24-hour H:MM / HH:MM string.
func parseClock(clock string) (int, int, bool) {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}

	return hour, minute, true
}

// bestEffortStamp builds a DTSTART-shaped string from whatever digits the
// unparsable date literal carries, falling back to today. The result never
// contains ':' or '-'.
func bestEffortStamp(date, clock, defaultTime string) string {
	datePart := digitsOnly(date)
	if datePart == "" {
		datePart = time.Now().Format("20060102")
	}

	if clock == "" {
		clock = defaultTime
	}
	timePart := digitsOnly(clock)
	if len(timePart) == 3 {
		timePart = "0" + timePart
	}
	if len(timePart) != 4 {
		timePart = "0900"
	}

	return datePart + "T" + timePart + "00"
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
