package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"calclik-event-scanner/internal/models"
	"calclik-event-scanner/internal/patterns"
)

// Window sizes for title and description extraction, in bytes around the
// anchoring date occurrence.
const (
	titleSearchWindow  = 100 // searched before and after the date for a title phrase
	titleSliceWindow   = 30  // raw-slice fallback when no title phrase is found
	descBeforeTitle    = 50
	descAfterTitle     = 100
	maxSanitizedLength = 200
	minTitleLength     = 3 // primary-path candidates need a title longer than this
)

// Title phrases: a capitalized phrase carrying an event keyword, or a
// plain 10-50 character capitalized run. Checked in that order; a hit in
// the window before the date is preferred over one after.
var (
	titleKeywordPattern = regexp.MustCompile(`(?i)[A-Z][^.!?]*(?:event|meeting|conference|workshop|seminar)`)
	titleCapsPattern    = regexp.MustCompile(`[A-Z][^.!?]{10,50}`)

	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^\w\s.,!?-]`)
)

// AssembleBlocks builds event candidates block by block: every date match
// in a block is paired with the same-index time match, titles are pulled
// from windows around the date within that block. Used on the primary path
// when no entities are available.
func AssembleBlocks(blocks []models.TextBlock, sourceURL string) []models.EventCandidate {
	var candidates []models.EventCandidate

	for _, block := range blocks {
		dates := patterns.FindDates(block.Text)
		times := patterns.FindTimes(block.Text)

		for i, date := range dates {
			timeLiteral := ""
			if i < len(times) {
				timeLiteral = times[i].Literal
			}

			if candidate, ok := buildCandidate(block.Text, date, timeLiteral, "", sourceURL); ok {
				candidates = append(candidates, candidate)
			}
		}
	}

	return candidates
}

// AssembleWithEntities builds event candidates from the full text body: one
// per distinct date literal, each paired by index with the i-th time match
// and the i-th location entity. Missing pairs default to empty fields; the
// index pairing is the documented heuristic, not positional correlation.
func AssembleWithEntities(text string, entities []models.Entity, sourceURL string) []models.EventCandidate {
	dates := distinctDates(patterns.FindDates(text))
	times := patterns.FindTimes(text)
	locations := LocationLiterals(entities)

	var candidates []models.EventCandidate

	for i, date := range dates {
		timeLiteral := ""
		if i < len(times) {
			timeLiteral = times[i].Literal
		}

		location := ""
		if i < len(locations) {
			location = locations[i]
		}

		if candidate, ok := buildCandidate(text, date, timeLiteral, location, sourceURL); ok {
			candidates = append(candidates, candidate)
		}
	}

	return candidates
}

// LocationLiterals returns the location entities usable for field
// enrichment, in annotation order. Very short spans are noise and skipped.
func LocationLiterals(entities []models.Entity) []string {
	var locations []string
	for _, entity := range entities {
		if entity.Label == models.EntityLocation && len(entity.Literal) > 2 {
			locations = append(locations, entity.Literal)
		}
	}
	return locations
}

// OrganizationLiterals returns the organization entities, in annotation
// order. Exposed for callers that want them; title construction does not
// depend on organizations.
func OrganizationLiterals(entities []models.Entity) []string {
	var organizations []string
	for _, entity := range entities {
		if entity.Label == models.EntityOrganization {
			organizations = append(organizations, entity.Literal)
		}
	}
	return organizations
}

// buildCandidate assembles one candidate around a date occurrence. Returns
// false when the extracted title is too short to be worth keeping; every
// other quality decision is left to the confidence scorer.
func buildCandidate(text string, date models.RawMatch, timeLiteral, location, sourceURL string) (models.EventCandidate, bool) {
	title, titleStart := extractTitle(text, date.Position, len(date.Literal))
	if len(title) <= minTitleLength {
		return models.EventCandidate{}, false
	}

	normalizedDate := NormalizeDate(date.Literal)
	normalizedTime := NormalizeTime(timeLiteral)
	cleanTitle := SanitizeText(title)

	candidate := models.EventCandidate{
		ID:          models.GenerateEventID(cleanTitle, normalizedDate, normalizedTime),
		Title:       cleanTitle,
		Date:        normalizedDate,
		Time:        normalizedTime,
		Location:    SanitizeText(location),
		Description: SanitizeText(descriptionWindow(text, titleStart, len(title))),
		SourceURL:   sourceURL,
		Source:      models.SourcePrimary,
	}

	return candidate, true
}

// extractTitle searches a fixed window before and after the date occurrence
// for a title-worthy phrase, preferring hits before the date. When neither
// window has one, a raw slice around the date serves as the title; dropping
// titleless candidates is the scorer's job, not ours.
func extractTitle(text string, datePos, dateLen int) (string, int) {
	beforeStart := maxInt(0, datePos-titleSearchWindow)
	afterEnd := minInt(len(text), datePos+titleSearchWindow)

	before := text[beforeStart:datePos]
	after := text[datePos:afterEnd]

	for _, pattern := range []*regexp.Regexp{titleKeywordPattern, titleCapsPattern} {
		if loc := pattern.FindStringIndex(before); loc != nil {
			return strings.TrimSpace(before[loc[0]:loc[1]]), beforeStart + loc[0]
		}
		if loc := pattern.FindStringIndex(after); loc != nil {
			return strings.TrimSpace(after[loc[0]:loc[1]]), datePos + loc[0]
		}
	}

	sliceStart := maxInt(0, datePos-titleSliceWindow)
	sliceEnd := minInt(len(text), datePos+dateLen+titleSliceWindow)

	return strings.TrimSpace(text[sliceStart:sliceEnd]), sliceStart
}

// descriptionWindow slices from 50 bytes before the title to 100 bytes past
// its end.
func descriptionWindow(text string, titleStart, titleLen int) string {
	start := maxInt(0, titleStart-descBeforeTitle)
	end := minInt(len(text), titleStart+titleLen+descAfterTitle)
	return text[start:end]
}

// SanitizeText collapses whitespace runs to single spaces, strips
// characters outside word/space/basic punctuation, trims, and truncates to
// 200 characters.
func SanitizeText(text string) string {
	cleaned := whitespaceRun.ReplaceAllString(text, " ")
	cleaned = disallowed.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) > maxSanitizedLength {
		cleaned = cleaned[:maxSanitizedLength]
	}

	return cleaned
}

// Date layouts tried during normalization. Numeric forms have their
// separators unified to "/" first.
var (
	numericDateLayouts = []string{
		"1/2/2006",
		"1/2/06",
		"2006/1/2",
	}
	monthNameLayouts = []string{
		"January 2, 2006",
		"January 2 2006",
		"Jan 2, 2006",
		"Jan 2 2006",
	}
)

// NormalizeDate attempts to turn a matched date literal into ISO
// YYYY-MM-DD. An unparsable literal is returned unchanged; date
// normalization never fails assembly.
func NormalizeDate(literal string) string {
	trimmed := strings.TrimSpace(literal)
	if trimmed == "" {
		return literal
	}

	if first := trimmed[0]; first >= '0' && first <= '9' {
		unified := strings.NewReplacer("-", "/", ".", "/").Replace(trimmed)
		for _, layout := range numericDateLayouts {
			if parsed, err := time.Parse(layout, unified); err == nil {
				return parsed.Format("2006-01-02")
			}
		}
		return literal
	}

	// Month-name form: normalize case so "MARCH 5, 2025" still parses.
	cased := strings.ToUpper(trimmed[:1]) + strings.ToLower(trimmed[1:])
	for _, layout := range monthNameLayouts {
		if parsed, err := time.Parse(layout, cased); err == nil {
			return parsed.Format("2006-01-02")
		}
	}

	return literal
}

// NormalizeTime converts a matched time literal to 24-hour form. PM hours
// below 12 gain 12, 12 AM becomes 00, everything else keeps the hour as
// written (no forced zero-pad). Minutes default to 00 for bare-hour
// literals like "6 PM". An unparsable literal is returned trimmed.
func NormalizeTime(literal string) string {
	trimmed := strings.TrimSpace(strings.ToLower(literal))
	if trimmed == "" {
		return ""
	}

	meridiem := ""
	if strings.HasSuffix(trimmed, "am") {
		meridiem = "am"
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "am"))
	} else if strings.HasSuffix(trimmed, "pm") {
		meridiem = "pm"
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "pm"))
	}

	hourPart := trimmed
	minutePart := "00"
	if idx := strings.Index(trimmed, ":"); idx >= 0 {
		hourPart = strings.TrimSpace(trimmed[:idx])
		minutePart = strings.TrimSpace(trimmed[idx+1:])
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return strings.TrimSpace(literal)
	}

	switch {
	case meridiem == "pm" && hour < 12:
		return strconv.Itoa(hour+12) + ":" + minutePart
	case meridiem == "am" && hour == 12:
		return "00:" + minutePart
	default:
		return hourPart + ":" + minutePart
	}
}

// distinctDates keeps the first occurrence of each date literal.
func distinctDates(dates []models.RawMatch) []models.RawMatch {
	seen := make(map[string]bool, len(dates))
	var distinct []models.RawMatch

	for _, date := range dates {
		if seen[date.Literal] {
			continue
		}
		seen[date.Literal] = true
		distinct = append(distinct, date)
	}

	return distinct
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
