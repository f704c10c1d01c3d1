// Package patterns is the fixed pattern library consulted by every stage of
// the extraction pipeline: date and time regexes, the event keyword
// vocabulary, and call-to-action phrases. Everything here is read-only
// configuration; compiled regexps carry no cross-call state, so the package
// is safe for concurrent use.
package patterns

import (
	"regexp"
	"sort"
	"strings"

	"calclik-event-scanner/internal/models"
)

// Date patterns, checked in order. Numeric day-first forms, ISO year-first
// forms, and long month-name forms.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`),
	regexp.MustCompile(`\b\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2}\b`),
	regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}\b`),
}

// Time patterns: clock times with optional meridiem, and bare hours with a
// required meridiem ("6 PM").
var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}(?:\s*[ap]m)?\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s*[ap]m\b`),
}

// EventKeywords is the fixed vocabulary of words that indicate an event.
var EventKeywords = []string{
	"event", "meeting", "conference", "workshop", "seminar", "webinar",
	"summit", "symposium", "convention", "gathering", "celebration",
	"festival", "concert", "show", "performance", "exhibition",
}

// CallToActionPhrases are invitation phrases that anchor fallback extraction.
var CallToActionPhrases = []string{
	"join us", "save the date", "mark your calendar",
}

// FindDates returns every date pattern match in text, ordered by position.
// Overlapping hits from later patterns are dropped so each span is reported
// once.
func FindDates(text string) []models.RawMatch {
	return findMatches(text, datePatterns, models.MatchKindDate)
}

// FindTimes returns every time pattern match in text, ordered by position.
func FindTimes(text string) []models.RawMatch {
	return findMatches(text, timePatterns, models.MatchKindTime)
}

// HasDate reports whether any date pattern matches within text.
func HasDate(text string) bool {
	for _, pattern := range datePatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// HasTime reports whether any time pattern matches within text.
func HasTime(text string) bool {
	for _, pattern := range timePatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// HasDateOrTime is the per-block retention test used by the block extractor.
func HasDateOrTime(text string) bool {
	return HasDate(text) || HasTime(text)
}

// ContainsEventKeyword reports whether text contains any event keyword,
// case-insensitively.
func ContainsEventKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range EventKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// ContainsCallToAction reports whether text contains any call-to-action
// phrase, case-insensitively.
func ContainsCallToAction(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range CallToActionPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// HasEventSignal is the cheap "does this page look eventful" probe: an event
// keyword anywhere, or a date pattern and a time pattern together.
func HasEventSignal(text string) bool {
	if ContainsEventKeyword(text) || ContainsCallToAction(text) {
		return true
	}
	return HasDate(text) && HasTime(text)
}

// KeywordAlternation returns the event keywords joined for regex
// alternation, e.g. "event|meeting|...".
func KeywordAlternation() string {
	return strings.Join(EventKeywords, "|")
}

// CallToActionAlternation returns the call-to-action phrases joined for
// regex alternation.
func CallToActionAlternation() string {
	return strings.Join(CallToActionPhrases, "|")
}

// findMatches applies each pattern in order and merges the hits into one
// position-sorted sequence. A hit overlapping an already-accepted span is
// skipped; earlier patterns win.
func findMatches(text string, patterns []*regexp.Regexp, kind string) []models.RawMatch {
	var matches []models.RawMatch
	var claimed [][2]int

	for _, pattern := range patterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			if overlapsAny(claimed, loc[0], loc[1]) {
				continue
			}
			claimed = append(claimed, [2]int{loc[0], loc[1]})
			matches = append(matches, models.RawMatch{
				Kind:     kind,
				Literal:  text[loc[0]:loc[1]],
				Position: loc[0],
			})
		}
	}

	// Restore order of appearance across all patterns.
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Position < matches[j].Position
	})

	return matches
}

func overlapsAny(spans [][2]int, start, end int) bool {
	for _, span := range spans {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}
