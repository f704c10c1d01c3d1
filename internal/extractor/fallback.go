package extractor

import (
	"regexp"

	"calclik-event-scanner/internal/models"
	"calclik-event-scanner/internal/patterns"
)

// Fallback policy constants. The fallback path carries a fixed confidence
// and a hard result cap instead of going through the scorer; the asymmetry
// with the primary path is intentional and documented.
const (
	FallbackConfidence = 0.6
	MaxFallbackEvents  = 5

	fallbackTitleWindow = 100 // leading snippet bytes used as the title
)

// Keyword-anchored clause patterns, each matching up to the next sentence
// terminator. Applied in order; results keep this pattern-major order.
var fallbackClausePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:` + patterns.KeywordAlternation() + `)[^.!?]*(?:[.!?]|$)`),
	regexp.MustCompile(`(?i)(?:` + patterns.CallToActionAlternation() + `)[^.!?]*(?:[.!?]|$)`),
	regexp.MustCompile(`\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}[^.!?]*(?:[.!?]|$)`),
}

// Snippet-level patterns for pulling a date and clock time out of a clause.
var (
	fallbackDatePattern = regexp.MustCompile(`\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}`)
	fallbackTimePattern = regexp.MustCompile(`(?i)\d{1,2}:\d{2}(?:\s*[ap]m)?`)
)

// ExtractFallback is the keyword/regex-only extraction strategy used when
// the entity annotator is unavailable or fails. It operates directly on the
// full text, never errors, and returns at most MaxFallbackEvents
// candidates. A clause whose span overlaps an already-accepted clause is
// skipped, so a sentence matched by both a call-to-action pattern and a
// bare-date pattern yields one candidate, not two.
func ExtractFallback(text, sourceURL string) []models.EventCandidate {
	var candidates []models.EventCandidate
	var claimed [][2]int

	for _, pattern := range fallbackClausePatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			if spanOverlaps(claimed, loc[0], loc[1]) {
				continue
			}

			snippet := text[loc[0]:loc[1]]
			candidate, ok := parseFallbackSnippet(snippet, sourceURL)
			if !ok {
				continue
			}

			claimed = append(claimed, [2]int{loc[0], loc[1]})
			candidates = append(candidates, candidate)

			if len(candidates) >= MaxFallbackEvents {
				return candidates
			}
		}
	}

	return candidates
}

// parseFallbackSnippet turns one matched clause into a candidate. The same
// sanitization and normalization rules as the primary path apply; the title
// requirement is looser (non-empty).
func parseFallbackSnippet(snippet, sourceURL string) (models.EventCandidate, bool) {
	titleSource := snippet
	if len(titleSource) > fallbackTitleWindow {
		titleSource = titleSource[:fallbackTitleWindow]
	}

	title := SanitizeText(titleSource)
	if title == "" {
		return models.EventCandidate{}, false
	}

	date := ""
	if literal := fallbackDatePattern.FindString(snippet); literal != "" {
		date = NormalizeDate(literal)
	}

	timeOfDay := ""
	if literal := fallbackTimePattern.FindString(snippet); literal != "" {
		timeOfDay = NormalizeTime(literal)
	}

	candidate := models.EventCandidate{
		ID:          models.GenerateEventID(title, date, timeOfDay),
		Title:       title,
		Date:        date,
		Time:        timeOfDay,
		Location:    "",
		Description: SanitizeText(snippet),
		SourceURL:   sourceURL,
		Source:      models.SourceFallback,
		Confidence:  FallbackConfidence,
	}

	return candidate, true
}

func spanOverlaps(spans [][2]int, start, end int) bool {
	for _, span := range spans {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}
