package extractor

import (
	"fmt"
	"strings"
	"testing"

	"calclik-event-scanner/internal/models"
)

func TestExtractFallbackKeywordClause(t *testing.T) {
	text := "Our annual conference takes place on 3/15/2025 at 2:30 PM. Unrelated sentence."

	candidates := ExtractFallback(text, "https://example.com")

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d: %+v", len(candidates), candidates)
	}

	candidate := candidates[0]
	if candidate.Source != models.SourceFallback {
		t.Errorf("Expected source %q, got %q", models.SourceFallback, candidate.Source)
	}
	if candidate.Confidence != FallbackConfidence {
		t.Errorf("Expected fixed confidence %.2f, got %.2f", FallbackConfidence, candidate.Confidence)
	}
	if candidate.Date != "2025-03-15" {
		t.Errorf("Expected normalized date, got %q", candidate.Date)
	}
	if candidate.Time != "14:30" {
		t.Errorf("Expected normalized time, got %q", candidate.Time)
	}
	if candidate.Location != "" {
		t.Errorf("Expected empty location on fallback path, got %q", candidate.Location)
	}
	if candidate.Title == "" {
		t.Error("Expected non-empty title")
	}
}

func TestExtractFallbackOverlappingClausesYieldOne(t *testing.T) {
	// This sentence matches both the call-to-action pattern and the bare
	// numeric-date pattern; the overlap dedup must keep exactly one.
	text := "Join us for the Spring Gala on 4/12/2025 at 7:00 PM at the Grand Hotel."

	candidates := ExtractFallback(text, "")

	if len(candidates) != 1 {
		t.Fatalf("Expected exactly 1 candidate for overlapping clause matches, got %d", len(candidates))
	}
	if candidates[0].Date != "2025-04-12" {
		t.Errorf("Expected date 2025-04-12, got %q", candidates[0].Date)
	}
	if candidates[0].Time != "19:00" {
		t.Errorf("Expected time 19:00, got %q", candidates[0].Time)
	}
}

func TestExtractFallbackCap(t *testing.T) {
	var sentences []string
	for i := 0; i < 12; i++ {
		sentences = append(sentences, fmt.Sprintf("Meeting number %d happens on 3/%d/2025.", i, i+1))
	}
	text := strings.Join(sentences, " ")

	candidates := ExtractFallback(text, "")

	if len(candidates) != MaxFallbackEvents {
		t.Errorf("Expected result capped at %d, got %d", MaxFallbackEvents, len(candidates))
	}
}

func TestExtractFallbackBareDateClause(t *testing.T) {
	// No keyword, no call to action; only the numeric-date clause pattern
	// applies.
	text := "Something happens downtown. 5/10/2025 is when doors open at 6:30 PM."

	candidates := ExtractFallback(text, "")

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate from the bare-date clause, got %d", len(candidates))
	}
	if candidates[0].Date != "2025-05-10" {
		t.Errorf("Expected date 2025-05-10, got %q", candidates[0].Date)
	}
}

func TestExtractFallbackNoSignals(t *testing.T) {
	candidates := ExtractFallback("Plain prose without anything matching.", "")
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates, got %d", len(candidates))
	}
}

func TestExtractFallbackDeterministicIDs(t *testing.T) {
	text := "Save the date: our workshop runs 9/09/2025 at 10:00 AM."

	first := ExtractFallback(text, "https://example.com")
	second := ExtractFallback(text, "https://example.com")

	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("Expected identical non-empty result sets, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("Expected identical IDs at %d, got %q and %q", i, first[i].ID, second[i].ID)
		}
	}
}
