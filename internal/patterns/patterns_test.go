package patterns

import (
	"testing"

	"calclik-event-scanner/internal/models"
)

func TestFindDates(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "numeric slash date",
			text:     "The meeting is on 3/15/2025 in the main hall",
			expected: []string{"3/15/2025"},
		},
		{
			name:     "numeric dash date",
			text:     "Deadline: 12-01-25",
			expected: []string{"12-01-25"},
		},
		{
			name:     "iso year-first date",
			text:     "Published 2025/03/15 at noon",
			expected: []string{"2025/03/15"},
		},
		{
			name:     "month name date",
			text:     "Join us March 15, 2025 for the gala",
			expected: []string{"March 15, 2025"},
		},
		{
			name:     "abbreviated month name",
			text:     "Starts Mar 5 2025",
			expected: []string{"Mar 5 2025"},
		},
		{
			name:     "multiple dates in order",
			text:     "From 3/15/2025 until March 20, 2025",
			expected: []string{"3/15/2025", "March 20, 2025"},
		},
		{
			name:     "no date",
			text:     "Nothing scheduled here",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := FindDates(tt.text)
			if len(matches) != len(tt.expected) {
				t.Fatalf("Expected %d matches, got %d: %+v", len(tt.expected), len(matches), matches)
			}
			for i, expected := range tt.expected {
				if matches[i].Literal != expected {
					t.Errorf("Expected match %d to be %q, got %q", i, expected, matches[i].Literal)
				}
				if matches[i].Kind != models.MatchKindDate {
					t.Errorf("Expected kind %q, got %q", models.MatchKindDate, matches[i].Kind)
				}
			}
		})
	}
}

func TestFindDatesOrderedByPosition(t *testing.T) {
	// The month-name date appears first in the text but is matched by a
	// later pattern; results must still come back in text order.
	text := "March 15, 2025 kickoff, wraps up 3/20/2025"

	matches := FindDates(text)
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}
	if matches[0].Literal != "March 15, 2025" {
		t.Errorf("Expected first match to be the month-name date, got %q", matches[0].Literal)
	}
	if matches[0].Position > matches[1].Position {
		t.Errorf("Expected matches ordered by position, got %d then %d", matches[0].Position, matches[1].Position)
	}
}

func TestFindTimes(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "clock time with meridiem",
			text:     "Doors open at 2:30 PM sharp",
			expected: []string{"2:30 PM"},
		},
		{
			name:     "clock time without meridiem",
			text:     "Starts at 14:30 today",
			expected: []string{"14:30"},
		},
		{
			name:     "bare hour with meridiem",
			text:     "See you at 6 PM",
			expected: []string{"6 PM"},
		},
		{
			name:     "no bare hour without meridiem",
			text:     "There are 6 seats left",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := FindTimes(tt.text)
			if len(matches) != len(tt.expected) {
				t.Fatalf("Expected %d matches, got %d: %+v", len(tt.expected), len(matches), matches)
			}
			for i, expected := range tt.expected {
				if matches[i].Literal != expected {
					t.Errorf("Expected match %d to be %q, got %q", i, expected, matches[i].Literal)
				}
			}
		})
	}
}

func TestFindTimesNoDoubleCount(t *testing.T) {
	// "2:30 PM" satisfies both time patterns; the overlap must be reported
	// once.
	matches := FindTimes("The show begins at 2:30 PM tonight")
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match for an overlapping time, got %d: %+v", len(matches), matches)
	}
}

func TestHasDateOrTime(t *testing.T) {
	if !HasDateOrTime("Meet on 3/15/2025") {
		t.Error("Expected date-only text to qualify")
	}
	if !HasDateOrTime("Meet at 6 PM") {
		t.Error("Expected time-only text to qualify")
	}
	if HasDateOrTime("Meet sometime soon") {
		t.Error("Expected patternless text to not qualify")
	}
}

func TestContainsEventKeyword(t *testing.T) {
	if !ContainsEventKeyword("Annual Tech CONFERENCE downtown") {
		t.Error("Expected keyword match to be case-insensitive")
	}
	if ContainsEventKeyword("Quarterly financial report") {
		t.Error("Expected no keyword match")
	}
}

func TestContainsCallToAction(t *testing.T) {
	if !ContainsCallToAction("Save the Date for our gala!") {
		t.Error("Expected call-to-action match to be case-insensitive")
	}
	if ContainsCallToAction("Please review the attached file") {
		t.Error("Expected no call-to-action match")
	}
}

func TestHasEventSignal(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{"keyword alone", "Our workshop covers testing", true},
		{"call to action alone", "Join us for coffee", true},
		{"date and time together", "3/15/2025 at 2:30 PM", true},
		{"date alone", "Updated 3/15/2025", false},
		{"time alone", "It is 2:30 PM", false},
		{"nothing", "Plain prose with no signals", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasEventSignal(tt.text); got != tt.expected {
				t.Errorf("Expected %v for %q, got %v", tt.expected, tt.text, got)
			}
		})
	}
}

func TestKeywordAlternation(t *testing.T) {
	alternation := KeywordAlternation()
	if alternation == "" {
		t.Fatal("Expected non-empty alternation")
	}
	for _, keyword := range EventKeywords {
		found := false
		for _, part := range splitAlternation(alternation) {
			if part == keyword {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected alternation to contain %q", keyword)
		}
	}
}

func splitAlternation(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '|' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
