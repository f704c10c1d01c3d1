package extractor

import (
	"strings"
	"testing"

	"calclik-event-scanner/internal/models"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		literal  string
		expected string
	}{
		{"3/15/2025", "2025-03-15"},
		{"12-01-25", "2025-12-01"},
		{"3.5.2025", "2025-03-05"},
		{"2025/03/15", "2025-03-15"},
		{"March 15, 2025", "2025-03-15"},
		{"March 15 2025", "2025-03-15"},
		{"Mar 5, 2025", "2025-03-05"},
		{"MARCH 5, 2025", "2025-03-05"},
		{"13/45/2025", "13/45/2025"}, // unparsable stays literal
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			if got := NormalizeDate(tt.literal); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		literal  string
		expected string
	}{
		{"2:30 PM", "14:30"},
		{"2:30pm", "14:30"},
		{"12:15 AM", "00:15"},
		{"12:30 PM", "12:30"},
		{"9:00 AM", "9:00"}, // no forced zero-pad outside the shift rules
		{"14:30", "14:30"},
		{"6 PM", "18:00"},
		{"12 AM", "00:00"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			if got := NormalizeTime(tt.literal); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses whitespace",
			input:    "Annual\t\tTech\n Conference",
			expected: "Annual Tech Conference",
		},
		{
			name:     "strips disallowed characters",
			input:    "Gala* night <here>!",
			expected: "Gala night here!",
		},
		{
			name:     "keeps basic punctuation",
			input:    "Doors open, at 6. Really?",
			expected: "Doors open, at 6. Really?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeText(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSanitizeTextTruncates(t *testing.T) {
	long := strings.Repeat("a", 300)
	if got := SanitizeText(long); len(got) != 200 {
		t.Errorf("Expected 200-character result, got %d", len(got))
	}
}

func TestAssembleBlocksBuildsCandidate(t *testing.T) {
	blocks := []models.TextBlock{
		{
			Text:       "Annual Tech Conference on 3/15/2025 at 2:30 PM in the convention center.",
			SourceHint: models.BlockSourceParagraph,
		},
	}

	candidates := AssembleBlocks(blocks, "https://example.com/events")

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}

	candidate := candidates[0]
	if candidate.Title != "Annual Tech Conference" {
		t.Errorf("Expected keyword-anchored title, got %q", candidate.Title)
	}
	if candidate.Date != "2025-03-15" {
		t.Errorf("Expected normalized date 2025-03-15, got %q", candidate.Date)
	}
	if candidate.Time != "14:30" {
		t.Errorf("Expected normalized time 14:30, got %q", candidate.Time)
	}
	if candidate.Source != models.SourcePrimary {
		t.Errorf("Expected source %q, got %q", models.SourcePrimary, candidate.Source)
	}
	if candidate.SourceURL != "https://example.com/events" {
		t.Errorf("Expected source URL preserved, got %q", candidate.SourceURL)
	}
	if candidate.ID == "" || !strings.HasPrefix(candidate.ID, "evt_") {
		t.Errorf("Expected evt_ prefixed ID, got %q", candidate.ID)
	}
	if candidate.Description == "" {
		t.Error("Expected a description window around the title")
	}
}

func TestAssembleBlocksPairsByIndex(t *testing.T) {
	blocks := []models.TextBlock{
		{
			Text: "Spring Workshop starts 3/15/2025 at 9:00 AM. Autumn Workshop starts 10/02/2025 at 2:00 PM.",
		},
	}

	candidates := AssembleBlocks(blocks, "")

	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Time != "9:00" {
		t.Errorf("Expected first date paired with first time, got %q", candidates[0].Time)
	}
	if candidates[1].Time != "14:00" {
		t.Errorf("Expected second date paired with second time, got %q", candidates[1].Time)
	}
}

func TestAssembleBlocksMissingTime(t *testing.T) {
	blocks := []models.TextBlock{
		{Text: "Community Meeting scheduled for 3/15/2025 at the library."},
	}

	candidates := AssembleBlocks(blocks, "")
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Time != "" {
		t.Errorf("Expected empty time when no time match exists, got %q", candidates[0].Time)
	}
}

func TestAssembleWithEntities(t *testing.T) {
	text := "Developer Conference on 3/15/2025 at 10:00 AM. " +
		"Planning Meeting on 4/20/2025 at 3:00 PM downtown."
	entities := []models.Entity{
		{Label: models.EntityLocation, Literal: "Moscone Center", Position: 10},
		{Label: models.EntityOrganization, Literal: "Acme Corp", Position: 40},
		{Label: models.EntityLocation, Literal: "City Hall", Position: 80},
	}

	candidates := AssembleWithEntities(text, entities, "https://example.com")

	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Location != "Moscone Center" {
		t.Errorf("Expected first location entity on first candidate, got %q", candidates[0].Location)
	}
	if candidates[1].Location != "City Hall" {
		t.Errorf("Expected second location entity on second candidate, got %q", candidates[1].Location)
	}
	if candidates[0].Time != "10:00" {
		t.Errorf("Expected first time paired by index, got %q", candidates[0].Time)
	}
	if candidates[1].Time != "15:00" {
		t.Errorf("Expected second time paired by index, got %q", candidates[1].Time)
	}
}

func TestAssembleWithEntitiesDeduplicatesDates(t *testing.T) {
	// The same date literal twice yields one candidate, not two.
	text := "Summer Festival on 6/01/2025. Reminder: the festival is 6/01/2025 at 5:00 PM."

	candidates := AssembleWithEntities(text, nil, "")
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate for a repeated date literal, got %d", len(candidates))
	}
}

func TestAssembleDeterministicIDs(t *testing.T) {
	blocks := []models.TextBlock{
		{Text: "Annual Tech Conference on 3/15/2025 at 2:30 PM downtown."},
	}

	first := AssembleBlocks(blocks, "https://example.com")
	second := AssembleBlocks(blocks, "https://example.com")

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Expected 1 candidate per run, got %d and %d", len(first), len(second))
	}
	if first[0].ID != second[0].ID {
		t.Errorf("Expected identical IDs across runs, got %q and %q", first[0].ID, second[0].ID)
	}
}

func TestLocationLiterals(t *testing.T) {
	entities := []models.Entity{
		{Label: models.EntityLocation, Literal: "Moscone Center", Position: 0},
		{Label: models.EntityLocation, Literal: "NY", Position: 10}, // too short, skipped
		{Label: models.EntityOrganization, Literal: "Acme Corp", Position: 20},
		{Label: models.EntityLocation, Literal: "City Hall", Position: 30},
	}

	locations := LocationLiterals(entities)
	if len(locations) != 2 {
		t.Fatalf("Expected 2 usable locations, got %d: %v", len(locations), locations)
	}
	if locations[0] != "Moscone Center" || locations[1] != "City Hall" {
		t.Errorf("Expected locations in annotation order, got %v", locations)
	}
}

func TestOrganizationLiterals(t *testing.T) {
	entities := []models.Entity{
		{Label: models.EntityOrganization, Literal: "Acme Corp", Position: 0},
		{Label: models.EntityLocation, Literal: "City Hall", Position: 10},
	}

	organizations := OrganizationLiterals(entities)
	if len(organizations) != 1 || organizations[0] != "Acme Corp" {
		t.Errorf("Expected [Acme Corp], got %v", organizations)
	}
}
