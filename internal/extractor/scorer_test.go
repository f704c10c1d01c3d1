package extractor

import (
	"math"
	"testing"

	"calclik-event-scanner/internal/models"
)

func TestScoreCandidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate models.EventCandidate
		expected  float64
	}{
		{
			name: "all fields plus keyword clamps to max",
			candidate: models.EventCandidate{
				Title:    "Annual Tech Conference",
				Date:     "2025-03-15",
				Time:     "14:30",
				Location: "Moscone Center",
			},
			// Raw sum is 1.3; the clamp caps it.
			expected: 1.0,
		},
		{
			name: "all fields without keyword",
			candidate: models.EventCandidate{
				Title:    "Spring Charity Night",
				Date:     "2025-03-15",
				Time:     "14:30",
				Location: "City Hall",
			},
			// Field weights alone sum to exactly 1.0.
			expected: 1.0,
		},
		{
			name: "title and date only",
			candidate: models.EventCandidate{
				Title: "Quarterly Review",
				Date:  "2025-03-15",
			},
			expected: 0.6,
		},
		{
			name: "short title contributes nothing",
			candidate: models.EventCandidate{
				Title: "Gala",
				Date:  "2025-03-15",
			},
			expected: 0.3,
		},
		{
			name: "keyword in short title still earns the bonus",
			candidate: models.EventCandidate{
				Title: "Event",
			},
			expected: 0.2,
		},
		{
			name:      "empty candidate",
			candidate: models.EventCandidate{},
			expected:  0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreCandidate(tt.candidate)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Expected score %.2f, got %.2f", tt.expected, got)
			}
		})
	}
}

func TestScoreAndFilter(t *testing.T) {
	candidates := []models.EventCandidate{
		{Title: "Annual Tech Conference", Date: "2025-03-15", Time: "14:30"}, // passes
		{Title: "Gala", Date: "2025-03-15"},                                  // 0.3, at threshold, dropped
		{Title: "Community Meeting", Date: "2025-04-20"},                     // passes
		{},                                                                   // dropped
	}

	retained := ScoreAndFilter(candidates)

	if len(retained) != 2 {
		t.Fatalf("Expected 2 retained candidates, got %d", len(retained))
	}
	if retained[0].Title != "Annual Tech Conference" || retained[1].Title != "Community Meeting" {
		t.Errorf("Expected order preserved, got %q then %q", retained[0].Title, retained[1].Title)
	}
	for i, candidate := range retained {
		if candidate.Confidence <= ConfidenceThreshold {
			t.Errorf("Expected retained candidate %d above threshold, got %.2f", i, candidate.Confidence)
		}
	}
}

func TestScoreAndFilterThresholdIsExclusive(t *testing.T) {
	// Exactly 0.3 (date only) must be dropped, not retained.
	candidates := []models.EventCandidate{
		{Title: "Expo", Date: "2025-03-15"},
	}

	if retained := ScoreAndFilter(candidates); len(retained) != 0 {
		t.Errorf("Expected candidate at the threshold to be dropped, got %d retained", len(retained))
	}
}
