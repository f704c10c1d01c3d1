package extractor

import (
	"calclik-event-scanner/internal/models"
	"calclik-event-scanner/internal/patterns"
)

// Scoring policy constants. These are additive field-completeness weights;
// the keyword bonus can push the raw sum past 1.0, so the final score is
// clamped to MaxConfidence. Candidates at or below ConfidenceThreshold are
// discarded.
const (
	TitleWeight    = 0.3 // title longer than MinScoredTitleLength
	DateWeight     = 0.3 // non-empty date
	TimeWeight     = 0.2 // non-empty time
	LocationWeight = 0.2 // non-empty location
	KeywordBonus   = 0.2 // title contains an event keyword

	MinScoredTitleLength = 5

	ConfidenceThreshold = 0.3
	MaxConfidence       = 1.0
)

// ScoreCandidate computes the confidence for a single candidate. Scoring is
// deterministic and purely additive; the annotator's availability only
// matters through the fields it already populated.
func ScoreCandidate(candidate models.EventCandidate) float64 {
	score := 0.0

	if len(candidate.Title) > MinScoredTitleLength {
		score += TitleWeight
	}
	if candidate.Date != "" {
		score += DateWeight
	}
	if candidate.Time != "" {
		score += TimeWeight
	}
	if candidate.Location != "" {
		score += LocationWeight
	}
	if patterns.ContainsEventKeyword(candidate.Title) {
		score += KeywordBonus
	}

	return models.ClampConfidence(score)
}

// ScoreAndFilter assigns a confidence to every candidate and retains only
// those scoring above ConfidenceThreshold, preserving order. The fallback
// extractor's fixed-confidence candidates never pass through here.
func ScoreAndFilter(candidates []models.EventCandidate) []models.EventCandidate {
	var retained []models.EventCandidate

	for _, candidate := range candidates {
		candidate.Confidence = ScoreCandidate(candidate)
		if candidate.Confidence > ConfidenceThreshold {
			retained = append(retained, candidate)
		}
	}

	return retained
}
