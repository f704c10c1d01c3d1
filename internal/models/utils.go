package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateEventID creates a deterministic ID for an event candidate from its
// core attributes. Identical scans must produce identical IDs, so no random
// component is used.
func GenerateEventID(title, date, timeOfDay string) string {
	normalizedTitle := strings.ToLower(strings.TrimSpace(title))
	normalizedDate := strings.ToLower(strings.TrimSpace(date))
	normalizedTime := strings.ToLower(strings.TrimSpace(timeOfDay))

	input := fmt.Sprintf("%s|%s|%s", normalizedTitle, normalizedDate, normalizedTime)

	hash := sha256.Sum256([]byte(input))

	return "evt_" + hex.EncodeToString(hash[:])[:8]
}

// GenerateScanID creates a unique ID for a scan run.
func GenerateScanID(url string, timestamp time.Time) string {
	input := fmt.Sprintf("%s|%d", url, timestamp.UnixNano())
	hash := sha256.Sum256([]byte(input))
	return "scan_" + hex.EncodeToString(hash[:])[:8]
}

// ValidateEventSource checks if the event source is valid.
func ValidateEventSource(source string) bool {
	validSources := []string{
		SourcePrimary,
		SourceFallback,
	}

	for _, validSource := range validSources {
		if source == validSource {
			return true
		}
	}
	return false
}

// ValidateBlockSource checks if the block source hint is valid.
func ValidateBlockSource(hint string) bool {
	validHints := []string{
		BlockSourceStructured,
		BlockSourceParagraph,
	}

	for _, validHint := range validHints {
		if hint == validHint {
			return true
		}
	}
	return false
}

// ValidateEntityLabel checks if the entity label is valid.
func ValidateEntityLabel(label string) bool {
	validLabels := []string{
		EntityLocation,
		EntityOrganization,
		EntityOther,
	}

	for _, validLabel := range validLabels {
		if label == validLabel {
			return true
		}
	}
	return false
}

// ValidateMatchKind checks if the raw match kind is valid.
func ValidateMatchKind(kind string) bool {
	return kind == MatchKindDate || kind == MatchKindTime
}

// ClampConfidence forces a confidence value into [0,1]. NaN is treated as
// zero so a candidate can never carry an unorderable score.
func ClampConfidence(confidence float64) float64 {
	if confidence != confidence { // NaN
		return 0.0
	}
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}

// IsValidURL performs basic URL validation.
func IsValidURL(url string) bool {
	if url == "" {
		return false
	}

	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// ExtractDomain extracts the bare domain from a URL for display and
// per-source metrics keys.
func ExtractDomain(url string) string {
	if url == "" {
		return ""
	}

	domain := strings.TrimPrefix(url, "https://")
	domain = strings.TrimPrefix(domain, "http://")

	if idx := strings.Index(domain, "/"); idx >= 0 {
		domain = domain[:idx]
	}

	domain = strings.TrimPrefix(domain, "www.")

	return domain
}
