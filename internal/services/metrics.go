package services

import (
	"sync"
	"time"

	"calclik-event-scanner/internal/models"
)

// ScanMetrics tracks aggregate outcomes of the extraction pipeline:
// totals, fallback usage, and per-source success rates. Counters only; the
// pipeline's behavior never depends on them.
type ScanMetrics struct {
	mu sync.RWMutex

	TotalScans    int64 `json:"total_scans"`
	FallbackScans int64 `json:"fallback_scans"`
	EmptyScans    int64 `json:"empty_scans"`
	FailedScans   int64 `json:"failed_scans"`
	TotalEvents   int64 `json:"total_events"`

	SourceMetrics map[string]*SourceMetric `json:"source_metrics"`
	LastUpdated   time.Time                `json:"last_updated"`
}

// SourceMetric tracks outcomes for one source domain.
type SourceMetric struct {
	Domain           string    `json:"domain"`
	TotalScans       int64     `json:"total_scans"`
	FallbackScans    int64     `json:"fallback_scans"`
	TotalEvents      int64     `json:"total_events"`
	AvgEventsPerScan float64   `json:"avg_events_per_scan"`
	AvgConfidence    float64   `json:"avg_confidence"`
	LastScan         time.Time `json:"last_scan"`

	confidenceSum   float64
	confidenceCount int64
}

// NewScanMetrics creates an empty metrics tracker.
func NewScanMetrics() *ScanMetrics {
	return &ScanMetrics{
		SourceMetrics: make(map[string]*SourceMetric),
		LastUpdated:   time.Now(),
	}
}

// RecordScan updates the counters from one completed scan result.
func (m *ScanMetrics) RecordScan(result *models.ScanResult) {
	if result == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalScans++
	m.TotalEvents += int64(len(result.Events))
	if result.UsedFallback {
		m.FallbackScans++
	}
	if len(result.Events) == 0 {
		m.EmptyScans++
	}
	m.LastUpdated = time.Now()

	domain := models.ExtractDomain(result.URL)
	if domain == "" {
		domain = "direct-text"
	}

	source, exists := m.SourceMetrics[domain]
	if !exists {
		source = &SourceMetric{Domain: domain}
		m.SourceMetrics[domain] = source
	}

	source.TotalScans++
	source.TotalEvents += int64(len(result.Events))
	if result.UsedFallback {
		source.FallbackScans++
	}
	source.LastScan = result.ScannedAt
	source.AvgEventsPerScan = float64(source.TotalEvents) / float64(source.TotalScans)

	for _, event := range result.Events {
		source.confidenceSum += event.Confidence
		source.confidenceCount++
	}
	if source.confidenceCount > 0 {
		source.AvgConfidence = source.confidenceSum / float64(source.confidenceCount)
	}
}

// RecordFailure counts a scan that could not run at all (fetch failure,
// concurrent rejection is not counted here).
func (m *ScanMetrics) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalScans++
	m.FailedScans++
	m.LastUpdated = time.Now()
}

// Snapshot returns a copy safe for JSON serialization.
func (m *ScanMetrics) Snapshot() ScanMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := ScanMetrics{
		TotalScans:    m.TotalScans,
		FallbackScans: m.FallbackScans,
		EmptyScans:    m.EmptyScans,
		FailedScans:   m.FailedScans,
		TotalEvents:   m.TotalEvents,
		SourceMetrics: make(map[string]*SourceMetric, len(m.SourceMetrics)),
		LastUpdated:   m.LastUpdated,
	}

	for domain, source := range m.SourceMetrics {
		copied := *source
		snapshot.SourceMetrics[domain] = &copied
	}

	return snapshot
}

// FallbackRate returns the share of scans that used the fallback path.
func (m *ScanMetrics) FallbackRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.TotalScans == 0 {
		return 0.0
	}
	return float64(m.FallbackScans) / float64(m.TotalScans)
}
