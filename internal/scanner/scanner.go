// Package scanner orchestrates one complete extraction pass: block
// extraction, entity annotation, event assembly, confidence scoring, and
// the fallback strategy when annotation is unavailable. No error from any
// pipeline stage escapes Scan; the only caller-visible failure modes are an
// empty event list and the fail-fast rejection of a concurrent scan.
package scanner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"calclik-event-scanner/internal/annotator"
	"calclik-event-scanner/internal/extractor"
	"calclik-event-scanner/internal/log"
	"calclik-event-scanner/internal/models"
)

// ErrScanInProgress is returned immediately when a scan is requested while
// another is outstanding. Requests are rejected, never queued.
var ErrScanInProgress = errors.New("scan already in progress")

// DefaultAnnotatorTimeout bounds the single suspension point in the
// pipeline. An annotator that exceeds it is treated as failed and the scan
// falls back rather than hang.
const DefaultAnnotatorTimeout = 15 * time.Second

// Config holds scanner construction options.
type Config struct {
	// Annotator is the optional entity-recognition capability. nil means
	// the primary path is unavailable and every scan uses the fallback
	// extractor.
	Annotator annotator.Annotator

	// AnnotatorTimeout bounds one annotation call. Zero selects
	// DefaultAnnotatorTimeout.
	AnnotatorTimeout time.Duration
}

// Scanner runs scans one at a time. All extraction state is scan-local; the
// only thing carried across scans is the previous result, which a new scan
// unconditionally replaces.
type Scanner struct {
	annotator        annotator.Annotator
	annotatorTimeout time.Duration

	scanning atomic.Bool

	mu         sync.Mutex
	lastResult *models.ScanResult
}

// New creates a Scanner.
func New(cfg Config) *Scanner {
	timeout := cfg.AnnotatorTimeout
	if timeout <= 0 {
		timeout = DefaultAnnotatorTimeout
	}

	return &Scanner{
		annotator:        cfg.Annotator,
		annotatorTimeout: timeout,
	}
}

// Scan performs one extraction pass over page text, optionally enriched by
// structured DOM elements from the page-scanning collaborator. It is
// deterministic for identical text, element enumeration, and annotator
// output. A second request while a scan is outstanding fails immediately
// with ErrScanInProgress.
func (s *Scanner) Scan(ctx context.Context, text string, structured []models.StructuredElement, sourceURL string) (*models.ScanResult, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.scanning.Store(false)

	startedAt := time.Now()

	blocks := extractor.ExtractBlocks(text, structured)

	result := &models.ScanResult{
		ScanID:        models.GenerateScanID(sourceURL, startedAt),
		URL:           sourceURL,
		Events:        []models.EventCandidate{},
		BlocksScanned: len(blocks),
		ScannedAt:     startedAt,
	}

	if len(blocks) == 0 {
		// Nothing matched a date or time pattern: an empty result, not an
		// error, and not a reason to run the fallback extractor.
		s.storeResult(result)
		return result, nil
	}

	corpus := extractor.JoinBlocks(blocks)

	fullText := text
	if strings.TrimSpace(fullText) == "" {
		fullText = corpus
	}

	events, usedFallback := s.extract(ctx, corpus, fullText, blocks, sourceURL)
	if events == nil {
		events = []models.EventCandidate{}
	}

	result.Events = events
	result.UsedFallback = usedFallback

	s.storeResult(result)

	log.Info("scan completed",
		"scan_id", result.ScanID,
		"url", sourceURL,
		"blocks", len(blocks),
		"events", len(events),
		"used_fallback", usedFallback,
		"elapsed_ms", time.Since(startedAt).Milliseconds())

	return result, nil
}

// extract runs the primary path when an annotator is present and healthy,
// and the fallback path otherwise.
func (s *Scanner) extract(ctx context.Context, corpus, fullText string, blocks []models.TextBlock, sourceURL string) ([]models.EventCandidate, bool) {
	if s.annotator == nil {
		return extractor.ExtractFallback(fullText, sourceURL), true
	}

	annotateCtx, cancel := context.WithTimeout(ctx, s.annotatorTimeout)
	entities, err := s.annotator.Annotate(annotateCtx, corpus)
	cancel()

	if err != nil {
		log.Warn("annotator failed, switching to fallback extraction", "url", sourceURL, "err", err)
		return extractor.ExtractFallback(fullText, sourceURL), true
	}

	var candidates []models.EventCandidate
	if len(entities) > 0 {
		candidates = extractor.AssembleWithEntities(corpus, entities, sourceURL)
	} else {
		candidates = extractor.AssembleBlocks(blocks, sourceURL)
	}

	return extractor.ScoreAndFilter(candidates), false
}

// LastResult returns the cached result of the most recent scan, or nil when
// no scan has completed yet.
func (s *Scanner) LastResult() *models.ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

func (s *Scanner) storeResult(result *models.ScanResult) {
	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()
}
