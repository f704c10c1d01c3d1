package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"

	"calclik-event-scanner/internal/annotator"
	"calclik-event-scanner/internal/log"
	"calclik-event-scanner/internal/models"
	"calclik-event-scanner/internal/scanner"
	"calclik-event-scanner/internal/services"
)

// LambdaEvent is the EventBridge trigger payload. URLs may be supplied in
// the event; otherwise they come from the SCAN_URLS environment variable
// (comma-separated).
type LambdaEvent struct {
	Source       string   `json:"source"`
	DetailType   string   `json:"detail-type"`
	TriggerType  string   `json:"trigger-type,omitempty"`
	URLs         []string `json:"urls,omitempty"`
	SourceFilter []string `json:"source-filter,omitempty"`
}

// LambdaResponse summarizes one scan run.
type LambdaResponse struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	RunID          string         `json:"run_id"`
	TotalEvents    int            `json:"total_events"`
	ProcessingTime int64          `json:"processing_time_ms"`
	Sources        []SourceResult `json:"sources"`
	Errors         []string       `json:"errors,omitempty"`
}

// SourceResult is the outcome for one scanned URL.
type SourceResult struct {
	URL          string `json:"url"`
	Success      bool   `json:"success"`
	EventsFound  int    `json:"events_found"`
	UsedFallback bool   `json:"used_fallback"`
	SnapshotKey  string `json:"snapshot_key,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ScanRunner holds the collaborators for one lambda invocation.
type ScanRunner struct {
	scanner   *scanner.Scanner
	reader    *services.ReaderClient
	snapshots *services.SnapshotStore
	events    *services.EventStore
	runID     string
	startTime time.Time
}

// NewScanRunner initializes the pipeline and the configured stores. The
// snapshot bucket is required; the event store is optional.
func NewScanRunner(ctx context.Context) (*ScanRunner, error) {
	var ann annotator.Annotator
	if openAI, err := annotator.NewOpenAIAnnotator(); err != nil {
		log.Warn("annotator unavailable, scans will use fallback extraction", "err", err)
	} else {
		ann = openAI
	}

	snapshots, err := services.NewSnapshotStore(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}

	runner := &ScanRunner{
		scanner:   scanner.New(scanner.Config{Annotator: ann}),
		reader:    services.NewReaderClient(),
		snapshots: snapshots,
		runID:     uuid.New().String(),
		startTime: time.Now(),
	}

	if table := os.Getenv("SAVED_EVENTS_TABLE"); table != "" {
		events, err := services.NewEventStore(ctx, table)
		if err != nil {
			log.Warn("event store disabled", "err", err)
		} else {
			runner.events = events
		}
	}

	return runner, nil
}

// ScanSource fetches and scans one URL, persisting the snapshot and any
// extracted events.
func (r *ScanRunner) ScanSource(ctx context.Context, url string) SourceResult {
	result := SourceResult{URL: url}

	text, err := r.reader.FetchPageText(ctx, url)
	if err != nil {
		result.Error = fmt.Sprintf("fetch failed: %v", err)
		return result
	}

	scanResult, err := r.scanner.Scan(ctx, text, nil, url)
	if err != nil {
		result.Error = fmt.Sprintf("scan failed: %v", err)
		return result
	}

	result.Success = true
	result.EventsFound = len(scanResult.Events)
	result.UsedFallback = scanResult.UsedFallback

	uploaded, err := r.snapshots.UploadScanResult(ctx, scanResult)
	if err != nil {
		log.Warn("failed to upload scan snapshot", "url", url, "err", err)
	} else {
		result.SnapshotKey = uploaded.Key
	}

	if r.events != nil {
		for _, event := range scanResult.Events {
			if err := r.events.SaveEvent(ctx, event, scanResult.ScanID); err != nil {
				log.Warn("failed to save event", "event_id", event.ID, "err", err)
			}
		}
	}

	return result
}

// resolveURLs picks the URL list from the event payload or the environment,
// applying the optional source filter by domain.
func resolveURLs(event LambdaEvent) []string {
	urls := event.URLs
	if len(urls) == 0 {
		for _, raw := range strings.Split(os.Getenv("SCAN_URLS"), ",") {
			if trimmed := strings.TrimSpace(raw); trimmed != "" {
				urls = append(urls, trimmed)
			}
		}
	}

	if len(event.SourceFilter) == 0 {
		return urls
	}

	filtered := make([]string, 0, len(urls))
	for _, url := range urls {
		domain := models.ExtractDomain(url)
		for _, filter := range event.SourceFilter {
			if domain == filter {
				filtered = append(filtered, url)
				break
			}
		}
	}
	return filtered
}

// HandleScanEvent is the Lambda entry point: it scans every resolved URL
// sequentially and reports per-source outcomes.
func HandleScanEvent(ctx context.Context, event LambdaEvent) (LambdaResponse, error) {
	start := time.Now()

	runner, err := NewScanRunner(ctx)
	if err != nil {
		return LambdaResponse{
			Success:        false,
			Message:        fmt.Sprintf("initialization failed: %v", err),
			ProcessingTime: time.Since(start).Milliseconds(),
		}, err
	}

	urls := resolveURLs(event)
	if len(urls) == 0 {
		return LambdaResponse{
			Success:        false,
			Message:        "no URLs to scan: set SCAN_URLS or pass urls in the event",
			RunID:          runner.runID,
			ProcessingTime: time.Since(start).Milliseconds(),
		}, nil
	}

	log.Info("scan run started", "run_id", runner.runID, "sources", len(urls), "trigger", event.TriggerType)

	response := LambdaResponse{RunID: runner.runID}
	for _, url := range urls {
		result := runner.ScanSource(ctx, url)
		response.Sources = append(response.Sources, result)

		if result.Success {
			response.TotalEvents += result.EventsFound
		} else {
			response.Errors = append(response.Errors, fmt.Sprintf("%s: %s", url, result.Error))
		}
	}

	successful := len(urls) - len(response.Errors)
	response.Success = successful > 0
	response.Message = fmt.Sprintf("extracted %d events from %d/%d sources", response.TotalEvents, successful, len(urls))
	response.ProcessingTime = time.Since(start).Milliseconds()

	log.Info("scan run completed", "run_id", runner.runID, "events", response.TotalEvents, "elapsed_ms", response.ProcessingTime)

	return response, nil
}

func main() {
	lambda.Start(HandleScanEvent)
}
