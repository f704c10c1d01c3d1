package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	"calclik-event-scanner/internal/annotator"
	"calclik-event-scanner/internal/calendar"
	"calclik-event-scanner/internal/config"
	"calclik-event-scanner/internal/log"
	"calclik-event-scanner/internal/models"
	"calclik-event-scanner/internal/patterns"
	"calclik-event-scanner/internal/scanner"
	"calclik-event-scanner/internal/services"
)

// Server wires the extraction pipeline to an HTTP API plus an optional
// cron-scheduled watch loop over configured sources.
type Server struct {
	cfg     *config.Config
	scanner *scanner.Scanner
	reader  *services.ReaderClient
	dom     *services.DOMScanner
	metrics *services.ScanMetrics

	// snapshots and events are nil when the corresponding storage is not
	// configured.
	snapshots *services.SnapshotStore
	events    *services.EventStore
}

type scanRequest struct {
	URL        string `json:"url"`
	Text       string `json:"text"`
	UseBrowser bool   `json:"use_browser"`
}

type encodeRequest struct {
	Event  models.EventCandidate `json:"event"`
	Format string                `json:"format"`
}

type saveEventRequest struct {
	Event  models.EventCandidate `json:"event"`
	ScanID string                `json:"scan_id"`
}

func main() {
	configPath := flag.String("config", "calclik.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", err, "path", *configPath)
		os.Exit(1)
	}

	ctx := context.Background()

	srv := &Server{
		cfg: cfg,
		scanner: scanner.New(scanner.Config{
			Annotator:        buildAnnotator(cfg),
			AnnotatorTimeout: time.Duration(cfg.Annotator.TimeoutSeconds) * time.Second,
		}),
		reader:  services.NewReaderClientWithTimeout(time.Duration(cfg.ReaderTimeoutSeconds) * time.Second),
		dom:     services.NewDOMScanner(),
		metrics: services.NewScanMetrics(),
	}

	if cfg.Storage.S3Bucket != "" {
		store, err := services.NewSnapshotStore(ctx, cfg.Storage.S3Bucket)
		if err != nil {
			log.Warn("snapshot store disabled", "err", err)
		} else {
			srv.snapshots = store
		}
	}
	if cfg.Storage.EventsTable != "" {
		store, err := services.NewEventStore(ctx, cfg.Storage.EventsTable)
		if err != nil {
			log.Warn("event store disabled", "err", err)
		} else {
			srv.events = store
		}
	}

	watcher := srv.startWatcher()
	if watcher != nil {
		defer watcher.Stop()
	}

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      srv.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", err)
	}
}

func buildAnnotator(cfg *config.Config) annotator.Annotator {
	if !cfg.Annotator.Enabled {
		return nil
	}

	a, err := annotator.NewOpenAIAnnotatorWithConfig(cfg.Annotator.Model, cfg.Annotator.Temperature, cfg.Annotator.MaxTokens)
	if err != nil {
		log.Warn("annotator unavailable, scans will use fallback extraction", "err", err)
		return nil
	}
	return a
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/scan", s.handleScan).Methods(http.MethodPost)
	api.HandleFunc("/probe", s.handleProbe).Methods(http.MethodPost)
	api.HandleFunc("/scans/latest", s.handleLatestScan).Methods(http.MethodGet)
	api.HandleFunc("/encode", s.handleEncode).Methods(http.MethodPost)
	api.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	api.HandleFunc("/events", s.handleSaveEvent).Methods(http.MethodPost)
	api.HandleFunc("/events/{domain}", s.handleListEvents).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	return r
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.URL == "" && req.Text == "" {
		writeError(w, http.StatusBadRequest, errors.New("either url or text is required"))
		return
	}

	result, err := s.runScan(r.Context(), req.URL, req.Text, req.UseBrowser)
	if err != nil {
		if errors.Is(err, scanner.ErrScanInProgress) {
			writeError(w, http.StatusConflict, err)
			return
		}
		s.metrics.RecordFailure()
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// runScan acquires page text (unless direct text was supplied) and runs one
// extraction pass, recording metrics and refreshing the S3 snapshot.
func (s *Server) runScan(ctx context.Context, pageURL, text string, useBrowser bool) (*models.ScanResult, error) {
	var structured []models.StructuredElement

	if text == "" {
		if useBrowser {
			capture, err := s.dom.ScanPage(ctx, pageURL)
			if err != nil {
				return nil, err
			}
			text = capture.Text
			structured = capture.Structured
		} else {
			fetched, err := s.reader.FetchPageText(ctx, pageURL)
			if err != nil {
				return nil, err
			}
			text = fetched
		}
	}

	result, err := s.scanner.Scan(ctx, text, structured, pageURL)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordScan(result)

	if s.snapshots != nil {
		if _, err := s.snapshots.UploadScanResult(ctx, result); err != nil {
			log.Warn("failed to upload scan snapshot", "scan_id", result.ScanID, "err", err)
		}
	}

	return result, nil
}

// handleProbe is the cheap "does this page look eventful" check: no blocks,
// no assembly, just the pattern-library signal probe.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	text := req.Text
	if text == "" {
		if req.URL == "" {
			writeError(w, http.StatusBadRequest, errors.New("either url or text is required"))
			return
		}
		fetched, err := s.reader.FetchPageText(r.Context(), req.URL)
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		text = fetched
	}

	writeJSON(w, http.StatusOK, map[string]bool{"eventful": patterns.HasEventSignal(text)})
}

func (s *Server) handleLatestScan(w http.ResponseWriter, r *http.Request) {
	result := s.scanner.LastResult()
	if result == nil && s.snapshots != nil {
		stored, err := s.snapshots.DownloadLatest(r.Context())
		if err != nil {
			log.Warn("failed to download latest snapshot", "err", err)
		} else {
			result = stored
		}
	}
	if result == nil {
		writeError(w, http.StatusNotFound, errors.New("no scan has completed yet"))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var req encodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	format := req.Format
	if format == "" {
		format = s.cfg.Display.Provider
	}

	encoded, err := calendar.Encode(req.Event, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if format == calendar.FormatICS {
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(encoded))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"format": format, "link": encoded})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleSaveEvent(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("event storage is not configured"))
		return
	}

	var req saveEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Event.ID == "" {
		writeError(w, http.StatusBadRequest, errors.New("event id is required"))
		return
	}

	if err := s.events.SaveEvent(r.Context(), req.Event, req.ScanID); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": req.Event.ID})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("event storage is not configured"))
		return
	}

	domain := mux.Vars(r)["domain"]
	events, err := s.events.ListEventsByDomain(r.Context(), domain)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// startWatcher schedules periodic re-scans of the configured watch sources.
// Returns nil when watching is disabled.
func (s *Server) startWatcher() *cron.Cron {
	if s.cfg.Watch.Cron == "" || len(s.cfg.Watch.Sources) == 0 {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(s.cfg.Watch.Cron, s.watchPass)
	if err != nil {
		log.Error("invalid watch cron expression", err, "cron", s.cfg.Watch.Cron)
		return nil
	}

	c.Start()
	log.Info("watch schedule active", "cron", s.cfg.Watch.Cron, "sources", len(s.cfg.Watch.Sources))
	return c
}

// watchPass re-scans every watch source sequentially. Sources share one
// scanner, so running them one at a time avoids tripping the concurrent-scan
// rejection. Text-only sources are probed first and skipped when the page
// carries no event signal at all.
func (s *Server) watchPass() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	for _, source := range s.cfg.Watch.Sources {
		text := ""
		if !source.UseBrowser {
			fetched, err := s.reader.FetchPageText(ctx, source.URL)
			if err != nil {
				s.metrics.RecordFailure()
				log.Warn("watch fetch failed", "source", source.Name, "url", source.URL, "err", err)
				continue
			}
			if !patterns.HasEventSignal(fetched) {
				log.Debug("watch source has no event signal, skipping", "source", source.Name, "url", source.URL)
				continue
			}
			text = fetched
		}

		result, err := s.runScan(ctx, source.URL, text, source.UseBrowser)
		if err != nil {
			s.metrics.RecordFailure()
			log.Warn("watch scan failed", "source", source.Name, "url", source.URL, "err", err)
			continue
		}
		log.Info("watch scan completed", "source", source.Name, "events", len(result.Events), "used_fallback", result.UsedFallback)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
