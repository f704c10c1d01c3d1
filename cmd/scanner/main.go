package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"calclik-event-scanner/internal/annotator"
	"calclik-event-scanner/internal/calendar"
	"calclik-event-scanner/internal/config"
	"calclik-event-scanner/internal/log"
	"calclik-event-scanner/internal/models"
	"calclik-event-scanner/internal/scanner"
	"calclik-event-scanner/internal/services"
)

func main() {
	var (
		pageURL    = flag.String("url", "", "URL of the page to scan")
		useBrowser = flag.Bool("browser", false, "use a headless browser instead of the text reader (captures structured elements)")
		filePath   = flag.String("file", "", "scan the text of a local file instead of a URL")
		configPath = flag.String("config", defaultConfigPath(), "path to the YAML config file")
		encodeAs   = flag.String("encode", "", "encode extracted events as ics, google, or outlook")
		eventIndex = flag.Int("event", -1, "encode only the event at this index (default: all)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	text, structured, sourceURL, err := acquireText(ctx, cfg, *pageURL, *filePath, *useBrowser)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to acquire page text: %v\n", err)
		os.Exit(1)
	}

	sc := scanner.New(scanner.Config{
		Annotator:        buildAnnotator(cfg),
		AnnotatorTimeout: time.Duration(cfg.Annotator.TimeoutSeconds) * time.Second,
	})

	result, err := sc.Scan(ctx, text, structured, sourceURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(1)
	}

	if *encodeAs != "" {
		if err := encodeEvents(result.Events, *encodeAs, *eventIndex); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	printResult(result, cfg)
}

// acquireText returns the page text to scan, from a URL (reader or browser),
// a local file, or stdin when neither is given.
func acquireText(ctx context.Context, cfg *config.Config, pageURL, filePath string, useBrowser bool) (string, []models.StructuredElement, string, error) {
	switch {
	case pageURL != "":
		if useBrowser {
			capture, err := services.NewDOMScanner().ScanPage(ctx, pageURL)
			if err != nil {
				return "", nil, "", err
			}
			return capture.Text, capture.Structured, pageURL, nil
		}

		reader := services.NewReaderClientWithTimeout(time.Duration(cfg.ReaderTimeoutSeconds) * time.Second)
		text, err := reader.FetchPageText(ctx, pageURL)
		if err != nil {
			return "", nil, "", err
		}
		return text, nil, pageURL, nil

	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", nil, "", err
		}
		return string(data), nil, "", nil

	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", nil, "", err
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", nil, "", errors.New("no input: pass -url, -file, or pipe text on stdin")
		}
		return string(data), nil, "", nil
	}
}

// buildAnnotator returns the configured entity annotator, or nil when the
// annotator is disabled or the API key is missing. A nil annotator routes
// every scan through the fallback extractor.
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

func encodeEvents(events []models.EventCandidate, format string, index int) error {
	if len(events) == 0 {
		return errors.New("no events extracted, nothing to encode")
	}

	if index >= 0 {
		if index >= len(events) {
			return fmt.Errorf("event index %d out of range (%d events)", index, len(events))
		}
		events = events[index : index+1]
	}

	for _, event := range events {
		encoded, err := calendar.Encode(event, format)
		if err != nil {
			return err
		}
		fmt.Println(encoded)
	}

	return nil
}

func printResult(result *models.ScanResult, cfg *config.Config) {
	if len(result.Events) == 0 {
		fmt.Printf("No events found (%d blocks scanned).\n", result.BlocksScanned)
		return
	}

	mode := "primary"
	if result.UsedFallback {
		mode = "fallback"
	}
	fmt.Printf("Found %d event(s) in %d block(s) [%s extraction]\n\n", len(result.Events), result.BlocksScanned, mode)

	for i, event := range result.Events {
		fmt.Printf("[%d] %s (confidence %.2f)\n", i, event.Title, event.Confidence)
		if event.Date != "" {
			fmt.Printf("    Date:     %s\n", calendar.FormatDateDisplay(event.Date, cfg.Display.DateFormat))
		}
		if event.Time != "" {
			fmt.Printf("    Time:     %s\n", calendar.FormatTimeDisplay(event.Time, cfg.Display.TimeFormat))
		}
		if event.Location != "" {
			fmt.Printf("    Location: %s\n", event.Location)
		}
		if event.Description != "" {
			fmt.Printf("    %s\n", event.Description)
		}
		fmt.Println()
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "calclik.yaml"
	}
	return home + "/.config/calclik/config.yaml"
}
